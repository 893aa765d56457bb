// Package funcdiff measures per-function complexity before and after a
// commit by scanning the commit's unified diff with a small state machine.
//
// The scan is line-pattern based: a declaration line opens a function, a
// closing brace at or left of the declaration's indentation closes it once
// both the before and after versions have seen their closing brace.
// Removed lines feed the "before" text, added lines the "after" text and
// context lines both. Functions still open when a hunk ends are dropped.
package funcdiff

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/go-diff/diff"

	"github.com/panbanda/chronicle/internal/logging"
	"github.com/panbanda/chronicle/pkg/models"
)

// Differ extracts FunctionChanges from commit diffs.
type Differ struct {
	thresholds   Thresholds
	declarations []*regexp.Regexp
	logger       logrus.FieldLogger
}

// Option is a functional option for configuring Differ.
type Option func(*Differ)

// WithThresholds overrides the flag thresholds.
func WithThresholds(t Thresholds) Option {
	return func(d *Differ) {
		d.thresholds = t
	}
}

// WithDeclarations sets compiled declaration patterns (see CompilePatterns).
func WithDeclarations(patterns []*regexp.Regexp) Option {
	return func(d *Differ) {
		if len(patterns) > 0 {
			d.declarations = patterns
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(d *Differ) {
		d.logger = logging.OrDiscard(l)
	}
}

// New creates a Differ with default thresholds and declaration patterns.
func New(opts ...Option) *Differ {
	defaults, _ := CompilePatterns(DefaultDeclarationPatterns)
	d := &Differ{
		thresholds:   DefaultThresholds(),
		declarations: defaults,
		logger:       logging.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Hunk is one contiguous block of diff body lines for a file.
type Hunk struct {
	File  string
	Lines []string
}

// Span is a function boundary found inside a hunk.
type Span struct {
	Name       string
	Before     []string
	After      []string
	HasChanges bool
}

// Diff scans a commit's diff and returns one FunctionChange per changed
// function, in file then position order.
func (d *Differ) Diff(commit models.Commit, diffText string) []FunctionChange {
	var changes []FunctionChange
	for _, h := range d.SplitHunks(diffText) {
		for _, span := range d.ScanHunk(h.Lines) {
			if !span.HasChanges {
				continue
			}
			changes = append(changes, d.measure(commit, h.File, span))
		}
	}
	return changes
}

func (d *Differ) measure(commit models.Commit, file string, span Span) FunctionChange {
	before := Measure(span.Before)
	after := Measure(span.After)

	increase := after.Complexity - before.Complexity
	nesting := after.NestingDepth - before.NestingDepth

	return FunctionChange{
		File:                  file,
		Function:              span.Name,
		CommitHash:            commit.Hash,
		Author:                commit.Author,
		Timestamp:             commit.Timestamp,
		BeforeComplexity:      before.Complexity,
		AfterComplexity:       after.Complexity,
		ComplexityIncrease:    increase,
		BeforeNesting:         before.NestingDepth,
		AfterNesting:          after.NestingDepth,
		NestingLevelChange:    nesting,
		BeforeLines:           before.LineCount,
		AfterLines:            after.LineCount,
		LineCountChange:       after.LineCount - before.LineCount,
		IsSignificantIncrease: d.thresholds.IsSignificant(increase, nesting),
		RefactoringCandidate:  d.thresholds.IsRefactoringCandidate(increase, nesting),
	}
}

// SplitHunks splits a multi-file unified diff into hunks. Text that does not
// parse as a multi-file diff is split on "@@" headers and attributed to an
// unnamed file.
func (d *Differ) SplitHunks(diffText string) []Hunk {
	if strings.TrimSpace(diffText) == "" {
		return nil
	}

	fileDiffs, err := diff.NewMultiFileDiffReader(strings.NewReader(diffText)).ReadAllFiles()
	if err == nil && len(fileDiffs) > 0 {
		var hunks []Hunk
		for _, fd := range fileDiffs {
			name := fileName(fd)
			for _, h := range fd.Hunks {
				hunks = append(hunks, Hunk{File: name, Lines: splitBody(string(h.Body))})
			}
		}
		if len(hunks) > 0 {
			return hunks
		}
	} else if err != nil {
		d.logger.WithError(err).Debug("diff is not a multi-file unified diff, scanning raw hunks")
	}

	return rawHunks(diffText)
}

func fileName(fd *diff.FileDiff) string {
	name := fd.NewName
	if name == "" || name == "/dev/null" {
		name = fd.OrigName
	}
	name = strings.TrimPrefix(name, "a/")
	name = strings.TrimPrefix(name, "b/")
	return name
}

func splitBody(body string) []string {
	body = strings.TrimRight(body, "\n")
	if body == "" {
		return nil
	}
	return strings.Split(body, "\n")
}

func rawHunks(text string) []Hunk {
	var hunks []Hunk
	var current []string
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if strings.HasPrefix(line, "@@") {
			if len(current) > 0 {
				hunks = append(hunks, Hunk{Lines: current})
			}
			current = nil
			continue
		}
		if strings.HasPrefix(line, "+++ ") || strings.HasPrefix(line, "--- ") ||
			strings.HasPrefix(line, "diff --git ") || strings.HasPrefix(line, "index ") {
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		hunks = append(hunks, Hunk{Lines: current})
	}
	return hunks
}

// side tracks one version (before or after) of an open function.
type side struct {
	open, closed bool
}

// openFunction is the function being accumulated by the scanner. The before
// and after versions open and close independently, since a declaration or
// its closing brace may be present on one side of the diff only.
type openFunction struct {
	span          Span
	indent        int
	before, after side
}

func newOpenFunction(name string, kind lineKind, indent int) *openFunction {
	f := &openFunction{span: Span{Name: name}, indent: indent}
	f.before.open = kind != lineAdded
	f.after.open = kind != lineRemoved
	return f
}

func (f *openFunction) sideOf(kind lineKind) *side {
	if kind == lineAdded {
		return &f.after
	}
	return &f.before
}

// endsWith reports whether a closing line of kind leaves every opened side
// closed.
func (f *openFunction) endsWith(kind lineKind) bool {
	before, after := f.before, f.after
	switch kind {
	case lineAdded:
		after.closed = true
	case lineRemoved:
		before.closed = true
	default:
		before.closed, after.closed = true, true
	}
	return (!before.open || before.closed) && (!after.open || after.closed)
}

// add appends a body line. One-sided lines are dropped once their side has
// closed or before it has opened; a declaration opens a side seen late
// ("-func f(a int) {" followed by "+func f(a, b int) {").
func (f *openFunction) add(kind lineKind, content string, declares, closes bool) {
	if kind == lineContext {
		f.span.add(kind, content)
		if closes {
			f.before.closed, f.after.closed = true, true
		}
		return
	}
	s := f.sideOf(kind)
	if declares && !s.open {
		s.open = true
	}
	if !s.open || s.closed {
		return
	}
	f.span.add(kind, content)
	if closes {
		s.closed = true
	}
}

// ScanHunk runs the state machine over one hunk's body lines. The machine
// starts outside any function; a function still open at the end is dropped.
func (d *Differ) ScanHunk(lines []string) []Span {
	var spans []Span
	state := StateOutside
	var current *openFunction
	lastOneLine := -1

	for _, raw := range lines {
		if strings.HasPrefix(raw, `\`) {
			continue
		}
		kind, content := splitPrefix(raw)

		event, name := d.classify(state, kind, content, current)
		next, action := Transition(state, event)

		switch action {
		case ActionOpen:
			current = newOpenFunction(name, kind, indentation(content))
			current.span.add(kind, content)
		case ActionAppend, ActionAppendAndClose:
			declares := false
			if !current.sideOf(kind).open {
				_, declares = d.declarationName(content)
			}
			current.add(kind, content, declares, current.closedBy(content))
			if action == ActionAppendAndClose {
				spans = append(spans, current.span)
				current = nil
			}
		case ActionEmitOneLine:
			// a removed and re-added one-liner is one change
			if lastOneLine >= 0 && lastOneLine == len(spans)-1 && spans[lastOneLine].Name == name {
				spans[lastOneLine].add(kind, content)
				break
			}
			s := Span{Name: name}
			s.add(kind, content)
			spans = append(spans, s)
		}
		if action == ActionEmitOneLine {
			lastOneLine = len(spans) - 1
		} else {
			lastOneLine = -1
		}
		state = next
	}

	return spans
}

// closedBy reports a closing line at or left of the declaration's indentation.
func (f *openFunction) closedBy(content string) bool {
	return isClosingLine(strings.TrimSpace(content)) && indentation(content) <= f.indent
}

// classify maps a line to a scanner event given the current state.
func (d *Differ) classify(state State, kind lineKind, content string, current *openFunction) (Event, string) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return EventLine, ""
	}

	if state == StateInsideFunction && current != nil {
		if current.closedBy(content) && current.endsWith(kind) {
			return EventClosingBrace, ""
		}
		return EventLine, ""
	}

	if isClosingLine(trimmed) {
		return EventClosingBrace, ""
	}

	name, ok := d.declarationName(content)
	if !ok {
		return EventLine, ""
	}
	if !strings.Contains(trimmed, "{") && strings.HasSuffix(trimmed, ";") {
		// expression-bodied arrow or prototype, no body to track
		return EventLine, ""
	}
	if strings.Contains(trimmed, "{") && strings.Count(trimmed, "{") == strings.Count(trimmed, "}") {
		return EventOneLineDeclaration, name
	}
	return EventDeclaration, name
}

func (d *Differ) declarationName(content string) (string, bool) {
	fields := strings.FieldsFunc(content, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '('
	})
	if len(fields) > 0 && controlKeywords[fields[0]] {
		return "", false
	}
	for _, re := range d.declarations {
		m := re.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		name := m[re.SubexpIndex("name")]
		if name == "" || controlKeywords[name] {
			continue
		}
		return name, true
	}
	return "", false
}

// isClosingLine reports a line that closes a block without opening another
// ("}", "};", "})", not "} else {").
func isClosingLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "}") && !strings.Contains(trimmed, "{")
}

// indentation measures leading whitespace, counting a tab as four columns.
func indentation(s string) int {
	n := 0
	for _, r := range s {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

type lineKind int

const (
	lineContext lineKind = iota
	lineAdded
	lineRemoved
)

func splitPrefix(raw string) (lineKind, string) {
	if raw == "" {
		return lineContext, ""
	}
	switch raw[0] {
	case '+':
		return lineAdded, raw[1:]
	case '-':
		return lineRemoved, raw[1:]
	case ' ':
		return lineContext, raw[1:]
	default:
		return lineContext, raw
	}
}

func (s *Span) add(kind lineKind, content string) {
	switch kind {
	case lineAdded:
		s.After = append(s.After, content)
		s.HasChanges = true
	case lineRemoved:
		s.Before = append(s.Before, content)
		s.HasChanges = true
	default:
		s.Before = append(s.Before, content)
		s.After = append(s.After, content)
	}
}
