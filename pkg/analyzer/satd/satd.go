// Package satd finds self-admitted technical debt (TODO, FIXME, HACK and
// friends) in source comments and dates each marker through blame.
package satd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
)

// DefaultStaleDays is the age after which an untouched TODO is reported stale.
const DefaultStaleDays = 180

// FileSource lists and reads the files of a tree.
type FileSource interface {
	Files(ctx context.Context) ([]string, error)
	Read(ctx context.Context, path string) ([]byte, error)
}

// Blamer returns the origin of every line of a file, in line order.
type Blamer interface {
	BlameLines(ctx context.Context, path string) ([]LineOrigin, error)
}

// Analyzer detects self-admitted technical debt markers.
type Analyzer struct {
	patterns          []pattern
	includeTests      bool
	includeVendor     bool
	adjustSeverity    bool
	generateContextID bool
	strictMode        bool
	excludeTestBlocks bool
	maxFileSize       int64
	testPatterns      []*regexp.Regexp
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithSkipTests excludes test files from analysis.
// By default, test files are included.
func WithSkipTests() Option {
	return func(a *Analyzer) {
		a.includeTests = false
	}
}

// WithIncludeVendor includes vendor/third-party files in analysis.
// By default, vendor files are excluded.
func WithIncludeVendor() Option {
	return func(a *Analyzer) {
		a.includeVendor = true
	}
}

// WithSkipSeverityAdjustment disables context-based severity adjustment.
func WithSkipSeverityAdjustment() Option {
	return func(a *Analyzer) {
		a.adjustSeverity = false
	}
}

// WithStrictMode enables strict mode, matching only explicit markers with colons.
func WithStrictMode() Option {
	return func(a *Analyzer) {
		a.strictMode = true
	}
}

// WithMaxFileSize sets the maximum file size to analyze (0 = no limit).
func WithMaxFileSize(maxSize int64) Option {
	return func(a *Analyzer) {
		a.maxFileSize = maxSize
	}
}

// WithIncludeTestBlocks includes markers in Rust #[cfg(test)] blocks.
func WithIncludeTestBlocks() Option {
	return func(a *Analyzer) {
		a.excludeTestBlocks = false
	}
}

type pattern struct {
	regex    *regexp.Regexp
	category Category
	severity Severity
}

// New creates a new analyzer with default options.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		includeTests:      true,
		adjustSeverity:    true,
		generateContextID: true,
		excludeTestBlocks: true,
		testPatterns:      defaultTestPatterns(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.strictMode {
		a.patterns = strictPatterns()
	} else {
		a.patterns = defaultPatterns()
	}

	return a
}

// strictPatterns only match the explicit form: // MARKER: description
func strictPatterns() []pattern {
	return []pattern{
		{regexp.MustCompile(`(?://|#)\s*TODO:\s+(.+)`), CategoryRequirement, SeverityLow},
		{regexp.MustCompile(`(?://|#)\s*FIXME:\s+(.+)`), CategoryDefect, SeverityHigh},
		{regexp.MustCompile(`(?://|#)\s*HACK:\s+(.+)`), CategoryDesign, SeverityMedium},
		{regexp.MustCompile(`(?://|#)\s*XXX:\s+(.+)`), CategoryDesign, SeverityMedium},
		{regexp.MustCompile(`(?://|#)\s*BUG:\s+(.+)`), CategoryDefect, SeverityHigh},
	}
}

func defaultTestPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`_test\.go$`),
		regexp.MustCompile(`test_.*\.py$`),
		regexp.MustCompile(`.*_test\.py$`),
		regexp.MustCompile(`.*\.test\.[jt]sx?$`),
		regexp.MustCompile(`.*\.spec\.[jt]sx?$`),
		regexp.MustCompile(`__tests__/`),
		regexp.MustCompile(`(^|/)tests?/`),
		regexp.MustCompile(`(^|/)spec/`),
		regexp.MustCompile(`Test\.java$`),
		regexp.MustCompile(`_test\.rs$`),
		regexp.MustCompile(`_spec\.rb$`),
	}
}

// defaultPatterns are checked in order; the first match wins.
//   - Critical: security
//   - High: known defects
//   - Medium: design compromises
//   - Low: TODOs and minor notes
func defaultPatterns() []pattern {
	return []pattern{
		{regexp.MustCompile(`(?i)\b(?:SECURITY|VULN|VULNERABILITY|CVE|XSS)\b[:\s]*(.+)?`), CategorySecurity, SeverityCritical},
		{regexp.MustCompile(`(?i)\bUNSAFE\b[:\s]*(.+)?`), CategorySecurity, SeverityCritical},

		{regexp.MustCompile(`(?i)\b(?:FIXME|FIX\s*ME)\b[:\s]*(.+)?`), CategoryDefect, SeverityHigh},
		{regexp.MustCompile(`(?i)\bBUG\b[:\s]*(.+)?`), CategoryDefect, SeverityHigh},
		{regexp.MustCompile(`(?i)\bBROKEN\b[:\s]*(.+)?`), CategoryDefect, SeverityHigh},

		{regexp.MustCompile(`(?i)\b(?:HACK|KLUDGE|SMELL|XXX)\b[:\s]*(.+)?`), CategoryDesign, SeverityMedium},
		{regexp.MustCompile(`(?i)\b(?:WORKAROUND|TEMP|TEMPORARY)\b[:\s]*(.+)?`), CategoryDesign, SeverityLow},
		{regexp.MustCompile(`(?i)\bREFACTOR\b[:\s]*(.+)?`), CategoryDesign, SeverityMedium},
		{regexp.MustCompile(`(?i)\bCLEANUP\b[:\s]*(.+)?`), CategoryDesign, SeverityMedium},
		{regexp.MustCompile(`(?i)\btechnical\s+debt\b[:\s]*(.+)?`), CategoryDesign, SeverityMedium},
		{regexp.MustCompile(`(?i)\bperformance\s+(?:issue|problem)\b[:\s]*(.+)?`), CategoryPerformance, SeverityMedium},

		{regexp.MustCompile(`(?i)\bTODO\b[:\s]*(.+)?`), CategoryRequirement, SeverityLow},
		{regexp.MustCompile(`(?i)\b(?:OPTIMIZE|SLOW)\b[:\s]*(.+)?`), CategoryPerformance, SeverityLow},
		{regexp.MustCompile(`(?i)\bUNTESTED\b[:\s]*(.+)?`), CategoryTest, SeverityMedium},
	}
}

// shouldSkipProcessing checks if a line should be excluded from detection.
func shouldSkipProcessing(line string) bool {
	trimmed := strings.TrimSpace(line)
	return isMarkdownHeader(trimmed) ||
		isBugTrackingID(trimmed) ||
		isFixedBugDescription(trimmed) ||
		hasIgnoreDirective(line)
}

// hasIgnoreDirective matches chronicle:ignore and its -line / -todo forms.
func hasIgnoreDirective(line string) bool {
	return strings.Contains(strings.ToLower(line), "chronicle:ignore")
}

func isMarkdownHeader(trimmed string) bool {
	if !strings.HasPrefix(trimmed, "#") {
		return false
	}
	content := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))

	switch content {
	case "Security", "Added", "Changed", "Deprecated", "Removed", "Fixed",
		"Unreleased", "Changelog", "CHANGELOG":
		return true
	}
	return strings.HasPrefix(content, "[")
}

// isBugTrackingID matches ticket references like BUG-1234.
func isBugTrackingID(line string) bool {
	lower := strings.ToLower(line)
	if strings.Contains(lower, "-bug-") {
		return true
	}
	idx := strings.Index(lower, "bug-")
	if idx < 0 || idx+4 >= len(line) {
		return false
	}
	c := line[idx+4]
	return c >= '0' && c <= '9'
}

// isFixedBugDescription checks if a comment describes a bug already fixed.
func isFixedBugDescription(line string) bool {
	lower := strings.ToLower(line)
	if strings.HasPrefix(lower, "bug:") && strings.Contains(lower, "previous") {
		return true
	}
	return strings.Contains(lower, " fix:")
}

// AddPattern adds a custom detection pattern. The first capture group, if
// any, becomes the description.
func (a *Analyzer) AddPattern(pat string, category Category, severity Severity) error {
	re, err := regexp.Compile(pat)
	if err != nil {
		return err
	}
	a.patterns = append(a.patterns, pattern{re, category, severity})
	return nil
}

// AnalyzeContent scans one file's content for debt markers.
func (a *Analyzer) AnalyzeContent(path string, content []byte) ([]Item, error) {
	if a.maxFileSize > 0 && int64(len(content)) > a.maxFileSize {
		return nil, nil
	}
	if a.ShouldExcludeFile(path) || isBinary(content) {
		return nil, nil
	}

	var items []Item
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0

	style := commentStyleFor(path)
	isTest := a.isTestFile(path)
	isSecurity := isSecurityContext(path)
	testTracker := newTestBlockTracker(strings.EqualFold(filepath.Ext(path), ".rs") && a.excludeTestBlocks)

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		testTracker.updateFromLine(strings.TrimSpace(line))
		if testTracker.isInTestBlock() {
			continue
		}
		if !isCommentLine(line, style) || shouldSkipProcessing(line) {
			continue
		}

		for _, pat := range a.patterns {
			matches := pat.regex.FindStringSubmatch(line)
			if matches == nil {
				continue
			}
			description := strings.TrimSpace(line)
			if len(matches) > 1 && strings.TrimSpace(matches[1]) != "" {
				description = strings.TrimSpace(matches[1])
			}

			severity := pat.severity
			if a.adjustSeverity {
				severity = adjustSeverity(severity, isTest, isSecurity, line)
			}

			item := Item{
				Category:    pat.category,
				Severity:    severity,
				File:        path,
				Line:        lineNum,
				Description: description,
				Marker:      extractMarker(matches[0]),
			}
			if a.generateContextID {
				item.ContextHash = contextHash(path, lineNum, line)
			}
			items = append(items, item)
			break
		}
	}

	return items, scanner.Err()
}

// Analyze scans every file of src and returns the undated inventory.
// Unreadable files are skipped.
func (a *Analyzer) Analyze(ctx context.Context, src FileSource) (*Analysis, error) {
	files, err := src.Files(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	analysis := &Analysis{Items: []Item{}, Stale: []StaleTodo{}, Summary: NewSummary()}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if a.ShouldExcludeFile(path) {
			continue
		}
		content, err := src.Read(ctx, path)
		if err != nil {
			continue
		}
		items, err := a.AnalyzeContent(path, content)
		if err != nil {
			continue
		}
		analysis.Items = append(analysis.Items, items...)
		analysis.TotalFilesAnalyzed++
	}

	analysis.Finalize()
	return analysis, nil
}

// Finalize sorts items (severity, then file and line) and rebuilds the summary.
func (an *Analysis) Finalize() {
	SortItems(an.Items)
	an.Summary = NewSummary()
	for _, item := range an.Items {
		an.Summary.AddItem(item)
	}
	an.Summary.FilesWithSATD = len(an.Summary.ByFile)
	an.Summary.StaleItems = len(an.Stale)
}

// SortItems orders items by severity, then file and line.
func SortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if wi, wj := items[i].Severity.Weight(), items[j].Severity.Weight(); wi != wj {
			return wi > wj
		}
		if items[i].File != items[j].File {
			return items[i].File < items[j].File
		}
		return items[i].Line < items[j].Line
	})
}

// testBlockTracker tracks #[cfg(test)] blocks in Rust files.
type testBlockTracker struct {
	enabled     bool
	inTestBlock bool
	depth       int
}

func newTestBlockTracker(enabled bool) *testBlockTracker {
	return &testBlockTracker{enabled: enabled}
}

func (t *testBlockTracker) updateFromLine(trimmed string) {
	if !t.enabled {
		return
	}
	if strings.HasPrefix(trimmed, "#[cfg(test)]") {
		t.inTestBlock = true
		t.depth = 0
		return
	}
	if !t.inTestBlock {
		return
	}
	t.depth += strings.Count(trimmed, "{") - strings.Count(trimmed, "}")
	if t.depth <= 0 && strings.HasSuffix(trimmed, "}") {
		t.inTestBlock = false
		t.depth = 0
	}
}

func (t *testBlockTracker) isInTestBlock() bool {
	return t.inTestBlock
}

// ShouldExcludeFile reports whether path is skipped by the test, vendor and
// minified-file rules.
func (a *Analyzer) ShouldExcludeFile(path string) bool {
	if !a.includeTests && a.isTestFile(path) {
		return true
	}
	if !a.includeVendor && isVendorFile(path) {
		return true
	}
	return isMinifiedFile(path)
}

func (a *Analyzer) isTestFile(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, pat := range a.testPatterns {
		if pat.MatchString(slashed) {
			return true
		}
	}
	return false
}

func isVendorFile(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		switch part {
		case "vendor", "node_modules", "third_party", "external", "deps":
			return true
		}
	}
	return false
}

func isMinifiedFile(path string) bool {
	return strings.Contains(filepath.Base(path), ".min.")
}

func isBinary(content []byte) bool {
	n := len(content)
	if n > 8000 {
		n = 8000
	}
	return bytes.IndexByte(content[:n], 0) >= 0
}

var securityPathTerms = []string{
	"auth", "security", "crypto", "password", "credential",
	"token", "session", "permission", "access", "sanitize",
	"validate", "escape",
}

var securityLineTerms = []string{"security", "vuln", "auth", "password", "inject", "xss", "csrf", "sql"}

func isSecurityContext(path string) bool {
	lower := strings.ToLower(path)
	for _, term := range securityPathTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// adjustSeverity escalates markers in security-sensitive code and reduces
// those in tests. A security term on the line itself wins over a test file.
func adjustSeverity(base Severity, isTest, isSecurity bool, line string) Severity {
	lower := strings.ToLower(line)
	for _, term := range securityLineTerms {
		if strings.Contains(lower, term) {
			return base.Escalate()
		}
	}
	switch {
	case isTest:
		return base.Reduce()
	case isSecurity:
		return base.Escalate()
	}
	return base
}

// contextHash is a stable identity for a marker: BLAKE3 over path, line and
// trimmed content, truncated to 16 bytes.
func contextHash(path string, line int, content string) string {
	h := blake3.New()
	_, _ = h.Write([]byte(path))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strconv.Itoa(line)))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strings.TrimSpace(content)))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

type commentStyle struct {
	lineComments []string
	blockStart   string
	blockEnd     string
}

var (
	hashStyle  = commentStyle{lineComments: []string{"#"}, blockStart: `"""`, blockEnd: `"""`}
	slashStyle = commentStyle{lineComments: []string{"//"}, blockStart: "/*", blockEnd: "*/"}
	sqlStyle   = commentStyle{lineComments: []string{"--"}, blockStart: "/*", blockEnd: "*/"}
	mixedStyle = commentStyle{lineComments: []string{"//", "#"}, blockStart: "/*", blockEnd: "*/"}
)

// commentStyleFor picks comment syntax from the file extension.
func commentStyleFor(path string) commentStyle {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".rb", ".sh", ".bash", ".zsh", ".pl", ".r", ".yaml", ".yml", ".toml", ".tf", ".ex", ".exs":
		return hashStyle
	case ".go", ".rs", ".java", ".c", ".h", ".cc", ".cpp", ".hpp", ".cs", ".ts", ".tsx",
		".js", ".jsx", ".mjs", ".php", ".swift", ".kt", ".kts", ".scala", ".dart", ".proto":
		return slashStyle
	case ".sql", ".lua", ".hs":
		return sqlStyle
	}
	if filepath.Base(path) == "Makefile" || filepath.Base(path) == "Dockerfile" {
		return hashStyle
	}
	return mixedStyle
}

func isCommentLine(line string, style commentStyle) bool {
	trimmed := strings.TrimSpace(line)
	for _, prefix := range style.lineComments {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	if style.blockStart != "" && (strings.Contains(trimmed, style.blockStart) || strings.Contains(trimmed, style.blockEnd)) {
		return true
	}
	return strings.HasPrefix(trimmed, "*")
}

var markers = []string{"TODO", "FIXME", "HACK", "BUG", "XXX", "OPTIMIZE",
	"REFACTOR", "CLEANUP", "TEMP", "WORKAROUND", "SECURITY", "UNSAFE", "KLUDGE", "BROKEN"}

// extractMarker extracts the keyword from a match.
func extractMarker(match string) string {
	upper := strings.ToUpper(match)
	for _, m := range markers {
		if strings.Contains(upper, m) {
			return m
		}
	}
	return "UNKNOWN"
}
