package funcdiff

import (
	"fmt"
	"regexp"
	"time"

	"github.com/panbanda/chronicle/pkg/analyzer"
)

// FunctionChange is the before/after measurement of one function touched by
// one commit.
type FunctionChange struct {
	File               string    `json:"file" toon:"file"`
	Function           string    `json:"function" toon:"function"`
	CommitHash         string    `json:"commit_hash" toon:"commit_hash"`
	Author             string    `json:"author" toon:"author"`
	Timestamp          time.Time `json:"timestamp" toon:"timestamp"`
	BeforeComplexity   int       `json:"before_complexity" toon:"before_complexity"`
	AfterComplexity    int       `json:"after_complexity" toon:"after_complexity"`
	ComplexityIncrease int       `json:"complexity_increase" toon:"complexity_increase"`
	BeforeNesting      int       `json:"before_nesting" toon:"before_nesting"`
	AfterNesting       int       `json:"after_nesting" toon:"after_nesting"`
	NestingLevelChange int       `json:"nesting_level_change" toon:"nesting_level_change"`
	BeforeLines        int       `json:"before_lines" toon:"before_lines"`
	AfterLines         int       `json:"after_lines" toon:"after_lines"`
	LineCountChange    int       `json:"line_count_change" toon:"line_count_change"`

	IsSignificantIncrease bool `json:"is_significant_increase" toon:"is_significant_increase"`
	RefactoringCandidate  bool `json:"refactoring_candidate" toon:"refactoring_candidate"`
}

// Key identifies the function across commits.
func (c FunctionChange) Key() string {
	return c.File + "::" + c.Function
}

// Thresholds drive the per-commit flags.
//
//	significant: increase > SignificantIncrease && nesting > SignificantNesting
//	refactor:    increase > RefactorIncrease ||
//	             (increase > RefactorNestedIncrease && nesting > RefactorNesting)
type Thresholds struct {
	SignificantIncrease    int `json:"significant_increase" koanf:"significant_increase" toml:"significant_increase"`
	SignificantNesting     int `json:"significant_nesting" koanf:"significant_nesting" toml:"significant_nesting"`
	RefactorIncrease       int `json:"refactor_increase" koanf:"refactor_increase" toml:"refactor_increase"`
	RefactorNestedIncrease int `json:"refactor_nested_increase" koanf:"refactor_nested_increase" toml:"refactor_nested_increase"`
	RefactorNesting        int `json:"refactor_nesting" koanf:"refactor_nesting" toml:"refactor_nesting"`
}

// DefaultThresholds returns the standard flag thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SignificantIncrease:    3,
		SignificantNesting:     1,
		RefactorIncrease:       5,
		RefactorNestedIncrease: 3,
		RefactorNesting:        0,
	}
}

// Validate rejects threshold sets that can never be satisfied coherently.
func (t Thresholds) Validate() error {
	if t.SignificantIncrease < 0 || t.RefactorIncrease < 0 || t.RefactorNestedIncrease < 0 {
		return fmt.Errorf("%w: complexity increase thresholds must be non-negative", analyzer.ErrInvalidConfig)
	}
	if t.SignificantNesting < 0 || t.RefactorNesting < 0 {
		return fmt.Errorf("%w: nesting thresholds must be non-negative", analyzer.ErrInvalidConfig)
	}
	if t.RefactorNestedIncrease > t.RefactorIncrease {
		return fmt.Errorf("%w: refactor_nested_increase (%d) exceeds refactor_increase (%d)",
			analyzer.ErrInvalidConfig, t.RefactorNestedIncrease, t.RefactorIncrease)
	}
	return nil
}

// IsSignificant reports the significant-increase flag.
func (t Thresholds) IsSignificant(increase, nestingChange int) bool {
	return increase > t.SignificantIncrease && nestingChange > t.SignificantNesting
}

// IsRefactoringCandidate reports the per-commit refactoring flag.
func (t Thresholds) IsRefactoringCandidate(increase, nestingChange int) bool {
	return increase > t.RefactorIncrease ||
		(increase > t.RefactorNestedIncrease && nestingChange > t.RefactorNesting)
}

// DefaultDeclarationPatterns recognise function declarations in brace
// languages. Each pattern must capture the function name in a group named
// "name".
var DefaultDeclarationPatterns = []string{
	// Go functions and methods
	`^\s*func\s+(?:\([^)]*\)\s*)?(?P<name>[A-Za-z_]\w*)\s*[\[(]`,
	// JS/TS function declarations
	`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(?P<name>[A-Za-z_$][\w$]*)\s*[<(]`,
	// JS/TS function expressions and arrows bound to a name
	`^\s*(?:export\s+)?(?:const|let|var)\s+(?P<name>[A-Za-z_$][\w$]*)\s*(?::[^=]+)?=\s*(?:async\s+)?(?:function\b|\([^)]*\)\s*(?::[^=]+)?=>|[A-Za-z_$][\w$]*\s*=>)`,
	// Java/C#/C++/Kotlin style methods with a return type
	`^\s*(?:(?:public|private|protected|internal|static|final|abstract|virtual|override|async|synchronized|inline|extern|unsafe)\s+)*[\w<>\[\],.?*&:]+\s+(?P<name>[A-Za-z_]\w*)\s*\([^;]*$`,
	// class members without a return type: name(args) {
	`^\s*(?:(?:public|private|protected|static|async|get|set)\s+)*(?P<name>[A-Za-z_$][\w$]*)\s*\([^)]*\)\s*(?::\s*[\w<>\[\]|, ]+)?\s*\{\s*$`,
}

// controlKeywords never name a function, whichever pattern matched.
var controlKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "else": true, "new": true, "throw": true, "do": true,
	"try": true, "case": true, "default": true, "select": true, "go": true,
	"defer": true, "delete": true, "typeof": true, "await": true, "yield": true,
}

// CompilePatterns compiles declaration patterns, rejecting any that fail to
// compile or lack a "name" group.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		patterns = DefaultDeclarationPatterns
	}
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: declaration pattern %q: %v", analyzer.ErrInvalidConfig, p, err)
		}
		if re.SubexpIndex("name") < 0 {
			return nil, fmt.Errorf("%w: declaration pattern %q has no (?P<name>...) group", analyzer.ErrInvalidConfig, p)
		}
		out = append(out, re)
	}
	return out, nil
}
