package funcdiff

import (
	"regexp"
	"strings"
)

var (
	decisionPattern = regexp.MustCompile(`\b(if|for|while|case|catch)\b`)
	logicalPattern  = regexp.MustCompile(`&&|\|\|`)
)

// Metrics are the line-pattern measurements of one function text.
type Metrics struct {
	Complexity   int `json:"complexity"`
	NestingDepth int `json:"nesting_depth"`
	LineCount    int `json:"line_count"`
}

// Measure computes complexity, nesting and line count of a function text.
// An empty text measures zero on every axis.
func Measure(lines []string) Metrics {
	if len(lines) == 0 {
		return Metrics{}
	}
	return Metrics{
		Complexity:   Complexity(lines),
		NestingDepth: NestingDepth(lines),
		LineCount:    len(lines),
	}
}

// Complexity is 1 plus the number of decision keywords (if, for, while,
// case, catch) and logical operators (&&, ||). Empty input is 0.
func Complexity(lines []string) int {
	if len(lines) == 0 {
		return 0
	}
	n := 1
	for _, line := range lines {
		n += len(decisionPattern.FindAllStringIndex(line, -1))
		n += len(logicalPattern.FindAllStringIndex(line, -1))
	}
	return n
}

// NestingDepth is the maximum running net brace depth, floored at zero.
func NestingDepth(lines []string) int {
	depth, maxDepth := 0, 0
	for _, line := range lines {
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth < 0 {
			depth = 0
		}
		if depth > maxDepth {
			maxDepth = depth
		}
	}
	return maxDepth
}
