package satd

import "time"

// Category represents the type of technical debt.
type Category string

// String implements fmt.Stringer for toon serialization.
func (d Category) String() string {
	return string(d)
}

const (
	CategoryDesign      Category = "design"      // HACK, KLUDGE, SMELL
	CategoryDefect      Category = "defect"      // BUG, FIXME, BROKEN
	CategoryRequirement Category = "requirement" // TODO, FEAT, ENHANCEMENT
	CategoryTest        Category = "test"        // FAILING, SKIP, DISABLED
	CategoryPerformance Category = "performance" // SLOW, OPTIMIZE, PERF
	CategorySecurity    Category = "security"    // SECURITY, VULN, UNSAFE
)

// Severity represents the urgency of addressing the debt.
type Severity string

// String implements fmt.Stringer for toon serialization.
func (s Severity) String() string {
	return string(s)
}

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Weight returns a numeric weight for sorting.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Escalate increases severity by one level (max Critical).
func (s Severity) Escalate() Severity {
	switch s {
	case SeverityLow:
		return SeverityMedium
	case SeverityMedium:
		return SeverityHigh
	case SeverityHigh:
		return SeverityCritical
	default:
		return s
	}
}

// Reduce decreases severity by one level (min Low).
func (s Severity) Reduce() Severity {
	switch s {
	case SeverityCritical:
		return SeverityHigh
	case SeverityHigh:
		return SeverityMedium
	case SeverityMedium:
		return SeverityLow
	default:
		return s
	}
}

// Item is a single debt marker found in a file.
type Item struct {
	Category    Category   `json:"category" toon:"category"`
	Severity    Severity   `json:"severity" toon:"severity"`
	File        string     `json:"file" toon:"file"`
	Line        int        `json:"line" toon:"line"`
	Description string     `json:"description" toon:"description"`
	Marker      string     `json:"marker" toon:"marker"`                                 // TODO, FIXME, HACK, etc.
	ContextHash string     `json:"context_hash,omitempty" toon:"context_hash,omitempty"` // BLAKE3 hash for identity tracking
	Author      string     `json:"author,omitempty" toon:"author,omitempty"`
	Date        *time.Time `json:"date,omitempty" toon:"date,omitempty"`
}

// LineOrigin is the blame of one line.
type LineOrigin struct {
	Author string
	Date   time.Time
}

// StaleTodo is a marker that has outlived its file's activity: old itself,
// in a file nobody has touched for as long.
type StaleTodo struct {
	File                string    `json:"file" toon:"file"`
	Line                int       `json:"line" toon:"line"`
	Marker              string    `json:"marker" toon:"marker"`
	Text                string    `json:"text" toon:"text"`
	Author              string    `json:"author,omitempty" toon:"author,omitempty"`
	Date                time.Time `json:"date" toon:"date"`
	AgeDays             int       `json:"age_days" toon:"age_days"`
	FileLastChanged     time.Time `json:"file_last_changed" toon:"file_last_changed"`
	DaysSinceFileChange int       `json:"days_since_file_change" toon:"days_since_file_change"`
}

// Summary provides aggregate statistics.
type Summary struct {
	TotalItems    int            `json:"total_items" toon:"total_items"`
	BySeverity    map[string]int `json:"by_severity" toon:"by_severity"`
	ByCategory    map[string]int `json:"by_category" toon:"by_category"`
	ByFile        map[string]int `json:"by_file,omitempty" toon:"by_file,omitempty"`
	FilesWithSATD int            `json:"files_with_satd,omitempty" toon:"files_with_satd,omitempty"`
	DatedItems    int            `json:"dated_items" toon:"dated_items"`
	StaleItems    int            `json:"stale_items" toon:"stale_items"`
}

// NewSummary creates an initialized summary.
func NewSummary() Summary {
	return Summary{
		BySeverity: make(map[string]int),
		ByCategory: make(map[string]int),
		ByFile:     make(map[string]int),
	}
}

// AddItem updates the summary with a new debt item.
func (s *Summary) AddItem(item Item) {
	s.TotalItems++
	s.BySeverity[string(item.Severity)]++
	s.ByCategory[string(item.Category)]++
	s.ByFile[item.File]++
	if item.Date != nil {
		s.DatedItems++
	}
}

// Analysis is the TODO inventory of a tree.
type Analysis struct {
	Items              []Item      `json:"items" toon:"items"`
	Stale              []StaleTodo `json:"stale" toon:"stale"`
	Summary            Summary     `json:"summary" toon:"summary"`
	TotalFilesAnalyzed int         `json:"total_files_analyzed" toon:"total_files_analyzed"`
}
