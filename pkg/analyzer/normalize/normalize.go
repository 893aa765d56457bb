// Package normalize turns raw commit records into the chronologically
// ordered, deduplicated commit stream every other analyzer consumes.
package normalize

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/panbanda/chronicle/internal/logging"
	"github.com/panbanda/chronicle/pkg/models"
)

var (
	// git prints "(+)"/"(-)" markers; other producers may omit them.
	insertionsPattern = regexp.MustCompile(`(\d+) insertions?\b(?:\(\+\))?`)
	deletionsPattern  = regexp.MustCompile(`(\d+) deletions?\b(?:\(-\))?`)

	// " path/to/file.go | 12 ++++--" or " image.png | Bin 0 -> 120 bytes"
	statLinePattern = regexp.MustCompile(`^\s*(.+?)\s+\|\s+(\d+|Bin)`)
	// "12\t3\tpath" as printed by --numstat; binary files use "-".
	numstatPattern = regexp.MustCompile(`^(\d+|-)\t(\d+|-)\t(.+)$`)

	braceRenamePattern = regexp.MustCompile(`\{([^{}]*) => ([^{}]*)\}`)
)

// Normalizer converts RawCommits into Commits.
type Normalizer struct {
	logger logrus.FieldLogger
}

// Option is a functional option for configuring Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger used for skipped records.
func WithLogger(l logrus.FieldLogger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}

// New creates a new Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{logger: logging.Discard()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize parses stat text, deduplicates by hash (first occurrence wins)
// and returns commits sorted by timestamp. Commits without files are kept.
func (n *Normalizer) Normalize(raw []models.RawCommit) []models.Commit {
	seen := make(map[string]bool, len(raw))
	commits := make([]models.Commit, 0, len(raw))

	for _, rc := range raw {
		if rc.Hash == "" {
			n.logger.WithField("author", rc.Author).Warn("skipping commit without hash")
			continue
		}
		if seen[rc.Hash] {
			n.logger.WithField("hash", rc.Hash).Debug("skipping duplicate commit")
			continue
		}
		seen[rc.Hash] = true
		commits = append(commits, FromRaw(rc))
	}

	models.SortCommits(commits)
	return commits
}

// FromRaw builds a single Commit from a RawCommit.
func FromRaw(rc models.RawCommit) models.Commit {
	stat := ParseStatText(rc.StatText)

	files := stat.Files
	if len(rc.Files) > 0 {
		files = rc.Files
	}

	c := models.Commit{
		Hash:        rc.Hash,
		Author:      rc.Author,
		Email:       rc.Email,
		Timestamp:   rc.Timestamp,
		Message:     rc.Message,
		Files:       dedupe(files),
		FileChanges: stat.FileChanges,
		Insertions:  stat.Insertions,
		Deletions:   stat.Deletions,
		Parents:     append([]string(nil), rc.Parents...),
	}
	c.Normalize()
	return c
}

// ParseStatText extracts insertion/deletion totals and touched files from
// `git log --stat` or `--numstat` output. Missing patterns default to zero.
// When only numstat lines are present the totals are summed from them.
func ParseStatText(text string) models.StatSummary {
	summary := models.StatSummary{
		Files:       []string{},
		FileChanges: []models.FileChange{},
	}
	if text == "" {
		return summary
	}

	summary.Insertions = firstInt(insertionsPattern, text)
	summary.Deletions = firstInt(deletionsPattern, text)
	hasSummaryLine := insertionsPattern.MatchString(text) || deletionsPattern.MatchString(text)

	var numstatAdd, numstatDel int
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if m := numstatPattern.FindStringSubmatch(line); m != nil {
			path := ResolveRename(m[3])
			summary.Files = append(summary.Files, path)
			if m[1] == "-" || m[2] == "-" {
				continue
			}
			added, _ := strconv.Atoi(m[1])
			deleted, _ := strconv.Atoi(m[2])
			numstatAdd += added
			numstatDel += deleted
			summary.FileChanges = append(summary.FileChanges, models.FileChange{
				Path:      path,
				Additions: added,
				Deletions: deleted,
			})
			continue
		}

		if m := statLinePattern.FindStringSubmatch(line); m != nil {
			summary.Files = append(summary.Files, ResolveRename(strings.TrimSpace(m[1])))
		}
	}

	if !hasSummaryLine && len(summary.FileChanges) > 0 {
		summary.Insertions = numstatAdd
		summary.Deletions = numstatDel
	}
	summary.Files = dedupe(summary.Files)
	return summary
}

// ResolveRename maps rename notations ("old => new", "dir/{old => new}/f")
// to the destination path.
func ResolveRename(path string) string {
	if braceRenamePattern.MatchString(path) {
		path = braceRenamePattern.ReplaceAllString(path, "$2")
		return strings.ReplaceAll(path, "//", "/")
	}
	if idx := strings.Index(path, " => "); idx >= 0 {
		return strings.TrimSpace(path[idx+len(" => "):])
	}
	return path
}

func firstInt(re *regexp.Regexp, text string) int {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// dedupe removes repeated and empty paths while keeping first-seen order.
func dedupe(paths []string) []string {
	out := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// FilesOnly returns the commits that touched at least one file.
func FilesOnly(commits []models.Commit) []models.Commit {
	out := make([]models.Commit, 0, len(commits))
	for _, c := range commits {
		if c.HasFiles() {
			out = append(out, c)
		}
	}
	return out
}
