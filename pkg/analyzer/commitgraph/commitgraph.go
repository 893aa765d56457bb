// Package commitgraph builds the per-commit nodes handed to report and
// visualization layers: each commit with its churn, classification and the
// pull requests that carried it.
package commitgraph

import (
	"regexp"
	"sort"

	"github.com/panbanda/chronicle/pkg/models"
)

// PullRequestRef is the slice of a pull request kept on a node.
type PullRequestRef struct {
	Number int    `json:"number" toon:"number"`
	Title  string `json:"title" toon:"title"`
	State  string `json:"state" toon:"state"`
	URL    string `json:"url" toon:"url"`
	Merged bool   `json:"merged" toon:"merged"`
}

// EnrichedCommitNode is one commit in the graph. Churn always equals
// Insertions + Deletions.
type EnrichedCommitNode struct {
	models.Commit
	Churn        int              `json:"churn" toon:"churn"`
	IsFix        bool             `json:"is_fix" toon:"is_fix"`
	IsAutomated  bool             `json:"is_automated" toon:"is_automated"`
	PullRequests []PullRequestRef `json:"pull_requests" toon:"pull_requests"`
	Children     []string         `json:"children" toon:"children"`
}

// Patterns to detect commits that fix defects (chronicle:ignore)
var fixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bfix(es|ed|ing)?\b`),
	regexp.MustCompile(`(?i)\bbug\b`),
	regexp.MustCompile(`(?i)\bbugfix\b`),
	regexp.MustCompile(`(?i)\bpatch(es|ed|ing)?\b`),
	regexp.MustCompile(`(?i)\bresolve[sd]?\b`),
	regexp.MustCompile(`(?i)\bclose[sd]?\s+#\d+`),
	regexp.MustCompile(`(?i)\bdefect\b`),
	regexp.MustCompile(`(?i)\bcrash(es|ed|ing)?\b`),
}

// Automated or trivial commits.
var automatedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*chore:\s*updated?\s+(image\s+)?tag`),
	regexp.MustCompile(`(?i)\[skip ci\]`),
	regexp.MustCompile(`(?i)^\s*Merge\s+(pull\s+request|branch)`),
	regexp.MustCompile(`(?i)^\s*chore\(deps\):`),
	regexp.MustCompile(`(?i)^\s*chore:\s*bump\s+version`),
	regexp.MustCompile(`(?i)^\s*ci:`),
	regexp.MustCompile(`(?i)^\s*docs?:`),
	regexp.MustCompile(`(?i)^\s*style:`),
}

// IsFixCommit reports whether a message describes a defect fix.
func IsFixCommit(message string) bool {
	return matchesAny(fixPatterns, message)
}

// IsAutomatedCommit reports whether a message looks automated or trivial.
func IsAutomatedCommit(message string) bool {
	return matchesAny(automatedPatterns, message)
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// Build returns one node per commit hash. prs may be nil. Commits without a
// hash are skipped; a duplicate hash keeps the first occurrence.
func Build(commits []models.Commit, prs []models.PRRecord) map[string]EnrichedCommitNode {
	byCommit := make(map[string][]PullRequestRef)
	for _, pr := range prs {
		ref := PullRequestRef{
			Number: pr.Number,
			Title:  pr.Title,
			State:  pr.State,
			URL:    pr.URL,
			Merged: pr.IsMerged(),
		}
		for _, h := range pr.CommitHashes {
			if containsPR(byCommit[h], pr.Number) {
				continue
			}
			byCommit[h] = append(byCommit[h], ref)
		}
	}

	graph := make(map[string]EnrichedCommitNode, len(commits))
	for _, c := range commits {
		if c.Hash == "" {
			continue
		}
		if _, seen := graph[c.Hash]; seen {
			continue
		}
		c.Normalize()

		refs := append([]PullRequestRef{}, byCommit[c.Hash]...)
		sort.Slice(refs, func(i, j int) bool { return refs[i].Number < refs[j].Number })

		graph[c.Hash] = EnrichedCommitNode{
			Commit:       c,
			Churn:        c.Insertions + c.Deletions,
			IsFix:        IsFixCommit(c.Message),
			IsAutomated:  IsAutomatedCommit(c.Message),
			PullRequests: refs,
			Children:     []string{},
		}
	}

	for hash, node := range graph {
		for _, parent := range node.Parents {
			p, ok := graph[parent]
			if !ok {
				continue
			}
			p.Children = append(p.Children, hash)
			graph[parent] = p
		}
	}
	for hash, node := range graph {
		sort.Strings(node.Children)
		graph[hash] = node
	}

	return graph
}

func containsPR(refs []PullRequestRef, number int) bool {
	for _, r := range refs {
		if r.Number == number {
			return true
		}
	}
	return false
}

// Ordered returns the nodes in chronological order.
func Ordered(graph map[string]EnrichedCommitNode) []EnrichedCommitNode {
	nodes := make([]EnrichedCommitNode, 0, len(graph))
	commits := make([]models.Commit, 0, len(graph))
	for _, n := range graph {
		commits = append(commits, n.Commit)
	}
	models.SortCommits(commits)
	for _, c := range commits {
		nodes = append(nodes, graph[c.Hash])
	}
	return nodes
}
