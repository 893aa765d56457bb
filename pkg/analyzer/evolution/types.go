package evolution

import (
	"github.com/panbanda/chronicle/pkg/analyzer/burnout"
	"github.com/panbanda/chronicle/pkg/analyzer/churn"
	"github.com/panbanda/chronicle/pkg/analyzer/commit"
	"github.com/panbanda/chronicle/pkg/analyzer/commitgraph"
	"github.com/panbanda/chronicle/pkg/analyzer/ownership"
	"github.com/panbanda/chronicle/pkg/analyzer/risk"
	"github.com/panbanda/chronicle/pkg/analyzer/satd"
	"github.com/panbanda/chronicle/pkg/analyzer/trend"
	"github.com/panbanda/chronicle/pkg/models"
)

// Report is everything one run derives. It carries no wall-clock time.
type Report struct {
	Commits     []models.Commit                  `json:"commits" toon:"commits"`
	Graph       []commitgraph.EnrichedCommitNode `json:"graph" toon:"graph"`
	Churn       *churn.Analysis                  `json:"churn" toon:"churn"`
	Complexity  *trend.Analysis                  `json:"complexity" toon:"complexity"`
	Ownership   *ownership.Analysis              `json:"ownership" toon:"ownership"`
	Burnout     *burnout.Analysis                `json:"burnout" toon:"burnout"`
	Risk        *risk.Analysis                   `json:"risk" toon:"risk"`
	Todos       *TodoReport                      `json:"todos,omitempty" toon:"todos,omitempty"`
	Warnings    []commit.Warning                 `json:"warnings" toon:"warnings"`
	Fingerprint string                           `json:"fingerprint" toon:"fingerprint"`
}

// TodoReport is the dated TODO inventory and its stale subset.
type TodoReport struct {
	Items []models.TodoItem `json:"items" toon:"items"`
	Stale []satd.StaleTodo  `json:"stale" toon:"stale"`
}
