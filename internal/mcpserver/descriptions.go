package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// how to interpret results, and key thresholds.

func describeChurn() string {
	return `Analyzes git history to identify files that change frequently (high churn).

USE WHEN:
- Finding unstable areas of the codebase
- Choosing where extra review or tests pay off
- Understanding where development effort goes

INTERPRETING RESULTS:
- churn_score 0.0-1.0 combines commit count (60%) and lines changed (40%) against the busiest file
- churn_score > 0.5: hotspot, listed in summary.hotspot_files
- churn_score < 0.1: stable, listed in summary.stable_files
- normalized_churn is min(10, commits / 2), the churn input to risk scoring
- Total churn is insertions plus deletions over all commits, including files later excluded

METRICS RETURNED:
- Per-file: commit_count, unique_authors, additions, deletions, churn_score, first_seen, last_modified
- Summary: totals, hotspot and stable files, mean/variance/percentiles of churn_score`
}

func describeComplexityTrends() string {
	return `Tracks per-function complexity across commits by scanning each commit's diff.

USE WHEN:
- Finding functions that keep getting more complicated
- Spotting commits that added a lot of branching at once
- Deciding what to refactor before it becomes a hotspot

INTERPRETING RESULTS:
- Complexity is 1 + decision keywords (if, for, while, case, catch) + logical operators (&&, ||)
- growth_rate is (latest - first) / number of samples
- is_increasing: more than half of consecutive samples rise; increasing_ratio is that share
- needs_refactoring: increasing and growth_rate above the threshold (default 1.5)
- insufficient_data: fewer than two samples, no trend is claimed
- complexity_changes lists per-commit refactoring candidates: increase above 5, or above 3 with deeper nesting

METRICS RETURNED:
- Trends: first/latest complexity, growth rate, slope and r_squared, needs_refactoring
- Per-commit changes: before/after complexity, nesting and line counts
- Summary: functions tracked, increasing functions, refactoring candidates

Note: detection is line-pattern based and language-agnostic; unusual declaration styles may be missed.`
}

func describeOwnershipDrift() string {
	return `Detects how ownership of each file moves between authors over time.

USE WHEN:
- Assessing knowledge concentration and bus factor
- Finding files that keep changing hands
- Planning handoffs before someone leaves

INTERPRETING RESULTS:
- A period is a run of consecutive commits to a file by one author; the last period is open
- An ownership change is a switch of author between consecutive commits
- Rapid change window: at least 3 changes within 14 days
- Stability score 0-1 weighs unique authors, ownership changes and period length; rapid changes cost 0.3
- >= 0.8 high-stability, >= 0.5 medium-stability, else low-stability
- insufficient-data: fewer than 3 commits, score is null

METRICS RETURNED:
- stability_scores with classification, ownership changes and average period length
- rapid_change_windows with the authors involved
- insights (silos, rapid churn of ownership) and a summary with bus factor`
}

func describeBurnout() string {
	return `Estimates burnout risk per author from when they commit.

USE WHEN:
- Checking whether the team works nights and weekends
- Reviewing on-call or release load
- Giving context to a risk review

INTERPRETING RESULTS:
- Off-hours defaults to 22:00-06:00 in the commit's own timezone; weekends are Saturday and Sunday
- score = 10 * (0.6 * off_hours_ratio + 0.4 * weekend_ratio)
- after_hours_ratio counts a commit once even when it is both off-hours and on a weekend
- risk_level: score >= 4 high, >= 2 medium, else low
- Authors with fewer commits than the minimum (default 5) are listed as ineligible, not scored

METRICS RETURNED:
- Per-author: commits, off-hours, weekend and after-hours ratios, score, risk_level, hour histogram
- High/medium/low author lists and repository-wide after-hours ratio`
}

func describeRisk() string {
	return `Combines churn, complexity and complexity trends into a 0-10 risk score per file, function and author.

USE WHEN:
- Prioritizing refactoring with both change frequency and difficulty in view
- Picking files that need an owner or more tests
- Preparing a technical debt review

INTERPRETING RESULTS:
- composite = churn * 0.4 + complexity * 0.6 + 2 * trend, clamped to 0-10
- trend component is the share of rising samples (0-1)
- churn component = min(10, commits / 2); complexity component = min(10, latest complexity / 5)
- classification: >= 7 high, >= 4 medium, else low
- is_refactoring_candidate requires composite >= 7, complexity above 7 and churn above 5
- ownership_component is reported alongside and does not change the composite

METRICS RETURNED:
- Scores for files, functions and authors sorted by composite descending
- Hotspot score and severity per file
- Summary counts by level and refactoring candidates`
}

func describeCommitGraph() string {
	return `Lists commits as graph nodes with churn, classification, children and pull requests.

USE WHEN:
- Reviewing recent history at a glance
- Tracing which pull request carried a change
- Finding fix commits and automated noise

INTERPRETING RESULTS:
- churn always equals insertions + deletions
- is_fix: message mentions a fix, bug, patch or crash, or closes an issue
- is_automated: dependency bumps, merges, CI, docs or style commits
- pull_requests are attached only when GitHub enrichment is configured and GITHUB_TOKEN is set

METRICS RETURNED:
- Per-commit: hash, author, timestamp, message, files, insertions, deletions, churn, parents, children
- Pull request number, title, state and merged flag`
}

func describeTodos() string {
	return `Inventories TODO-style markers in the current tree and dates them with git blame.

USE WHEN:
- Auditing technical debt markers before a release
- Finding TODOs left behind in code nobody touches anymore
- Assigning old debt to the people who wrote it

INTERPRETING RESULTS:
- Markers: TODO, FIXME, HACK, XXX, BUG and similar; severity follows the marker
- Stale: the TODO is at least 180 days old (todos.stale_days) and its file has been idle as long
- Ages are measured against the newest analyzed commit, not the wall clock

METRICS RETURNED:
- Items: file, line, marker, text, author, date
- Stale items with age and time since the file last changed`
}

func describeEvolution() string {
	return `Runs every analysis over the repository history in one pass.

USE WHEN:
- Producing a full code evolution report
- Comparing runs (the fingerprint changes only when the inputs change)
- Feeding a broad health review

INTERPRETING RESULTS:
- See the individual tools for each section
- warnings list enrichments that were unavailable (missing stats, diffs, pull requests, TODOs); the rest of the report is still valid
- fingerprint is a hash of the report; identical input and configuration give identical fingerprints

METRICS RETURNED:
- churn, complexity, ownership, burnout, risk, commit graph, todos, warnings, fingerprint`
}
