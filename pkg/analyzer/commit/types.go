package commit

// Source names the collaborator a warning came from.
type Source string

const (
	SourceStats        Source = "stats"
	SourceDiff         Source = "diff"
	SourcePullRequests Source = "pull_requests"
	SourceTodos        Source = "todos"
)

// Warning records an enrichment that was skipped because a collaborator
// failed. The run continues with partial data.
type Warning struct {
	Hash    string `json:"hash,omitempty" toon:"hash,omitempty"`
	Source  Source `json:"source" toon:"source"`
	Message string `json:"message" toon:"message"`
}
