package funcdiff

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/chronicle/pkg/analyzer"
	"github.com/panbanda/chronicle/pkg/models"
)

const addedBranchDiff = `diff --git a/x.go b/x.go
index 1111111..2222222 100644
--- a/x.go
+++ b/x.go
@@ -1,3 +1,6 @@
 func f(a, b bool) int {
+	if a && b {
+		return 2
+	}
 	return 1
 }
`

const deepNestingDiff = `diff --git a/pkg/g.go b/pkg/g.go
index 1111111..2222222 100644
--- a/pkg/g.go
+++ b/pkg/g.go
@@ -10,2 +10,10 @@ package pkg
 func (s *Server) g(a, b, c, d bool, n int) {
+	if a {
+		if b {
+			for i := 0; i < n; i++ {
+				if c || d {
+				}
+			}
+		}
+	}
 }
`

func testCommit() models.Commit {
	return models.NewCommit("c1", "alice", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "change", []string{"x.go"}, 3, 0)
}

func TestDiffer_AddedBranchAndOperator(t *testing.T) {
	changes := New().Diff(testCommit(), addedBranchDiff)

	require.Len(t, changes, 1)
	c := changes[0]
	assert.Equal(t, "x.go", c.File)
	assert.Equal(t, "f", c.Function)
	assert.Equal(t, "c1", c.CommitHash)
	assert.Equal(t, "alice", c.Author)
	assert.Equal(t, 1, c.BeforeComplexity)
	assert.Equal(t, 3, c.AfterComplexity)
	assert.Equal(t, 2, c.ComplexityIncrease)
	assert.Equal(t, 1, c.NestingLevelChange)
	assert.Equal(t, 3, c.LineCountChange)
	assert.False(t, c.IsSignificantIncrease)
	assert.False(t, c.RefactoringCandidate)
}

func TestDiffer_DeepNestingFlags(t *testing.T) {
	changes := New().Diff(testCommit(), deepNestingDiff)

	require.Len(t, changes, 1)
	c := changes[0]
	assert.Equal(t, "pkg/g.go", c.File)
	assert.Equal(t, "g", c.Function)
	assert.Equal(t, 5, c.ComplexityIncrease)
	assert.Equal(t, 4, c.NestingLevelChange)
	assert.True(t, c.IsSignificantIncrease)
	assert.True(t, c.RefactoringCandidate)
}

func TestDiffer_CustomThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.SignificantIncrease = 10
	th.RefactorIncrease = 10
	th.RefactorNestedIncrease = 10

	changes := New(WithThresholds(th)).Diff(testCommit(), deepNestingDiff)
	require.Len(t, changes, 1)
	assert.False(t, changes[0].IsSignificantIncrease)
	assert.False(t, changes[0].RefactoringCandidate)
}

func TestDiffer_UnclosedFunctionDropped(t *testing.T) {
	text := `@@ -1,2 +1,3 @@
 func open() {
+	if x {
 	work()
`
	assert.Empty(t, New().Diff(testCommit(), text))
}

func TestDiffer_UnchangedFunctionSkipped(t *testing.T) {
	text := `@@ -1,6 +1,7 @@
 func same() {
 	return
 }
 func other() {
+	log()
 }
`
	changes := New().Diff(testCommit(), text)
	require.Len(t, changes, 1)
	assert.Equal(t, "other", changes[0].Function)
	assert.Equal(t, "", changes[0].File)
}

func TestDiffer_NewFunctionHasEmptyBefore(t *testing.T) {
	text := `@@ -0,0 +1,5 @@
+function handler(req) {
+  if (req.ok) {
+    return 1;
+  }
+}
`
	changes := New().Diff(testCommit(), text)
	require.Len(t, changes, 1)
	c := changes[0]
	assert.Equal(t, "handler", c.Function)
	assert.Equal(t, 0, c.BeforeComplexity)
	assert.Equal(t, 0, c.BeforeLines)
	assert.Equal(t, 2, c.AfterComplexity)
	assert.Equal(t, 2, c.AfterNesting)
}

func TestDiffer_OneLineDeclaration(t *testing.T) {
	text := `@@ -1,1 +1,1 @@
-func one() int { return 1 }
+func one() int { if ok { return 1 }; return 0 }
`
	changes := New().Diff(testCommit(), text)
	require.Len(t, changes, 1)
	assert.Equal(t, 1, changes[0].ComplexityIncrease)
}

func TestDiffer_MultipleFilesAndHunks(t *testing.T) {
	text := addedBranchDiff + `diff --git a/y.go b/y.go
index 1111111..2222222 100644
--- a/y.go
+++ b/y.go
@@ -1,3 +1,3 @@
 func h() {
-	for {
+	for x {
 }
@@ -20,2 +20,3 @@
 func k() {
+	call()
 }
`
	changes := New().Diff(testCommit(), text)
	require.Len(t, changes, 3)
	assert.Equal(t, []string{"x.go::f", "y.go::h", "y.go::k"},
		[]string{changes[0].Key(), changes[1].Key(), changes[2].Key()})
}

func TestDiffer_OneSidedClosingBrace(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		function      string
		before, after int
		increase      int
	}{
		{
			name: "removed brace then added block",
			text: "@@ -1,3 +1,6 @@\n" +
				" func f() {\n" +
				" \treturn\n" +
				"-}\n" +
				"+\tif a && b {\n" +
				"+\t\tx()\n" +
				"+\t}\n" +
				"+}\n",
			function: "f",
			before:   1,
			after:    3,
			increase: 2,
		},
		{
			name: "added brace then removed block",
			text: "@@ -1,5 +1,3 @@\n" +
				" func g() {\n" +
				"+}\n" +
				"-\tfor i := range xs {\n" +
				"-\t\tuse(i)\n" +
				"-\t}\n" +
				"-}\n",
			function: "g",
			before:   2,
			after:    1,
			increase: -1,
		},
		{
			name: "signature change on both sides",
			text: "@@ -1,3 +1,4 @@\n" +
				"-func h(a int) {\n" +
				"+func h(a, b int) {\n" +
				"+\tif b > a {\n" +
				"+\t}\n" +
				" }\n",
			function: "h",
			before:   1,
			after:    2,
			increase: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes := New().Diff(testCommit(), tt.text)
			require.Len(t, changes, 1)
			c := changes[0]
			assert.Equal(t, tt.function, c.Function)
			assert.Equal(t, tt.before, c.BeforeComplexity)
			assert.Equal(t, tt.after, c.AfterComplexity)
			assert.Equal(t, tt.increase, c.ComplexityIncrease)
		})
	}
}

func TestDiffer_LinesAfterSideClosedAreDropped(t *testing.T) {
	spans := New().ScanHunk([]string{
		" func f() {",
		"-}",
		"-\tif stale {",
		"+\tok()",
		"+}",
	})
	require.Len(t, spans, 1)
	assert.Equal(t, []string{"func f() {", "}"}, spans[0].Before)
	assert.Equal(t, []string{"func f() {", "\tok()", "}"}, spans[0].After)
}

func TestDiffer_EmptyDiff(t *testing.T) {
	assert.Empty(t, New().Diff(testCommit(), ""))
	assert.Empty(t, New().Diff(testCommit(), "   \n"))
}

func TestTransition(t *testing.T) {
	tests := []struct {
		state      State
		event      Event
		wantState  State
		wantAction Action
	}{
		{StateOutside, EventLine, StateOutside, ActionIgnore},
		{StateOutside, EventDeclaration, StateInsideFunction, ActionOpen},
		{StateOutside, EventOneLineDeclaration, StateOutside, ActionEmitOneLine},
		{StateOutside, EventClosingBrace, StateOutside, ActionIgnore},
		{StateInsideFunction, EventLine, StateInsideFunction, ActionAppend},
		{StateInsideFunction, EventDeclaration, StateInsideFunction, ActionAppend},
		{StateInsideFunction, EventClosingBrace, StateOutside, ActionAppendAndClose},
		{State(99), EventLine, State(99), ActionIgnore},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			gotState, gotAction := Transition(tt.state, tt.event)
			if gotState != tt.wantState || gotAction != tt.wantAction {
				t.Errorf("Transition(%v, %v) = (%v, %v), want (%v, %v)",
					tt.state, tt.event, gotState, gotAction, tt.wantState, tt.wantAction)
			}
		})
	}
}

func TestDeclarationName(t *testing.T) {
	d := New()
	tests := []struct {
		line   string
		want   string
		wantOK bool
	}{
		{"func Parse(s string) error {", "Parse", true},
		{"func (a *Analyzer) Close() {", "Close", true},
		{"func Map[T any](xs []T) []T {", "Map", true},
		{"export async function load(id) {", "load", true},
		{"const render = (props) => {", "render", true},
		{"  public static int compute(int a) {", "compute", true},
		{"  async fetchAll(ids) {", "fetchAll", true},
		{"if (x) {", "", false},
		{"} else if (y) {", "", false},
		{"for i := range items {", "", false},
		{"return build(a, b)", "", false},
		{"go func() {", "", false},
		{"x := compute(a)", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := d.declarationName(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComplexity(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  int
	}{
		{"empty", nil, 0},
		{"straight line", []string{"x := 1"}, 1},
		{"keywords", []string{"if a {", "for {", "while (b)", "case 1:", "} catch (e) {"}, 6},
		{"operators", []string{"if a && b || c {"}, 4},
		{"do while counts once", []string{"do {", "} while (x);"}, 2},
		{"word boundaries", []string{"notify(); format(); ifdef"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Complexity(tt.lines); got != tt.want {
				t.Errorf("Complexity() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNestingDepth(t *testing.T) {
	assert.Equal(t, 0, NestingDepth(nil))
	assert.Equal(t, 1, NestingDepth([]string{"func f() {", "}"}))
	assert.Equal(t, 3, NestingDepth([]string{"{", "{", "{", "}", "}", "}"}))
	assert.Equal(t, 1, NestingDepth([]string{"}", "}", "{"}), "depth floors at zero")
}

func TestThresholds_Validate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())

	bad := DefaultThresholds()
	bad.SignificantIncrease = -1
	assert.True(t, errors.Is(bad.Validate(), analyzer.ErrInvalidConfig))

	inverted := DefaultThresholds()
	inverted.RefactorNestedIncrease = 9
	assert.ErrorIs(t, inverted.Validate(), analyzer.ErrInvalidConfig)
}

func TestCompilePatterns(t *testing.T) {
	_, err := CompilePatterns([]string{`(`})
	assert.ErrorIs(t, err, analyzer.ErrInvalidConfig)

	_, err = CompilePatterns([]string{`^func (\w+)`})
	assert.ErrorIs(t, err, analyzer.ErrInvalidConfig)

	res, err := CompilePatterns(nil)
	require.NoError(t, err)
	assert.Len(t, res, len(DefaultDeclarationPatterns))
}
