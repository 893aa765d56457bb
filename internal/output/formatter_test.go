package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"yaml", FormatYAML},
		{"yml", FormatYAML},
		{"", FormatText},
		{"unknown", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormat_IsStructured(t *testing.T) {
	assert.True(t, FormatJSON.IsStructured())
	assert.True(t, FormatTOON.IsStructured())
	assert.True(t, FormatYAML.IsStructured())
	assert.False(t, FormatText.IsStructured())
	assert.False(t, FormatMarkdown.IsStructured())
}

func TestNewFormatterWithFile(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "output.json")

	f, err := NewFormatter(FormatJSON, outputPath, true)
	require.NoError(t, err)
	assert.False(t, f.Colored(), "file output is never colored")

	require.NoError(t, f.Output(map[string]int{"commits": 3}))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"commits": 3}`, string(data))
}

func TestNewFormatterInvalidPath(t *testing.T) {
	_, err := NewFormatter(FormatText, "/nonexistent/directory/file.txt", false)
	if err == nil {
		t.Error("NewFormatter() should error for invalid path")
	}
}

func TestTableRenderText(t *testing.T) {
	table := NewTable(
		"Code Churn",
		[]string{"File", "Commits"},
		[][]string{{"main.go", "12"}, {"util.go", "3"}},
		[]string{"2 files", "15"},
		nil,
	)

	var buf bytes.Buffer
	require.NoError(t, table.RenderText(&buf, false))

	out := buf.String()
	for _, want := range []string{"Code Churn", "==========", "FILE", "COMMITS", "main.go", "12", "2 files"} {
		assert.Contains(t, out, want)
	}
}

func TestTableRenderText_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTable("Stale", []string{"Location"}, nil, nil, nil).RenderText(&buf, false))
	assert.Contains(t, buf.String(), "(none)")
}

func TestTableRenderMarkdown(t *testing.T) {
	table := NewTable("Risk", []string{"Subject", "Level"}, [][]string{{"a|b.go", "high"}}, nil, nil)

	var buf bytes.Buffer
	require.NoError(t, table.RenderMarkdown(&buf))

	want := "## Risk\n\n| Subject | Level |\n| --- | --- |\n| a\\|b.go | high |\n\n"
	assert.Equal(t, want, buf.String())
}

func TestTableRenderData(t *testing.T) {
	t.Run("rows become maps", func(t *testing.T) {
		table := NewTable("", []string{"File", "Commits"}, [][]string{{"x.go", "2"}}, nil, nil)
		got := table.RenderData().([]map[string]string)
		require.Len(t, got, 1)
		assert.Equal(t, "x.go", got[0]["File"])
		assert.Equal(t, "2", got[0]["Commits"])
	})

	t.Run("wrapped data wins", func(t *testing.T) {
		data := map[string]int{"total": 7}
		table := NewTable("", []string{"A"}, [][]string{{"1"}}, nil, data)
		assert.Equal(t, data, table.RenderData())
	})
}

func TestSectionRender(t *testing.T) {
	s := &Section{
		Title:   "Summary",
		Content: "3 commits",
		Sections: []Section{
			{Title: "Details", Content: "all good"},
		},
	}

	var text bytes.Buffer
	require.NoError(t, s.RenderText(&text, false))
	assert.Equal(t, "Summary\n=======\n3 commits\n\nDetails\n-------\nall good\n", text.String())

	var md bytes.Buffer
	require.NoError(t, s.RenderMarkdown(&md))
	assert.Equal(t, "## Summary\n\n3 commits\n\n### Details\n\nall good\n\n", md.String())
}

func TestDocumentRender(t *testing.T) {
	doc := &Document{
		Title: "Report",
		Parts: []Renderable{
			&Section{Title: "One", Content: "first"},
			NewTable("Two", []string{"K"}, [][]string{{"v"}}, nil, nil),
		},
	}

	var md bytes.Buffer
	require.NoError(t, doc.RenderMarkdown(&md))
	assert.True(t, strings.HasPrefix(md.String(), "# Report\n\n## One"))
	assert.Contains(t, md.String(), "## Two")

	data := doc.RenderData().(map[string]any)
	assert.Equal(t, "Report", data["title"])
	assert.Len(t, data["sections"], 2)
}

func TestFormatterOutput_StructuredFormats(t *testing.T) {
	type record struct {
		File    string `json:"file" toon:"file" yaml:"file"`
		Commits int    `json:"commits" toon:"commits" yaml:"commits"`
	}
	table := NewTable("Churn", []string{"File"}, [][]string{{"x.go"}}, nil, []record{{File: "x.go", Commits: 3}})

	tests := []struct {
		format Format
		want   []string
	}{
		{FormatJSON, []string{`"file": "x.go"`, `"commits": 3`}},
		{FormatYAML, []string{"file: x.go", "commits: 3"}},
		{FormatTOON, []string{"x.go", "3"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			f := NewWriterFormatter(tt.format, &buf, false)
			require.NoError(t, f.Output(table))

			out := buf.String()
			assert.NotContains(t, out, "Churn", "structured output carries data, not the title")
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestFormatterOutputRaw(t *testing.T) {
	data := map[string]string{"key": "value"}

	t.Run("text falls back to json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewWriterFormatter(FormatText, &buf, false).Output(data))
		var got map[string]string
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, data, got)
	})

	t.Run("markdown fences json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewWriterFormatter(FormatMarkdown, &buf, false).Output(data))
		assert.True(t, strings.HasPrefix(buf.String(), "```json\n"))
		assert.True(t, strings.HasSuffix(buf.String(), "```\n"))
	})
}

func TestFormatterMessageMethods(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatText, &buf, false)

	f.Success("done %d", 1)
	f.Warning("careful")
	f.Error("broken")
	f.Info("fyi")

	assert.Equal(t, "done 1\nWARNING: careful\nERROR: broken\nfyi\n", buf.String())
}

func TestSeverityColor(t *testing.T) {
	// color output is disabled when stdout is not a terminal
	for _, sev := range []string{"high", "medium", "low", "low-stability", "other"} {
		assert.Contains(t, SeverityColor(sev, "text"), "text")
	}
}
