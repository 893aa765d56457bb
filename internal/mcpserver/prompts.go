package mcpserver

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"path"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"

	"github.com/panbanda/chronicle/internal/service/analysis"
)

//go:embed prompts/*.md
var promptFiles embed.FS

// promptArgument is an argument declared in a prompt's frontmatter and
// substituted into its body as {{.name}}.
type promptArgument struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Default     string `yaml:"default"`
	Required    bool   `yaml:"required"`
}

type promptFrontmatter struct {
	Description string           `yaml:"description"`
	Arguments   []promptArgument `yaml:"arguments"`
}

// workflowPrompt is an embedded analysis workflow rendered per request.
type workflowPrompt struct {
	name string
	meta promptFrontmatter
	body *template.Template
}

func loadPrompts() ([]workflowPrompt, error) {
	entries, err := promptFiles.ReadDir("prompts")
	if err != nil {
		return nil, err
	}

	var prompts []workflowPrompt
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		content, err := promptFiles.ReadFile(path.Join("prompts", entry.Name()))
		if err != nil {
			return nil, err
		}
		p, err := parsePrompt(strings.TrimSuffix(entry.Name(), ".md"), content)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, nil
}

func parsePrompt(name string, content []byte) (workflowPrompt, error) {
	meta, body, err := parseFrontmatter(content)
	if err != nil {
		return workflowPrompt{}, fmt.Errorf("prompt %s: %w", name, err)
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(body)
	if err != nil {
		return workflowPrompt{}, fmt.Errorf("prompt %s: %w", name, err)
	}
	return workflowPrompt{name: name, meta: meta, body: tmpl}, nil
}

// parseFrontmatter splits "---\n<yaml>\n---\n<body>". Content without a
// complete frontmatter block is all body.
func parseFrontmatter(content []byte) (promptFrontmatter, string, error) {
	var meta promptFrontmatter
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return meta, string(content), nil
	}

	rest := content[4:]
	end := bytes.Index(rest, []byte("\n---\n"))
	if end == -1 {
		return meta, string(content), nil
	}
	if err := yaml.Unmarshal(rest[:end], &meta); err != nil {
		return meta, "", fmt.Errorf("frontmatter: %w", err)
	}
	return meta, strings.TrimPrefix(string(rest[end+5:]), "\n"), nil
}

func (p workflowPrompt) definition() *mcp.Prompt {
	args := make([]*mcp.PromptArgument, 0, len(p.meta.Arguments))
	for _, a := range p.meta.Arguments {
		args = append(args, &mcp.PromptArgument{
			Name:        a.Name,
			Description: a.Description,
			Required:    a.Required,
		})
	}
	return &mcp.Prompt{
		Name:        p.name,
		Description: p.meta.Description,
		Arguments:   args,
	}
}

// render fills the body. An argument left empty falls back to its
// frontmatter default, then to the server default.
func (p workflowPrompt) render(given, defaults map[string]string) (string, error) {
	values := make(map[string]string, len(p.meta.Arguments))
	for _, a := range p.meta.Arguments {
		v := strings.TrimSpace(given[a.Name])
		if v == "" {
			v = a.Default
		}
		if v == "" {
			v = defaults[a.Name]
		}
		if v == "" && a.Required {
			return "", fmt.Errorf("prompt %s: argument %q is required", p.name, a.Name)
		}
		if err := checkArgument(a.Name, v); err != nil {
			return "", fmt.Errorf("prompt %s: %w", p.name, err)
		}
		values[a.Name] = v
	}

	var buf bytes.Buffer
	if err := p.body.Execute(&buf, values); err != nil {
		return "", fmt.Errorf("prompt %s: %w", p.name, err)
	}
	return buf.String(), nil
}

func checkArgument(name, value string) error {
	switch name {
	case "since":
		_, err := analysis.ParseSince(value, time.Now())
		return err
	case "top":
		if n, err := strconv.Atoi(value); err != nil || n <= 0 {
			return fmt.Errorf("invalid top %q: want a positive integer", value)
		}
	}
	return nil
}

// promptDefaults derives argument defaults from the server configuration.
func (s *Server) promptDefaults() map[string]string {
	defaults := map[string]string{
		"path": ".",
		"top":  strconv.Itoa(defaultTop),
	}
	if s.config != nil && s.config.History.SinceDays > 0 {
		defaults["since"] = fmt.Sprintf("%dd", s.config.History.SinceDays)
	}
	return defaults
}

func (s *Server) registerPrompts() {
	prompts, err := loadPrompts()
	if err != nil {
		s.logger.WithError(err).Error("prompts not registered")
		return
	}
	for _, p := range prompts {
		s.server.AddPrompt(p.definition(), s.promptHandler(p))
	}
}

func (s *Server) promptHandler(p workflowPrompt) mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		var given map[string]string
		if req != nil && req.Params != nil {
			given = req.Params.Arguments
		}
		text, err := p.render(given, s.promptDefaults())
		if err != nil {
			return nil, err
		}
		return &mcp.GetPromptResult{
			Description: p.meta.Description,
			Messages: []*mcp.PromptMessage{
				{
					Role:    "user",
					Content: &mcp.TextContent{Text: text},
				},
			},
		}, nil
	}
}

// PromptNames lists the embedded workflow prompts.
func PromptNames() []string {
	prompts, err := loadPrompts()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(prompts))
	for _, p := range prompts {
		names = append(names, p.name)
	}
	return names
}
