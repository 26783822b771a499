package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var templateFS embed.FS

const (
	Classification   = "classification"
	Evaluation       = "evaluation"
	Integrity        = "integrity"
	Question         = "question"
	Report           = "report"
	DocumentAnalysis = "document_analysis"
	Introduction     = "introduction"
)

// Template is one agent prompt as stored in templates/<name>.yaml.
type Template struct {
	System      string  `yaml:"system"`
	User        string  `yaml:"user"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	JSON        bool    `yaml:"json"`

	user *template.Template
}

// Rendered is a prompt ready to send.
type Rendered struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
	JSON        bool
}

type Manager struct {
	templates map[string]*Template
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"inc":  func(i int) int { return i + 1 },
}

// NewManager loads and compiles every embedded template.
func NewManager() (*Manager, error) {
	m := &Manager{templates: make(map[string]*Template)}

	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read templates directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := templateFS.ReadFile("templates/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", entry.Name(), err)
		}

		var t Template
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", entry.Name(), err)
		}
		name := strings.TrimSuffix(entry.Name(), ".yaml")
		t.user, err = template.New(name).Funcs(funcs).Option("missingkey=error").Parse(t.User)
		if err != nil {
			return nil, fmt.Errorf("compile template %s: %w", name, err)
		}
		m.templates[name] = &t
	}
	return m, nil
}

// Render executes the named template with data.
func (m *Manager) Render(name string, data any) (*Rendered, error) {
	t, ok := m.templates[name]
	if !ok {
		return nil, fmt.Errorf("template not found: %s", name)
	}
	var buf bytes.Buffer
	if err := t.user.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render template %s: %w", name, err)
	}
	return &Rendered{
		System:      strings.TrimSpace(t.System),
		Prompt:      strings.TrimSpace(buf.String()),
		Temperature: t.Temperature,
		MaxTokens:   t.MaxTokens,
		JSON:        t.JSON,
	}, nil
}

func (m *Manager) Names() []string {
	out := make([]string, 0, len(m.templates))
	for name := range m.templates {
		out = append(out, name)
	}
	return out
}
