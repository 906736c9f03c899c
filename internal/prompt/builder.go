package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/kapu/creator-insight-go/internal/service/ai"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

type TemplateName string

const (
	TemplatePrimarySystem  TemplateName = "primary_system.tmpl"
	TemplatePrimaryUser    TemplateName = "primary_user.tmpl"
	TemplateCommentsSystem TemplateName = "comments_system.tmpl"
	TemplateCommentsUser   TemplateName = "comments_user.tmpl"
	TemplateNicheSystem    TemplateName = "niche_system.tmpl"
	TemplateNicheUser      TemplateName = "niche_user.tmpl"
)

var funcs = template.FuncMap{
	"join": strings.Join,
}

// PromptBuilder parses embedded templates on first use and caches them.
type PromptBuilder struct {
	mu        sync.RWMutex
	templates map[TemplateName]*template.Template
}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		templates: make(map[TemplateName]*template.Template),
	}
}

func (pb *PromptBuilder) Render(name TemplateName, data any) (string, error) {
	tmpl, err := pb.getTemplate(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}

	return strings.TrimSpace(buf.String()), nil
}

// RenderMessages renders a system/user template pair into role-tagged messages.
func (pb *PromptBuilder) RenderMessages(system, user TemplateName, systemData, userData any) ([]ai.Message, error) {
	sys, err := pb.Render(system, systemData)
	if err != nil {
		return nil, err
	}
	usr, err := pb.Render(user, userData)
	if err != nil {
		return nil, err
	}
	return []ai.Message{
		{Role: ai.RoleSystem, Content: sys},
		{Role: ai.RoleUser, Content: usr},
	}, nil
}

func (pb *PromptBuilder) getTemplate(name TemplateName) (*template.Template, error) {
	pb.mu.RLock()
	if tmpl, ok := pb.templates[name]; ok {
		pb.mu.RUnlock()
		return tmpl, nil
	}
	pb.mu.RUnlock()

	filename := filepath.ToSlash(filepath.Join("templates", string(name)))
	content, err := templateFS.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("load prompt template %s: %w", name, err)
	}

	tmpl, err := template.New(string(name)).Funcs(funcs).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
	}

	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.templates[name] = tmpl

	return tmpl, nil
}
