// Package prompt builds upstream chat payloads from draft requests using
// system and user templates, optionally loaded from a YAML file.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/davidbz/claimrelay/internal/domain"
)

const defaultSystemTemplate = `As a USPTO patent attorney, generate a patent application draft for a {{.InventionType}} in {{.TechField}} with these key features: {{.KeyFeatures}}. Include:
1. Claims with proper USPTO numbering and dependencies
2. Technical diagrams in PlantUML format
3. Physics validation
4. Prior art avoidance flags
5. Competitor workaround analysis
6. International IP considerations`

const defaultUserTemplate = `Generate patent draft for: {{.Description}}`

// Config contains prompt and sampling settings.
type Config struct {
	File        string  `env:"PROMPT_FILE"`
	Model       string  `env:"DRAFT_MODEL"       envDefault:"deepseek-chat"`
	Temperature float64 `env:"DRAFT_TEMPERATURE" envDefault:"0.3"`
	MaxTokens   int     `env:"DRAFT_MAX_TOKENS"  envDefault:"2000"`
	TopP        float64 `env:"DRAFT_TOP_P"       envDefault:"0.9"`
}

// fileSet is the YAML prompt file layout. Zero values keep the Config value.
type fileSet struct {
	System      string   `yaml:"system"`
	User        string   `yaml:"user"`
	Model       string   `yaml:"model"`
	Temperature *float64 `yaml:"temperature"`
	MaxTokens   *int     `yaml:"max_tokens"`
	TopP        *float64 `yaml:"top_p"`
}

// Builder implements domain.PayloadBuilder.
type Builder struct {
	system      *template.Template
	user        *template.Template
	model       string
	temperature float64
	maxTokens   int
	topP        float64
}

// NewBuilder creates a builder from config, applying the prompt file if set.
func NewBuilder(cfg *Config) (*Builder, error) {
	if cfg == nil {
		return nil, errors.New("prompt config cannot be nil")
	}

	set := fileSet{
		System: defaultSystemTemplate,
		User:   defaultUserTemplate,
	}
	if cfg.File != "" {
		loaded, err := loadFile(cfg.File)
		if err != nil {
			return nil, err
		}
		set = mergeFileSet(set, loaded)
	}

	system, err := template.New("system").Option("missingkey=error").Parse(set.System)
	if err != nil {
		return nil, fmt.Errorf("failed to parse system prompt: %w", err)
	}
	user, err := template.New("user").Option("missingkey=error").Parse(set.User)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user prompt: %w", err)
	}

	b := &Builder{
		system:      system,
		user:        user,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		topP:        cfg.TopP,
	}
	if set.Model != "" {
		b.model = set.Model
	}
	if set.Temperature != nil {
		b.temperature = *set.Temperature
	}
	if set.MaxTokens != nil {
		b.maxTokens = *set.MaxTokens
	}
	if set.TopP != nil {
		b.topP = *set.TopP
	}

	if b.model == "" {
		return nil, errors.New("model is required")
	}

	return b, nil
}

// Build renders the templates for req. req is expected to be normalized.
func (b *Builder) Build(req *domain.DraftRequest) (domain.ChatPayload, error) {
	if req == nil {
		return domain.ChatPayload{}, errors.New("request cannot be nil")
	}

	system, err := render(b.system, req)
	if err != nil {
		return domain.ChatPayload{}, err
	}
	user, err := render(b.user, req)
	if err != nil {
		return domain.ChatPayload{}, err
	}

	return domain.ChatPayload{
		Model: b.model,
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: system},
			{Role: domain.RoleUser, Content: user},
		},
		Temperature: b.temperature,
		MaxTokens:   b.maxTokens,
		TopP:        b.topP,
		Stream:      false,
	}, nil
}

func render(tmpl *template.Template, req *domain.DraftRequest) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, req); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}
	return sb.String(), nil
}

func loadFile(path string) (fileSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileSet{}, fmt.Errorf("failed to read prompt file %s: %w", path, err)
	}

	var set fileSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return fileSet{}, fmt.Errorf("failed to parse prompt file %s: %w", path, err)
	}
	return set, nil
}

func mergeFileSet(base, override fileSet) fileSet {
	if strings.TrimSpace(override.System) != "" {
		base.System = override.System
	}
	if strings.TrimSpace(override.User) != "" {
		base.User = override.User
	}
	base.Model = override.Model
	base.Temperature = override.Temperature
	base.MaxTokens = override.MaxTokens
	base.TopP = override.TopP
	return base
}
