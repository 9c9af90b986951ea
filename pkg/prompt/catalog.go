// Package prompt loads the named prompts used by the assistant and the
// analysis pipeline.
package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultCatalog []byte

var ErrUnknownPrompt = errors.New("unknown prompt")

type phaseGuide struct {
	Guidance string `yaml:"guidance"`
}

type Catalog struct {
	SystemText string                `yaml:"system"`
	Retry      string                `yaml:"retry"`
	Phases     map[string]phaseGuide `yaml:"phases"`
	Prompts    map[string]string     `yaml:"prompts"`
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded prompt catalog: %v", err))
	}
	return c
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse prompt catalog: %w", err)
	}
	if c.Prompts == nil {
		c.Prompts = make(map[string]string)
	}
	return &c, nil
}

// Load reads a catalog file and overlays it on the embedded defaults, so an
// override file only needs the entries it changes.
func Load(path string) (*Catalog, error) {
	base := Default()
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt catalog: %w", err)
	}
	override, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if override.SystemText != "" {
		base.SystemText = override.SystemText
	}
	if override.Retry != "" {
		base.Retry = override.Retry
	}
	for k, v := range override.Phases {
		base.Phases[k] = v
	}
	for k, v := range override.Prompts {
		base.Prompts[k] = v
	}
	return base, nil
}

func (c *Catalog) Get(name string) (string, error) {
	p, ok := c.Prompts[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPrompt, name)
	}
	return strings.TrimSpace(p), nil
}

// System builds the classifier system prompt for a phase tag.
func (c *Catalog) System(phase string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(c.SystemText))
	if g, ok := c.Phases[phase]; ok && g.Guidance != "" {
		b.WriteString("\n\nCurrent step (")
		b.WriteString(phase)
		b.WriteString("):\n")
		b.WriteString(strings.TrimSpace(g.Guidance))
	}
	return b.String()
}

func (c *Catalog) RetryText() string {
	if c.Retry == "" {
		return "Please provide ONLY the exact JSON object as required, no extra text."
	}
	return c.Retry
}
