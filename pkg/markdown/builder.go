// Package markdown assembles multi-section markdown documents.
package markdown

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var escapes = strings.NewReplacer(`\n`, "\n", `\t`, "\t")

// Builder is an ordered list of rendered sections.
type Builder struct {
	title    string
	sections []string
}

func NewBuilder(title string) *Builder {
	return &Builder{title: title}
}

// AddSection stores content under an optional H1 title. Literal \n and \t
// escape sequences are decoded. The section is inserted at position when
// 0 <= position < Len(), appended otherwise. Returns the section index.
func (b *Builder) AddSection(content, title string, position int) int {
	content = escapes.Replace(content)

	section := content + "\n\n"
	if title != "" {
		section = "# " + title + "\n\n" + section
	}

	if position >= 0 && position < len(b.sections) {
		b.sections = append(b.sections, "")
		copy(b.sections[position+1:], b.sections[position:])
		b.sections[position] = section
		return position
	}
	b.sections = append(b.sections, section)
	return len(b.sections) - 1
}

// Append is AddSection at the end.
func (b *Builder) Append(content, title string) int {
	return b.AddSection(content, title, -1)
}

// FindSectionIndexByTitle returns -1 when no section starts with the title.
func (b *Builder) FindSectionIndexByTitle(title string) int {
	if title == "" {
		return -1
	}
	prefix := "# " + title + "\n\n"
	for i, s := range b.sections {
		if strings.HasPrefix(s, prefix) {
			return i
		}
	}
	return -1
}

func (b *Builder) RemoveSection(i int) bool {
	if i < 0 || i >= len(b.sections) {
		return false
	}
	b.sections = append(b.sections[:i], b.sections[i+1:]...)
	return true
}

func (b *Builder) MoveSection(from, to int) bool {
	n := len(b.sections)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	s := b.sections[from]
	b.sections = append(b.sections[:from], b.sections[from+1:]...)
	b.sections = append(b.sections, "")
	copy(b.sections[to+1:], b.sections[to:])
	b.sections[to] = s
	return true
}

// Section returns the rendered section at i.
func (b *Builder) Section(i int) (string, bool) {
	if i < 0 || i >= len(b.sections) {
		return "", false
	}
	return b.sections[i], true
}

func (b *Builder) Len() int {
	return len(b.sections)
}

func (b *Builder) Build() string {
	var sb strings.Builder
	if b.title != "" {
		sb.WriteString("# " + b.title + "\n\n")
	}
	for _, s := range b.sections {
		sb.WriteString(s)
	}
	return sb.String()
}

// Save writes the built document, creating parent directories.
func (b *Builder) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(b.Build()), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
