package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// FileBase serves a Dataset held in memory. It is read-only after load and
// safe for concurrent use.
type FileBase struct {
	data Dataset
}

var _ Base = (*FileBase)(nil)

func NewFileBase(data Dataset) *FileBase {
	return &FileBase{data: data}
}

func LoadFile(path string) (*FileBase, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}
	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("decode knowledge base: %w", err)
	}
	return NewFileBase(ds), nil
}

func (b *FileBase) Dataset() Dataset {
	return b.data
}

func (b *FileBase) FindComponents(_ context.Context, name string) ([]Component, error) {
	var out []Component
	for _, c := range b.data.Components {
		if MatchName(name, c.Name) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (b *FileBase) Notes(_ context.Context, kind NoteKind, license string) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	for _, n := range b.data.Notes {
		if n.Kind != kind || n.License != license {
			continue
		}
		if _, ok := seen[n.Description]; ok {
			continue
		}
		seen[n.Description] = struct{}{}
		out = append(out, n.Description)
	}
	return out, nil
}

func (b *FileBase) ComponentsByLicense(_ context.Context, license string) ([]string, error) {
	set := make(map[string]struct{})
	for _, c := range b.data.Components {
		for _, l := range c.Licenses {
			if MatchLicense(license, l.Name) {
				set[c.Name] = struct{}{}
				break
			}
		}
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}
