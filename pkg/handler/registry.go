package handler

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrUnknownSection = errors.New("unknown chapter section")

type sectionEntry struct {
	once  sync.Once
	build func(*Deps) Section
	value Section
}

// Registry memoizes the shared chapter sections. One registry serves every
// session of the process.
type Registry struct {
	deps    *Deps
	entries map[string]*sectionEntry
}

func NewRegistry(deps *Deps) *Registry {
	r := &Registry{deps: deps, entries: make(map[string]*sectionEntry)}
	for name, build := range sectionBuilders {
		r.entries[name] = &sectionEntry{build: build}
	}
	return r
}

// Section returns the shared instance, building it on first use.
func (r *Registry) Section(name string) (Section, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSection, name)
	}
	e.once.Do(func() { e.value = e.build(r.deps) })
	return e.value, nil
}

// MustSection is for the fixed section lists of the chapter handlers.
func (r *Registry) MustSection(name string) Section {
	s, err := r.Section(name)
	if err != nil {
		panic(err)
	}
	return s
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.entries))
	for name := range r.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
