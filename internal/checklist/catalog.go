// Package checklist holds the static library of methodology checklists that can
// be copied into a project zone.
package checklist

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/sadopc/ctfpad/internal/project"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Checklist is one category template.
type Checklist struct {
	Key      string    `yaml:"key"`
	Name     string    `yaml:"name"`
	Sections []Section `yaml:"sections"`
}

type Section struct {
	Text  string   `yaml:"text"`
	Items []string `yaml:"items"`
}

// Items flattens the template into zone checklist items. An empty section
// selects every section.
func (c *Checklist) Items(section string) []project.ChecklistItem {
	var out []project.ChecklistItem
	for _, s := range c.Sections {
		if section != "" && s.Text != section {
			continue
		}
		for _, it := range s.Items {
			out = append(out, project.ChecklistItem{Text: it})
		}
	}
	return out
}

// Len counts the items across all sections.
func (c *Checklist) Len() int {
	n := 0
	for _, s := range c.Sections {
		n += len(s.Items)
	}
	return n
}

// Catalog is a read-only, ordered set of checklists.
type Catalog struct {
	order []string
	byKey map[string]*Checklist
}

// Parse decodes a catalog document. Duplicate keys are an error rather than a
// silent overwrite.
func Parse(data []byte) (*Catalog, error) {
	var lists []Checklist
	if err := yaml.Unmarshal(data, &lists); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{byKey: make(map[string]*Checklist, len(lists))}
	for i := range lists {
		cl := &lists[i]
		if cl.Key == "" {
			return nil, fmt.Errorf("parse catalog: entry %d has no key", i)
		}
		if _, dup := c.byKey[cl.Key]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate key %q", cl.Key)
		}
		c.byKey[cl.Key] = cl
		c.order = append(c.order, cl.Key)
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(catalogYAML)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Get returns the checklist for key, or nil.
func (c *Catalog) Get(key string) *Checklist {
	return c.byKey[key]
}

// Types lists the category keys in catalog order.
func (c *Catalog) Types() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
