// Package taxonomy maps wire-service category and priority codes onto the
// local enums. The tables are data, not code: operators override the
// embedded defaults with a YAML file, no rebuild required.
package taxonomy

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"wire-sync/internal/article"
)

//go:embed default.yaml
var defaultTablesYAML []byte

type tables struct {
	Categories map[string]string `yaml:"categories"`
	Priorities map[string]string `yaml:"priorities"`
}

type Mapper struct {
	categories map[string]article.Category
	priorities map[string]article.Priority
}

// Load builds a Mapper from the YAML file at path, or from the embedded
// default tables when path is empty. Unknown local values fail loudly:
// a broken table is a startup error, never a mid-run one.
func Load(path string) (*Mapper, error) {
	data := defaultTablesYAML
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading taxonomy tables: %w", err)
		}
	}

	var t tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing taxonomy tables: %w", err)
	}

	m := &Mapper{
		categories: make(map[string]article.Category, len(t.Categories)),
		priorities: make(map[string]article.Priority, len(t.Priorities)),
	}

	for code, name := range t.Categories {
		c := article.Category(name)
		if !validCategory(c) {
			return nil, fmt.Errorf("taxonomy: unknown category %q for code %q", name, code)
		}
		m.categories[code] = c
	}
	for code, name := range t.Priorities {
		p := article.Priority(name)
		if !validPriority(p) {
			return nil, fmt.Errorf("taxonomy: unknown priority %q for code %q", name, code)
		}
		m.priorities[code] = p
	}

	return m, nil
}

// Category maps an external category code. Total: unknown or missing codes
// return article.DefaultCategory.
func (m *Mapper) Category(code string) article.Category {
	if c, ok := m.categories[code]; ok {
		return c
	}
	return article.DefaultCategory
}

// Priority maps an external priority code. Total: unknown or missing codes
// return article.DefaultPriority.
func (m *Mapper) Priority(code string) article.Priority {
	if p, ok := m.priorities[code]; ok {
		return p
	}
	return article.DefaultPriority
}

func validCategory(c article.Category) bool {
	switch c {
	case article.CategoryGeneral, article.CategoryPolitics, article.CategoryEconomy,
		article.CategorySociety, article.CategoryWorld, article.CategoryCulture,
		article.CategorySports, article.CategoryTechnology, article.CategoryHealth,
		article.CategoryEntertainment:
		return true
	}
	return false
}

func validPriority(p article.Priority) bool {
	switch p {
	case article.PriorityFlash, article.PriorityUrgent, article.PriorityImportant,
		article.PriorityRoutine, article.PrioritySpecial, article.PriorityArchive:
		return true
	}
	return false
}
