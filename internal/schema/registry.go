// Package schema holds the declarative attribute schema and the validator
// that checks submitted values against it.
package schema

import (
	"fmt"
	"regexp"
	"slices"
	"sync"

	"github.com/alfredjeanlab/userassets/internal/model"
)

// FieldDef is the schema contract for one attribute name within one category.
type FieldDef struct {
	Name          string          `toml:"-"`
	Type          model.AssetType `toml:"type"`
	Description   string          `toml:"description"`
	Required      bool            `toml:"required"`
	Default       any             `toml:"default"`
	MaxLength     *int            `toml:"max_length"`
	Pattern       string          `toml:"pattern"`
	AllowedValues []string        `toml:"allowed_values"`
	MinValue      *int64          `toml:"min_value"`
	MaxValue      *int64          `toml:"max_value"`

	re *regexp.Regexp
}

// MatchPattern reports whether s matches the field's pattern. The pattern is
// anchored at the start of s only; a pattern that must consume the whole
// string carries its own trailing "$". Fields without a pattern match
// everything.
func (d FieldDef) MatchPattern(s string) bool {
	if d.re == nil {
		return true
	}
	return d.re.MatchString(s)
}

// Allows reports whether s is in the allowed values. Fields without allowed
// values accept everything.
func (d FieldDef) Allows(s string) bool {
	if len(d.AllowedValues) == 0 {
		return true
	}
	return slices.Contains(d.AllowedValues, s)
}

// Definitions maps each category to its field definitions in declared order.
type Definitions map[model.Category][]FieldDef

// Registry is an immutable category -> field name -> FieldDef mapping.
type Registry struct {
	fields map[model.Category]map[string]FieldDef
	order  map[model.Category][]string
}

// New builds a registry from defs. Field types default to string and
// patterns are compiled once here; an unknown category or type, a duplicate
// field name or a pattern that does not compile fails construction.
func New(defs Definitions) (*Registry, error) {
	r := &Registry{
		fields: make(map[model.Category]map[string]FieldDef, len(defs)),
		order:  make(map[model.Category][]string, len(defs)),
	}
	for cat, list := range defs {
		if !cat.IsValid() {
			return nil, fmt.Errorf("schema: unknown category %q", cat)
		}
		byName := make(map[string]FieldDef, len(list))
		names := make([]string, 0, len(list))
		for _, d := range list {
			if d.Name == "" {
				return nil, fmt.Errorf("schema: %s: field without a name", cat)
			}
			if _, dup := byName[d.Name]; dup {
				return nil, fmt.Errorf("schema: %s.%s: duplicate field", cat, d.Name)
			}
			if d.Type == "" {
				d.Type = model.TypeString
			}
			if !d.Type.IsValid() {
				return nil, fmt.Errorf("schema: %s.%s: unknown type %q", cat, d.Name, d.Type)
			}
			if d.Pattern != "" {
				re, err := regexp.Compile(`^(?:` + d.Pattern + `)`)
				if err != nil {
					return nil, fmt.Errorf("schema: %s.%s: pattern: %w", cat, d.Name, err)
				}
				d.re = re
			}
			if d.MinValue != nil && d.MaxValue != nil && *d.MinValue > *d.MaxValue {
				return nil, fmt.Errorf("schema: %s.%s: min_value %d exceeds max_value %d", cat, d.Name, *d.MinValue, *d.MaxValue)
			}
			d.AllowedValues = slices.Clone(d.AllowedValues)
			byName[d.Name] = d
			names = append(names, d.Name)
		}
		r.fields[cat] = byName
		r.order[cat] = names
	}
	return r, nil
}

// MustNew is like New but panics on error. Use it for literal definitions.
func MustNew(defs Definitions) *Registry {
	r, err := New(defs)
	if err != nil {
		panic(err)
	}
	return r
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return MustNew(DefaultDefinitions())
})

// Default returns the built-in registry. It is built once and shared; the
// registry is read-only so sharing is safe.
func Default() *Registry {
	return defaultRegistry()
}

// Lookup returns the definition of name in category.
func (r *Registry) Lookup(category model.Category, name string) (FieldDef, bool) {
	d, ok := r.fields[category][name]
	if ok {
		d.AllowedValues = slices.Clone(d.AllowedValues)
	}
	return d, ok
}

// ExpectedType returns the declared type of name in category, or string when
// the field is not defined.
func (r *Registry) ExpectedType(category model.Category, name string) model.AssetType {
	if d, ok := r.fields[category][name]; ok {
		return d.Type
	}
	return model.TypeString
}

// Description returns the declared description of name in category.
func (r *Registry) Description(category model.Category, name string) string {
	return r.fields[category][name].Description
}

// Fields returns the definitions of category in declared order.
func (r *Registry) Fields(category model.Category) []FieldDef {
	names := r.order[category]
	out := make([]FieldDef, 0, len(names))
	for _, n := range names {
		d, _ := r.Lookup(category, n)
		out = append(out, d)
	}
	return out
}

// DefaultValue returns the declared default of name in category.
func (r *Registry) DefaultValue(category model.Category, name string) (any, bool) {
	d, ok := r.fields[category][name]
	if !ok || d.Default == nil {
		return nil, false
	}
	return d.Default, true
}
