package schema

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/alfredjeanlab/userassets/internal/model"
)

// LoadFile reads a TOML schema file and builds a registry from it. Each
// table is one field, keyed by category and field name:
//
//	[profile.email]
//	type = "string"
//	max_length = 255
//	pattern = '^[^\s@]+@[^\s@]+\.[^\s@]+$'
//
// Fields keep the order in which they appear in the file.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("schema: open %s: %w", path, err)
	}
	defer f.Close()
	r, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("schema: %s: %w", path, err)
	}
	return r, nil
}

// Decode parses a TOML schema document. See LoadFile for the format.
func Decode(r io.Reader) (*Registry, error) {
	var raw map[string]map[string]FieldDef
	md, err := toml.NewDecoder(r).Decode(&raw)
	if err != nil {
		return nil, fmt.Errorf("decode toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	defs := make(Definitions, len(raw))
	for _, key := range md.Keys() {
		if len(key) != 2 {
			continue
		}
		cat, name := model.Category(key[0]), key[1]
		d := raw[key[0]][name]
		d.Name = name
		defs[cat] = append(defs[cat], d)
	}
	for cat := range raw {
		if _, ok := defs[model.Category(cat)]; !ok {
			defs[model.Category(cat)] = nil
		}
	}
	return New(defs)
}
