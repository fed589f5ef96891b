package schema

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"

	"github.com/alfredjeanlab/userassets/internal/model"
)

// sqlDenylist lists the substrings removed from string values when
// denylist stripping is on. Writes are parameterized regardless.
var sqlDenylist = []string{"'", `"`, ";", "--", "/*", "*/", "xp_", "sp_"}

// Sanitizer coerces a validated value to the Go form written to storage.
// Stripping the SQL denylist from strings alters legitimate text (a "--" in
// a bio), so it is off unless StripDenylist is set.
type Sanitizer struct {
	StripDenylist bool
}

// Sanitize coerces value for type t with denylist stripping on. It never
// fails: unparseable integers become 0 and unparseable JSON an empty object.
func Sanitize(value any, t model.AssetType) any {
	return Sanitizer{StripDenylist: true}.Sanitize(value, t)
}

// Sanitize coerces value for type t. See the package-level Sanitize.
func (s Sanitizer) Sanitize(value any, t model.AssetType) any {
	switch t {
	case model.TypeString:
		str, ok := value.(string)
		if !ok {
			return model.StringValue(value)
		}
		if s.StripDenylist {
			for _, tok := range sqlDenylist {
				str = strings.ReplaceAll(str, tok, "")
			}
		}
		return str

	case model.TypeInteger:
		if n, ok := coerceInteger(value); ok {
			return n
		}
		if f, ok := value.(float64); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int64(f)
		}
		return int64(0)

	case model.TypeBoolean:
		if str, ok := value.(string); ok {
			return model.IsTruthy(str)
		}
		return truthy(value)

	case model.TypeJSON:
		str, ok := value.(string)
		if !ok {
			return value
		}
		var out any
		if err := json.Unmarshal([]byte(str), &out); err != nil {
			return map[string]any{}
		}
		return out
	}
	return value
}

// truthy mirrors the usual truth test: false for nil, false, zero numbers
// and empty collections.
func truthy(value any) bool {
	if value == nil {
		return false
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
