package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alfredjeanlab/userassets/internal/model"
)

// Validator checks submitted values against a Registry.
type Validator struct {
	registry *Registry
}

// NewValidator returns a validator for r. A nil registry selects Default().
func NewValidator(r *Registry) *Validator {
	if r == nil {
		r = Default()
	}
	return &Validator{registry: r}
}

// Registry returns the registry the validator checks against.
func (v *Validator) Registry() *Registry {
	return v.registry
}

// Validate checks value for name in category. declared is the caller's type
// tag and may be empty. It returns nil on success or a *model.FieldError
// whose Code names the violated constraint.
func (v *Validator) Validate(category model.Category, name string, value any, declared model.AssetType) error {
	fail := func(code model.ErrorCode, format string, args ...any) error {
		return &model.FieldError{Category: category, Field: name, Code: code, Message: fmt.Sprintf(format, args...)}
	}

	if !category.IsValid() {
		return fail(model.CodeInvalidCategory, "invalid category: %s", category)
	}

	def, defined := v.registry.Lookup(category, name)
	if !defined && !category.SchemaExempt() {
		return fail(model.CodeUnknownField, "field %q is not defined in the %s schema", name, category)
	}

	expected := model.TypeString
	switch {
	case defined:
		expected = def.Type
	case declared != "":
		expected = declared
	}
	if declared != "" && !declared.IsValid() {
		return fail(model.CodeTypeMismatch, "unknown type %s", declared)
	}
	if declared != "" && declared != expected {
		return fail(model.CodeTypeMismatch, "expected type %s, got %s", expected, declared)
	}

	var resolved any
	switch expected {
	case model.TypeInteger:
		n, ok := coerceInteger(value)
		if !ok {
			return fail(model.CodeNotAnInteger, "integer expected, got %s", describe(value))
		}
		if def.MinValue != nil && n < *def.MinValue {
			return fail(model.CodeOutOfRange, "value must be at least %d", *def.MinValue)
		}
		if def.MaxValue != nil && n > *def.MaxValue {
			return fail(model.CodeOutOfRange, "value must be at most %d", *def.MaxValue)
		}
		resolved = n

	case model.TypeBoolean:
		b, ok := coerceBoolean(value)
		if !ok {
			return fail(model.CodeNotABoolean, "boolean expected, got %s", describe(value))
		}
		resolved = b

	case model.TypeString:
		s := model.StringValue(value)
		if def.MaxLength != nil && utf8.RuneCountInString(s) > *def.MaxLength {
			return fail(model.CodeTooLong, "string length must be at most %d characters", *def.MaxLength)
		}
		if !def.MatchPattern(s) {
			return fail(model.CodePatternMismatch, "value does not match pattern %s", def.Pattern)
		}
		if !def.Allows(s) {
			return fail(model.CodeNotAllowed, "value must be one of %v", def.AllowedValues)
		}
		if value == nil {
			resolved = nil
		} else {
			resolved = s
		}

	case model.TypeJSON:
		if err := checkJSON(value); err != nil {
			return fail(model.CodeInvalidJSON, "%v", err)
		}
		resolved = value

	default:
		resolved = value
	}

	if def.Required && (resolved == nil || resolved == "") {
		return fail(model.CodeRequiredFieldEmpty, "field %s is required", name)
	}
	return nil
}

// ValidateBatch validates every field of b and collects all failures rather
// than stopping at the first. Known categories are visited in registry order,
// fields in submission order, each checked against its declared type (string
// when undefined). Unknown categories each add one InvalidCategory error and
// their fields are skipped. It returns nil or a *model.ValidationError.
func (v *Validator) ValidateBatch(b model.Batch) error {
	var ve model.ValidationError
	for _, cat := range model.Categories() {
		fields, ok := b.Group(cat)
		if !ok {
			continue
		}
		for _, f := range fields {
			err := v.Validate(cat, f.Name, f.Value, v.registry.ExpectedType(cat, f.Name))
			if fe, ok := err.(*model.FieldError); ok {
				ve.Errors = append(ve.Errors, *fe)
			}
		}
	}
	for _, g := range b {
		if !g.Category.IsValid() {
			ve.Errors = append(ve.Errors, model.FieldError{
				Category: g.Category,
				Code:     model.CodeInvalidCategory,
				Message:  fmt.Sprintf("invalid category: %s", g.Category),
			})
		}
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// coerceInteger accepts Go integers, integral floats (decoded JSON numbers),
// json.Number and numeric strings.
func coerceInteger(value any) (int64, bool) {
	switch x := value.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return uintToInt64(uint64(x))
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return uintToInt64(x)
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || x > math.MaxInt64 || x < math.MinInt64 {
			return 0, false
		}
		return int64(x), true
	case json.Number:
		n, err := x.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func uintToInt64(u uint64) (int64, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}

// coerceBoolean accepts bool and any string; strings are true when they are
// in the truthy set.
func coerceBoolean(value any) (bool, bool) {
	switch x := value.(type) {
	case bool:
		return x, true
	case string:
		return model.IsTruthy(x), true
	}
	return false, false
}

func checkJSON(value any) error {
	switch x := value.(type) {
	case string:
		var out any
		if err := json.Unmarshal([]byte(x), &out); err != nil {
			return fmt.Errorf("invalid JSON: %v", err)
		}
		return nil
	case json.RawMessage:
		if !json.Valid(x) {
			return fmt.Errorf("invalid JSON: malformed raw message")
		}
		return nil
	case map[string]any, []any:
		return nil
	}
	return fmt.Errorf("JSON expected (object, array or string), got %s", describe(value))
}

func describe(value any) string {
	if value == nil {
		return "null"
	}
	if s, ok := value.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprintf("%T", value)
}
