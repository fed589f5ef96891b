package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EncodeValue converts v to the text stored on disk for an asset of type t:
// JSON for json, "true"/"false" for boolean, decimal for integer and the
// UTF-8 string form otherwise.
func EncodeValue(v any, t AssetType) (string, error) {
	switch t {
	case TypeJSON:
		switch x := v.(type) {
		case string:
			return x, nil
		case json.RawMessage:
			return string(x), nil
		}
		var sb strings.Builder
		enc := json.NewEncoder(&sb)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return "", fmt.Errorf("encode json value: %w", err)
		}
		return strings.TrimSuffix(sb.String(), "\n"), nil
	case TypeBoolean:
		if b, ok := v.(bool); ok {
			return strconv.FormatBool(b), nil
		}
		return StringValue(v), nil
	default:
		return StringValue(v), nil
	}
}

// DecodeValue converts stored text back to a Go value for type t: int64 for
// integer, bool for boolean, the decoded structure for json and the text
// itself for everything else. Text that does not parse is returned as-is.
func DecodeValue(s string, t AssetType) any {
	switch t {
	case TypeInteger:
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return n
		}
	case TypeBoolean:
		return IsTruthy(s)
	case TypeJSON:
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}
	return s
}

// Typed returns the asset value decoded according to its type.
func (a *Asset) Typed() any {
	return DecodeValue(a.Value, a.Type)
}

// IsTruthy reports whether s is one of "true", "1", "yes", "on"
// (case-insensitive).
func IsTruthy(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// StringValue returns the plain string form of v used when a non-string
// value is stored or validated as a string.
func StringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}
