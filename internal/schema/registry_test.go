package schema

import (
	"strings"
	"testing"

	"github.com/alfredjeanlab/userassets/internal/model"
)

func TestDefault_Fields(t *testing.T) {
	r := Default()
	for _, tc := range []struct {
		cat  model.Category
		want []string
	}{
		{model.CategoryProfile, []string{"first_name", "last_name", "email", "phone", "avatar_url", "bio", "department", "job_title"}},
		{model.CategoryPreferences, []string{"theme", "language", "timezone", "notification_level", "date_format"}},
		{model.CategorySecurity, []string{"two_factor_enabled", "two_factor_method", "password_expires_at", "login_attempts", "account_locked", "last_password_change"}},
		{model.CategorySystem, []string{"ip_address", "user_agent", "device_info", "login_count", "last_login"}},
	} {
		fields := r.Fields(tc.cat)
		if len(fields) != len(tc.want) {
			t.Fatalf("%s: %d fields, want %d", tc.cat, len(fields), len(tc.want))
		}
		for i, d := range fields {
			if d.Name != tc.want[i] {
				t.Errorf("%s field %d = %q, want %q", tc.cat, i, d.Name, tc.want[i])
			}
		}
	}
	if got := r.Fields(model.CategoryCustom); len(got) != 0 {
		t.Errorf("custom has %d fields, want none", len(got))
	}
}

func TestRegistry_ExpectedType(t *testing.T) {
	r := Default()
	for _, tc := range []struct {
		cat  model.Category
		name string
		want model.AssetType
	}{
		{model.CategorySecurity, "login_attempts", model.TypeInteger},
		{model.CategorySecurity, "two_factor_enabled", model.TypeBoolean},
		{model.CategorySystem, "device_info", model.TypeJSON},
		{model.CategoryProfile, "email", model.TypeString},
		{model.CategoryProfile, "nickname", model.TypeString},
		{model.CategoryCustom, "anything", model.TypeString},
	} {
		if got := r.ExpectedType(tc.cat, tc.name); got != tc.want {
			t.Errorf("ExpectedType(%s, %s) = %q, want %q", tc.cat, tc.name, got, tc.want)
		}
	}
}

func TestRegistry_DefaultValue(t *testing.T) {
	r := Default()
	if v, ok := r.DefaultValue(model.CategoryPreferences, "theme"); !ok || v != "light" {
		t.Errorf("theme default = %v, %v", v, ok)
	}
	if v, ok := r.DefaultValue(model.CategorySecurity, "login_attempts"); !ok || v != int64(0) {
		t.Errorf("login_attempts default = %#v, %v", v, ok)
	}
	if v, ok := r.DefaultValue(model.CategorySecurity, "two_factor_enabled"); !ok || v != false {
		t.Errorf("two_factor_enabled default = %#v, %v", v, ok)
	}
	if _, ok := r.DefaultValue(model.CategoryProfile, "email"); ok {
		t.Error("email has no default")
	}
	if _, ok := r.DefaultValue(model.CategoryProfile, "missing"); ok {
		t.Error("undefined field has a default")
	}
}

func TestRegistry_LookupCopiesAllowedValues(t *testing.T) {
	r := Default()
	d, _ := r.Lookup(model.CategoryPreferences, "theme")
	d.AllowedValues[0] = "neon"
	again, _ := r.Lookup(model.CategoryPreferences, "theme")
	if again.AllowedValues[0] != "light" {
		t.Errorf("registry mutated through Lookup: %v", again.AllowedValues)
	}
}

func TestNew_Rejects(t *testing.T) {
	for _, tc := range []struct {
		name string
		defs Definitions
		want string
	}{
		{"unknown category", Definitions{"billing": {{Name: "iban"}}}, "unknown category"},
		{"no name", Definitions{model.CategoryProfile: {{Type: model.TypeString}}}, "without a name"},
		{"duplicate", Definitions{model.CategoryProfile: {{Name: "a"}, {Name: "a"}}}, "duplicate"},
		{"bad type", Definitions{model.CategoryProfile: {{Name: "a", Type: "decimal"}}}, "unknown type"},
		{"bad pattern", Definitions{model.CategoryProfile: {{Name: "a", Pattern: "("}}}, "pattern"},
		{"min over max", Definitions{model.CategorySecurity: {{Name: "n", Type: model.TypeInteger, MinValue: int64p(5), MaxValue: int64p(1)}}}, "exceeds"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.defs)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("New() error = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestNew_DefaultsTypeToString(t *testing.T) {
	r := MustNew(Definitions{model.CategoryProfile: {{Name: "nickname"}}})
	if got := r.ExpectedType(model.CategoryProfile, "nickname"); got != model.TypeString {
		t.Errorf("type = %q, want string", got)
	}
}

func TestFieldDef_MatchPatternAnchorsStart(t *testing.T) {
	r := MustNew(Definitions{model.CategoryProfile: {{Name: "code", Pattern: `[A-Z]{2}`}}})
	d, _ := r.Lookup(model.CategoryProfile, "code")
	if !d.MatchPattern("TRxyz") {
		t.Error("prefix match rejected")
	}
	if d.MatchPattern("xTR") {
		t.Error("match not anchored at start")
	}
}

func TestDecode(t *testing.T) {
	const doc = `
[profile.nickname]
type = "string"
max_length = 12
required = true

[profile.email]
pattern = '^[^\s@]+@[^\s@]+\.[^\s@]+$'

[security.pin_attempts]
type = "integer"
min_value = 0
max_value = 3
default = 0

[preferences.theme]
allowed_values = ["light", "dark", "system"]
default = "system"
`
	r, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	fields := r.Fields(model.CategoryProfile)
	if len(fields) != 2 || fields[0].Name != "nickname" || fields[1].Name != "email" {
		t.Fatalf("profile fields = %+v", fields)
	}
	if !fields[0].Required || *fields[0].MaxLength != 12 {
		t.Errorf("nickname = %+v", fields[0])
	}
	if !fields[1].MatchPattern("a@b.co") || fields[1].MatchPattern("nope") {
		t.Error("email pattern not compiled from file")
	}

	pin, ok := r.Lookup(model.CategorySecurity, "pin_attempts")
	if !ok || pin.Type != model.TypeInteger || *pin.MaxValue != 3 {
		t.Errorf("pin_attempts = %+v", pin)
	}
	if v, _ := r.DefaultValue(model.CategorySecurity, "pin_attempts"); v != int64(0) {
		t.Errorf("pin_attempts default = %#v", v)
	}
	if v, _ := r.DefaultValue(model.CategoryPreferences, "theme"); v != "system" {
		t.Errorf("theme default = %#v", v)
	}
}

func TestDecode_UnknownKey(t *testing.T) {
	_, err := Decode(strings.NewReader("[profile.nickname]\nmaxlen = 3\n"))
	if err == nil || !strings.Contains(err.Error(), "unknown keys") {
		t.Errorf("err = %v, want unknown keys", err)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(t.TempDir() + "/absent.toml"); err == nil {
		t.Error("expected error for missing file")
	}
}
