package schema

import "github.com/alfredjeanlab/userassets/internal/model"

func intp(n int) *int       { return &n }
func int64p(n int64) *int64 { return &n }

const (
	emailPattern = `^[^\s@]+@[^\s@]+\.[^\s@]+$`
	ipPattern    = `^(\d{1,3}\.){3}\d{1,3}$|^([0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}$`
)

// DefaultDefinitions returns the built-in field definitions. Each call
// returns a fresh value that callers may modify before passing it to New.
func DefaultDefinitions() Definitions {
	return Definitions{
		model.CategoryProfile: {
			{Name: "first_name", Type: model.TypeString, Description: "First name", MaxLength: intp(100)},
			{Name: "last_name", Type: model.TypeString, Description: "Last name", MaxLength: intp(100)},
			{Name: "email", Type: model.TypeString, Description: "Email address", MaxLength: intp(255), Pattern: emailPattern},
			{Name: "phone", Type: model.TypeString, Description: "Phone number", MaxLength: intp(20)},
			{Name: "avatar_url", Type: model.TypeString, Description: "Avatar URL", MaxLength: intp(500)},
			{Name: "bio", Type: model.TypeString, Description: "Biography", MaxLength: intp(1000)},
			{Name: "department", Type: model.TypeString, Description: "Department", MaxLength: intp(100)},
			{Name: "job_title", Type: model.TypeString, Description: "Job title", MaxLength: intp(100)},
		},
		model.CategoryPreferences: {
			{Name: "theme", Type: model.TypeString, Description: "Theme (light/dark)", Default: "light", AllowedValues: []string{"light", "dark"}},
			{Name: "language", Type: model.TypeString, Description: "Language", Default: "tr_TR", MaxLength: intp(10)},
			{Name: "timezone", Type: model.TypeString, Description: "Time zone", Default: "Europe/Istanbul", MaxLength: intp(50)},
			{Name: "notification_level", Type: model.TypeString, Description: "Notification level", Default: "medium", AllowedValues: []string{"low", "medium", "high"}},
			{Name: "date_format", Type: model.TypeString, Description: "Date format", Default: "DD/MM/YYYY", MaxLength: intp(20)},
		},
		model.CategorySecurity: {
			{Name: "two_factor_enabled", Type: model.TypeBoolean, Description: "Two-factor authentication enabled", Default: false},
			{Name: "two_factor_method", Type: model.TypeString, Description: "Two-factor method (sms/email/app)", AllowedValues: []string{"sms", "email", "app"}},
			{Name: "password_expires_at", Type: model.TypeString, Description: "Password expiry date", MaxLength: intp(50)},
			{Name: "login_attempts", Type: model.TypeInteger, Description: "Failed login counter", Default: int64(0), MinValue: int64p(0), MaxValue: int64p(10)},
			{Name: "account_locked", Type: model.TypeBoolean, Description: "Account locked", Default: false},
			{Name: "last_password_change", Type: model.TypeString, Description: "Last password change", MaxLength: intp(50)},
		},
		model.CategorySystem: {
			{Name: "ip_address", Type: model.TypeString, Description: "Last connection IP", MaxLength: intp(45), Pattern: ipPattern},
			{Name: "user_agent", Type: model.TypeString, Description: "User agent", MaxLength: intp(500)},
			{Name: "device_info", Type: model.TypeJSON, Description: "Device information"},
			{Name: "login_count", Type: model.TypeInteger, Description: "Total login count", Default: int64(0), MinValue: int64p(0)},
			{Name: "last_login", Type: model.TypeString, Description: "Last login date", MaxLength: intp(50)},
		},
	}
}
