package model

import "time"

// Category is the namespace an asset belongs to. It decides whether the
// schema registry is enforced for the asset's name.
type Category string

const (
	CategoryProfile     Category = "profile"
	CategoryPreferences Category = "preferences"
	CategorySecurity    Category = "security"
	CategorySystem      Category = "system"
	CategoryCustom      Category = "custom"
)

// Categories returns every known category in registry order. Every ordered
// iteration over categories (batch validation, get-all, status) uses it.
func Categories() []Category {
	return []Category{
		CategoryProfile,
		CategoryPreferences,
		CategorySecurity,
		CategorySystem,
		CategoryCustom,
	}
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryProfile, CategoryPreferences, CategorySecurity, CategorySystem, CategoryCustom:
		return true
	}
	return false
}

// SchemaExempt reports whether any field name is accepted for c without a
// matching field definition.
func (c Category) SchemaExempt() bool {
	return c == CategoryCustom
}

// AssetType tags the semantic type of a stored value.
type AssetType string

const (
	TypeString  AssetType = "string"
	TypeInteger AssetType = "integer"
	TypeBoolean AssetType = "boolean"
	TypeJSON    AssetType = "json"
	TypeBinary  AssetType = "binary"
	TypeFile    AssetType = "file"
)

// AssetTypes returns the closed set of value-kind tags.
func AssetTypes() []AssetType {
	return []AssetType{TypeString, TypeInteger, TypeBoolean, TypeJSON, TypeBinary, TypeFile}
}

// IsValid reports whether t is one of the known asset types.
func (t AssetType) IsValid() bool {
	switch t {
	case TypeString, TypeInteger, TypeBoolean, TypeJSON, TypeBinary, TypeFile:
		return true
	}
	return false
}

// OrString returns t, or TypeString when t is not a known type tag.
func (t AssetType) OrString() AssetType {
	if t.IsValid() {
		return t
	}
	return TypeString
}

// Asset is a named, typed, categorized value owned by a single owner.
// (OwnerID, Name) is unique.
type Asset struct {
	OwnerID     int64     `json:"owner_id"`
	Name        string    `json:"asset_name"`
	Value       string    `json:"asset_value"` // on-disk text form
	Type        AssetType `json:"asset_type"`
	Category    Category  `json:"category"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AssetList is a name-ordered collection of assets within one category.
type AssetList []*Asset

// Get returns the asset with the given name, or nil.
func (l AssetList) Get(name string) *Asset {
	for _, a := range l {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Names returns the asset names in list order.
func (l AssetList) Names() []string {
	names := make([]string, len(l))
	for i, a := range l {
		names[i] = a.Name
	}
	return names
}
