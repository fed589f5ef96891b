package model

import "time"

// ProtectionLevel grades how sensitive a protected snapshot is.
type ProtectionLevel string

const (
	LevelStandard ProtectionLevel = "standard"
	LevelHigh     ProtectionLevel = "high"
	LevelCritical ProtectionLevel = "critical"
)

// LevelForCategory returns the protection level applied to snapshots of
// assets in the given category.
func LevelForCategory(c Category) ProtectionLevel {
	switch c {
	case CategorySecurity:
		return LevelCritical
	case CategorySystem:
		return LevelHigh
	default:
		return LevelStandard
	}
}

// ProtectedAsset is a snapshot of an asset kept apart from the live table so
// it can be restored later.
type ProtectedAsset struct {
	OwnerID      int64           `json:"owner_id"`
	Name         string          `json:"asset_name"`
	Value        string          `json:"asset_value"`
	Type         AssetType       `json:"asset_type"`
	Category     Category        `json:"category"`
	Description  string          `json:"description,omitempty"`
	Protected    bool            `json:"is_protected"`
	Level        ProtectionLevel `json:"protection_level"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	LastBackupAt *time.Time      `json:"last_backup_at,omitempty"`
}

// ProtectionFilter selects protected snapshots. Zero values match everything.
type ProtectionFilter struct {
	OwnerID       int64
	UpdatedBefore *time.Time
}

// ProtectionAction names an entry in the protection log.
type ProtectionAction string

const (
	ActionProtect ProtectionAction = "PROTECT"
	ActionUpdate  ProtectionAction = "UPDATE"
	ActionRestore ProtectionAction = "RESTORE"
)

// ProtectionLog records one change to a protected snapshot.
type ProtectionLog struct {
	ID        string           `json:"id"`
	OwnerID   int64            `json:"owner_id"`
	AssetName string           `json:"asset_name"`
	Action    ProtectionAction `json:"action_type"`
	OldValue  string           `json:"old_value,omitempty"`
	NewValue  string           `json:"new_value,omitempty"`
	Status    string           `json:"protection_status,omitempty"`
	CreatedAt time.Time        `json:"timestamp"`
}

// Backup records one export of the asset tables to a destination.
type Backup struct {
	ID          string    `json:"id"`
	Destination string    `json:"destination"`
	AssetCount  int       `json:"asset_count"`
	Bytes       int       `json:"bytes"`
	CreatedAt   time.Time `json:"created_at"`
}
