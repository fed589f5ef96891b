// Package events publishes asset change notifications to an event bus.
package events

import (
	"context"

	"github.com/alfredjeanlab/userassets/internal/model"
)

// Event topic constants
const (
	TopicAssetSet       = "assets.asset.set"
	TopicAssetDeleted   = "assets.asset.deleted"
	TopicOwnerCleared   = "assets.owner.cleared"
	TopicBatchPersisted = "assets.batch.persisted"

	TopicAssetsProtected = "assets.protection.protected"
	TopicAssetsRestored  = "assets.protection.restored"
	TopicBackupCompleted = "assets.backup.completed"

	// TopicAll matches every topic above.
	TopicAll = "assets.>"
)

// Event types

type AssetSet struct {
	Asset *model.Asset `json:"asset"`
}

type AssetDeleted struct {
	OwnerID   int64  `json:"owner_id"`
	AssetName string `json:"asset_name"`
}

type OwnerCleared struct {
	OwnerID int64 `json:"owner_id"`
	Removed int64 `json:"removed"`
}

type BatchPersisted struct {
	OwnerID int64    `json:"owner_id"`
	Fields  []string `json:"fields"` // "category.name"
}

type AssetsProtected struct {
	OwnerID   int64 `json:"owner_id"`
	Protected int   `json:"protected"`
	Refreshed int   `json:"refreshed"`
}

type AssetsRestored struct {
	OwnerID  int64 `json:"owner_id"`
	Restored int   `json:"restored"`
	Failed   int   `json:"failed"`
}

type BackupCompleted struct {
	Backup *model.Backup `json:"backup"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
