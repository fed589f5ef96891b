// Package store defines the persistence interface for owners, assets and
// protected snapshots. Backends live in the sqlite and postgres subpackages.
package store

import (
	"context"
	"errors"

	"github.com/alfredjeanlab/userassets/internal/model"
)

// ErrIntegrity is wrapped by backend errors caused by a violated constraint
// (a missing owner, a duplicate key). Match it with errors.Is.
var ErrIntegrity = errors.New("integrity constraint violated")

// Store defines the persistence interface for user assets.
//
// Single-row reads return sql.ErrNoRows when the row does not exist.
type Store interface {
	// Owners
	CreateOwner(ctx context.Context, username string) (*model.Owner, error)
	GetOwner(ctx context.Context, id int64) (*model.Owner, error)
	GetOwnerByUsername(ctx context.Context, username string) (*model.Owner, error)
	ListOwners(ctx context.Context) ([]*model.Owner, error)
	DeleteOwner(ctx context.Context, id int64) error

	// Assets
	UpsertAsset(ctx context.Context, asset *model.Asset) error // fills CreatedAt/UpdatedAt from the stored row
	GetAsset(ctx context.Context, ownerID int64, name string) (*model.Asset, error)
	ListAssetsByCategory(ctx context.Context, ownerID int64, category model.Category) ([]*model.Asset, error)
	ListAssets(ctx context.Context, ownerID int64) ([]*model.Asset, error)
	ListAllAssets(ctx context.Context) ([]*model.Asset, error)
	DeleteAsset(ctx context.Context, ownerID int64, name string) (bool, error)
	DeleteAllAssets(ctx context.Context, ownerID int64) (int64, error)

	// Protection
	GetProtectedAsset(ctx context.Context, ownerID int64, name string) (*model.ProtectedAsset, error)
	UpsertProtectedAsset(ctx context.Context, pa *model.ProtectedAsset) error
	ListProtectedAssets(ctx context.Context, filter model.ProtectionFilter) ([]*model.ProtectedAsset, error)
	RecordProtectionLog(ctx context.Context, entry *model.ProtectionLog) error
	ListProtectionLogs(ctx context.Context, ownerID int64) ([]*model.ProtectionLog, error)

	// Backups
	RecordBackup(ctx context.Context, b *model.Backup) error
	ListBackups(ctx context.Context) ([]*model.Backup, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
