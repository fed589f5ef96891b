// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/userassets/internal/model"
	"github.com/alfredjeanlab/userassets/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateOwner(ctx context.Context, username string) (*model.Owner, error) {
	return queryCreateOwner(ctx, s.db, username)
}

func (s *PostgresStore) GetOwner(ctx context.Context, id int64) (*model.Owner, error) {
	return queryGetOwner(ctx, s.db, id)
}

func (s *PostgresStore) GetOwnerByUsername(ctx context.Context, username string) (*model.Owner, error) {
	return queryGetOwnerByUsername(ctx, s.db, username)
}

func (s *PostgresStore) ListOwners(ctx context.Context) ([]*model.Owner, error) {
	return queryListOwners(ctx, s.db)
}

func (s *PostgresStore) DeleteOwner(ctx context.Context, id int64) error {
	return queryDeleteOwner(ctx, s.db, id)
}

func (s *PostgresStore) UpsertAsset(ctx context.Context, asset *model.Asset) error {
	return queryUpsertAsset(ctx, s.db, asset)
}

func (s *PostgresStore) GetAsset(ctx context.Context, ownerID int64, name string) (*model.Asset, error) {
	return queryGetAsset(ctx, s.db, ownerID, name)
}

func (s *PostgresStore) ListAssetsByCategory(ctx context.Context, ownerID int64, category model.Category) ([]*model.Asset, error) {
	return queryListAssetsByCategory(ctx, s.db, ownerID, category)
}

func (s *PostgresStore) ListAssets(ctx context.Context, ownerID int64) ([]*model.Asset, error) {
	return queryListAssets(ctx, s.db, ownerID)
}

func (s *PostgresStore) ListAllAssets(ctx context.Context) ([]*model.Asset, error) {
	return queryListAllAssets(ctx, s.db)
}

func (s *PostgresStore) DeleteAsset(ctx context.Context, ownerID int64, name string) (bool, error) {
	return queryDeleteAsset(ctx, s.db, ownerID, name)
}

func (s *PostgresStore) DeleteAllAssets(ctx context.Context, ownerID int64) (int64, error) {
	return queryDeleteAllAssets(ctx, s.db, ownerID)
}

func (s *PostgresStore) GetProtectedAsset(ctx context.Context, ownerID int64, name string) (*model.ProtectedAsset, error) {
	return queryGetProtectedAsset(ctx, s.db, ownerID, name)
}

func (s *PostgresStore) UpsertProtectedAsset(ctx context.Context, pa *model.ProtectedAsset) error {
	return queryUpsertProtectedAsset(ctx, s.db, pa)
}

func (s *PostgresStore) ListProtectedAssets(ctx context.Context, filter model.ProtectionFilter) ([]*model.ProtectedAsset, error) {
	return queryListProtectedAssets(ctx, s.db, filter)
}

func (s *PostgresStore) RecordProtectionLog(ctx context.Context, entry *model.ProtectionLog) error {
	return queryRecordProtectionLog(ctx, s.db, entry)
}

func (s *PostgresStore) ListProtectionLogs(ctx context.Context, ownerID int64) ([]*model.ProtectionLog, error) {
	return queryListProtectionLogs(ctx, s.db, ownerID)
}

func (s *PostgresStore) RecordBackup(ctx context.Context, b *model.Backup) error {
	return queryRecordBackup(ctx, s.db, b)
}

func (s *PostgresStore) ListBackups(ctx context.Context) ([]*model.Backup, error) {
	return queryListBackups(ctx, s.db)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) CreateOwner(ctx context.Context, username string) (*model.Owner, error) {
	return queryCreateOwner(ctx, s.tx, username)
}

func (s *txStore) GetOwner(ctx context.Context, id int64) (*model.Owner, error) {
	return queryGetOwner(ctx, s.tx, id)
}

func (s *txStore) GetOwnerByUsername(ctx context.Context, username string) (*model.Owner, error) {
	return queryGetOwnerByUsername(ctx, s.tx, username)
}

func (s *txStore) ListOwners(ctx context.Context) ([]*model.Owner, error) {
	return queryListOwners(ctx, s.tx)
}

func (s *txStore) DeleteOwner(ctx context.Context, id int64) error {
	return queryDeleteOwner(ctx, s.tx, id)
}

func (s *txStore) UpsertAsset(ctx context.Context, asset *model.Asset) error {
	return queryUpsertAsset(ctx, s.tx, asset)
}

func (s *txStore) GetAsset(ctx context.Context, ownerID int64, name string) (*model.Asset, error) {
	return queryGetAsset(ctx, s.tx, ownerID, name)
}

func (s *txStore) ListAssetsByCategory(ctx context.Context, ownerID int64, category model.Category) ([]*model.Asset, error) {
	return queryListAssetsByCategory(ctx, s.tx, ownerID, category)
}

func (s *txStore) ListAssets(ctx context.Context, ownerID int64) ([]*model.Asset, error) {
	return queryListAssets(ctx, s.tx, ownerID)
}

func (s *txStore) ListAllAssets(ctx context.Context) ([]*model.Asset, error) {
	return queryListAllAssets(ctx, s.tx)
}

func (s *txStore) DeleteAsset(ctx context.Context, ownerID int64, name string) (bool, error) {
	return queryDeleteAsset(ctx, s.tx, ownerID, name)
}

func (s *txStore) DeleteAllAssets(ctx context.Context, ownerID int64) (int64, error) {
	return queryDeleteAllAssets(ctx, s.tx, ownerID)
}

func (s *txStore) GetProtectedAsset(ctx context.Context, ownerID int64, name string) (*model.ProtectedAsset, error) {
	return queryGetProtectedAsset(ctx, s.tx, ownerID, name)
}

func (s *txStore) UpsertProtectedAsset(ctx context.Context, pa *model.ProtectedAsset) error {
	return queryUpsertProtectedAsset(ctx, s.tx, pa)
}

func (s *txStore) ListProtectedAssets(ctx context.Context, filter model.ProtectionFilter) ([]*model.ProtectedAsset, error) {
	return queryListProtectedAssets(ctx, s.tx, filter)
}

func (s *txStore) RecordProtectionLog(ctx context.Context, entry *model.ProtectionLog) error {
	return queryRecordProtectionLog(ctx, s.tx, entry)
}

func (s *txStore) ListProtectionLogs(ctx context.Context, ownerID int64) ([]*model.ProtectionLog, error) {
	return queryListProtectionLogs(ctx, s.tx, ownerID)
}

func (s *txStore) RecordBackup(ctx context.Context, b *model.Backup) error {
	return queryRecordBackup(ctx, s.tx, b)
}

func (s *txStore) ListBackups(ctx context.Context) ([]*model.Backup, error) {
	return queryListBackups(ctx, s.tx)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
