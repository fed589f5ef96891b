package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/alfredjeanlab/userassets/internal/model"
)

const assetColumns = `owner_id, asset_name, asset_value, asset_type, category, description, created_at, updated_at`

const protectedColumns = `owner_id, asset_name, asset_value, asset_type, category, description,
	is_protected, protection_level, created_at, updated_at, last_backup_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ops holds the queries shared by SQLiteStore and txStore.
type ops struct {
	db executor
}

func (o ops) CreateOwner(ctx context.Context, username string) (*model.Owner, error) {
	now := time.Now().UTC()
	var id int64
	err := o.db.QueryRowContext(ctx,
		`INSERT INTO owners (username, created_at) VALUES (?, ?) RETURNING id`,
		username, formatTime(now),
	).Scan(&id)
	if err != nil {
		return nil, classify("create owner", err)
	}
	return &model.Owner{ID: id, Username: username, CreatedAt: now}, nil
}

func (o ops) GetOwner(ctx context.Context, id int64) (*model.Owner, error) {
	row := o.db.QueryRowContext(ctx, `SELECT id, username, created_at FROM owners WHERE id = ?`, id)
	return scanOwner(row)
}

func (o ops) GetOwnerByUsername(ctx context.Context, username string) (*model.Owner, error) {
	row := o.db.QueryRowContext(ctx, `SELECT id, username, created_at FROM owners WHERE username = ?`, username)
	return scanOwner(row)
}

func (o ops) ListOwners(ctx context.Context) ([]*model.Owner, error) {
	rows, err := o.db.QueryContext(ctx, `SELECT id, username, created_at FROM owners ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Owner
	for rows.Next() {
		ow, err := scanOwner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ow)
	}
	return out, rows.Err()
}

func (o ops) DeleteOwner(ctx context.Context, id int64) error {
	res, err := o.db.ExecContext(ctx, `DELETE FROM owners WHERE id = ?`, id)
	if err != nil {
		return classify("delete owner", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (o ops) UpsertAsset(ctx context.Context, a *model.Asset) error {
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now()
	}
	ts := formatTime(a.UpdatedAt)
	var created, updated string
	err := o.db.QueryRowContext(ctx, `
		INSERT INTO user_assets (owner_id, asset_name, asset_value, asset_type, category, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, asset_name) DO UPDATE SET
			asset_value = excluded.asset_value,
			asset_type = excluded.asset_type,
			category = excluded.category,
			description = excluded.description,
			updated_at = excluded.updated_at
		RETURNING created_at, updated_at`,
		a.OwnerID, a.Name, a.Value, string(a.Type), string(a.Category), nullString(a.Description), ts, ts,
	).Scan(&created, &updated)
	if err != nil {
		return classify("upsert asset", err)
	}
	if a.CreatedAt, err = parseTime(created); err != nil {
		return err
	}
	a.UpdatedAt, err = parseTime(updated)
	return err
}

func (o ops) GetAsset(ctx context.Context, ownerID int64, name string) (*model.Asset, error) {
	row := o.db.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM user_assets WHERE owner_id = ? AND asset_name = ?`,
		ownerID, name)
	return scanAsset(row)
}

func (o ops) ListAssetsByCategory(ctx context.Context, ownerID int64, category model.Category) ([]*model.Asset, error) {
	return o.listAssets(ctx,
		`SELECT `+assetColumns+` FROM user_assets WHERE owner_id = ? AND category = ? ORDER BY asset_name`,
		ownerID, string(category))
}

func (o ops) ListAssets(ctx context.Context, ownerID int64) ([]*model.Asset, error) {
	return o.listAssets(ctx,
		`SELECT `+assetColumns+` FROM user_assets WHERE owner_id = ? ORDER BY category, asset_name`,
		ownerID)
}

func (o ops) ListAllAssets(ctx context.Context) ([]*model.Asset, error) {
	return o.listAssets(ctx,
		`SELECT `+assetColumns+` FROM user_assets ORDER BY owner_id, category, asset_name`)
}

func (o ops) listAssets(ctx context.Context, query string, args ...any) ([]*model.Asset, error) {
	rows, err := o.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssets(rows)
}

func (o ops) DeleteAsset(ctx context.Context, ownerID int64, name string) (bool, error) {
	res, err := o.db.ExecContext(ctx, `DELETE FROM user_assets WHERE owner_id = ? AND asset_name = ?`, ownerID, name)
	if err != nil {
		return false, classify("delete asset", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (o ops) DeleteAllAssets(ctx context.Context, ownerID int64) (int64, error) {
	res, err := o.db.ExecContext(ctx, `DELETE FROM user_assets WHERE owner_id = ?`, ownerID)
	if err != nil {
		return 0, classify("delete assets", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (o ops) GetProtectedAsset(ctx context.Context, ownerID int64, name string) (*model.ProtectedAsset, error) {
	row := o.db.QueryRowContext(ctx,
		`SELECT `+protectedColumns+` FROM protected_user_assets WHERE owner_id = ? AND asset_name = ?`,
		ownerID, name)
	return scanProtected(row)
}

func (o ops) UpsertProtectedAsset(ctx context.Context, pa *model.ProtectedAsset) error {
	if pa.UpdatedAt.IsZero() {
		pa.UpdatedAt = time.Now()
	}
	ts := formatTime(pa.UpdatedAt)
	var created, updated string
	err := o.db.QueryRowContext(ctx, `
		INSERT INTO protected_user_assets (`+protectedColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, asset_name) DO UPDATE SET
			asset_value = excluded.asset_value,
			asset_type = excluded.asset_type,
			category = excluded.category,
			description = excluded.description,
			is_protected = excluded.is_protected,
			protection_level = excluded.protection_level,
			updated_at = excluded.updated_at,
			last_backup_at = excluded.last_backup_at
		RETURNING created_at, updated_at`,
		pa.OwnerID, pa.Name, pa.Value, string(pa.Type), string(pa.Category), nullString(pa.Description),
		pa.Protected, string(pa.Level), ts, ts, nullTime(pa.LastBackupAt),
	).Scan(&created, &updated)
	if err != nil {
		return classify("upsert protected asset", err)
	}
	if pa.CreatedAt, err = parseTime(created); err != nil {
		return err
	}
	pa.UpdatedAt, err = parseTime(updated)
	return err
}

func (o ops) ListProtectedAssets(ctx context.Context, filter model.ProtectionFilter) ([]*model.ProtectedAsset, error) {
	var (
		where []string
		args  []any
	)
	if filter.OwnerID != 0 {
		where = append(where, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.UpdatedBefore != nil {
		where = append(where, "updated_at <= ?")
		args = append(args, formatTime(*filter.UpdatedBefore))
	}
	query := `SELECT ` + protectedColumns + ` FROM protected_user_assets`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY category, asset_name"

	rows, err := o.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.ProtectedAsset
	for rows.Next() {
		pa, err := scanProtected(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pa)
	}
	return out, rows.Err()
}

func (o ops) RecordProtectionLog(ctx context.Context, e *model.ProtectionLog) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := o.db.ExecContext(ctx, `
		INSERT INTO asset_protection_logs (id, owner_id, asset_name, action_type, old_value, new_value, protection_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.AssetName, string(e.Action),
		nullString(e.OldValue), nullString(e.NewValue), nullString(e.Status), formatTime(e.CreatedAt),
	)
	return classify("record protection log", err)
}

func (o ops) ListProtectionLogs(ctx context.Context, ownerID int64) ([]*model.ProtectionLog, error) {
	rows, err := o.db.QueryContext(ctx, `
		SELECT id, owner_id, asset_name, action_type, old_value, new_value, protection_status, created_at
		FROM asset_protection_logs WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.ProtectionLog
	for rows.Next() {
		e, err := scanProtectionLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (o ops) RecordBackup(ctx context.Context, b *model.Backup) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	_, err := o.db.ExecContext(ctx, `
		INSERT INTO asset_backups (id, destination, asset_count, bytes, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Destination, b.AssetCount, b.Bytes, formatTime(b.CreatedAt),
	)
	return classify("record backup", err)
}

func (o ops) ListBackups(ctx context.Context) ([]*model.Backup, error) {
	rows, err := o.db.QueryContext(ctx,
		`SELECT id, destination, asset_count, bytes, created_at FROM asset_backups ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Backup
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
