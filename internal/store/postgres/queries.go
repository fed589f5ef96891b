package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/alfredjeanlab/userassets/internal/model"
	"github.com/alfredjeanlab/userassets/internal/store"
)

// assetColumns is the column list used for SELECT statements on user_assets.
const assetColumns = `owner_id, asset_name, asset_value, asset_type, category, description, created_at, updated_at`

// protectedColumns is the column list used for SELECT statements on protected_user_assets.
const protectedColumns = `owner_id, asset_name, asset_value, asset_type, category, description,
	is_protected, protection_level, created_at, updated_at, last_backup_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// classify wraps constraint violations (SQLSTATE class 23) so callers can
// match store.ErrIntegrity.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		return &model.StoreError{Code: model.CodeIntegrityError, Op: op, Err: fmt.Errorf("%w: %w", store.ErrIntegrity, err)}
	}
	return &model.StoreError{Code: model.CodeStorageError, Op: op, Err: err}
}

func queryCreateOwner(ctx context.Context, db executor, username string) (*model.Owner, error) {
	o := &model.Owner{Username: username}
	err := db.QueryRowContext(ctx,
		`INSERT INTO owners (username) VALUES ($1) RETURNING id, created_at`, username,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return nil, classify("create owner", err)
	}
	return o, nil
}

func queryGetOwner(ctx context.Context, db executor, id int64) (*model.Owner, error) {
	row := db.QueryRowContext(ctx, `SELECT id, username, created_at FROM owners WHERE id = $1`, id)
	return scanOwner(row)
}

func queryGetOwnerByUsername(ctx context.Context, db executor, username string) (*model.Owner, error) {
	row := db.QueryRowContext(ctx, `SELECT id, username, created_at FROM owners WHERE username = $1`, username)
	return scanOwner(row)
}

func queryListOwners(ctx context.Context, db executor) ([]*model.Owner, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, username, created_at FROM owners ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var owners []*model.Owner
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, err
		}
		owners = append(owners, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return owners, nil
}

func queryDeleteOwner(ctx context.Context, db executor, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM owners WHERE id = $1`, id)
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

func queryUpsertAsset(ctx context.Context, db executor, a *model.Asset) error {
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now().UTC()
	}
	err := db.QueryRowContext(ctx, `
		INSERT INTO user_assets (owner_id, asset_name, asset_value, asset_type, category, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (owner_id, asset_name) DO UPDATE SET
			asset_value = EXCLUDED.asset_value,
			asset_type = EXCLUDED.asset_type,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at`,
		a.OwnerID, a.Name, a.Value, string(a.Type), string(a.Category), nullString(a.Description), a.UpdatedAt,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return classify("upsert asset", err)
}

func queryGetAsset(ctx context.Context, db executor, ownerID int64, name string) (*model.Asset, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM user_assets WHERE owner_id = $1 AND asset_name = $2`,
		ownerID, name)
	return scanAsset(row)
}

func queryListAssetsByCategory(ctx context.Context, db executor, ownerID int64, category model.Category) ([]*model.Asset, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM user_assets WHERE owner_id = $1 AND category = $2 ORDER BY asset_name`,
		ownerID, string(category))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssets(rows)
}

func queryListAssets(ctx context.Context, db executor, ownerID int64) ([]*model.Asset, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM user_assets WHERE owner_id = $1 ORDER BY category, asset_name`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssets(rows)
}

func queryListAllAssets(ctx context.Context, db executor) ([]*model.Asset, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM user_assets ORDER BY owner_id, category, asset_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssets(rows)
}

func queryDeleteAsset(ctx context.Context, db executor, ownerID int64, name string) (bool, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM user_assets WHERE owner_id = $1 AND asset_name = $2`, ownerID, name)
	if err != nil {
		return false, classify("delete asset", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func queryDeleteAllAssets(ctx context.Context, db executor, ownerID int64) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM user_assets WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, classify("delete assets", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func queryGetProtectedAsset(ctx context.Context, db executor, ownerID int64, name string) (*model.ProtectedAsset, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+protectedColumns+` FROM protected_user_assets WHERE owner_id = $1 AND asset_name = $2`,
		ownerID, name)
	return scanProtected(row)
}

func queryUpsertProtectedAsset(ctx context.Context, db executor, pa *model.ProtectedAsset) error {
	if pa.UpdatedAt.IsZero() {
		pa.UpdatedAt = time.Now().UTC()
	}
	err := db.QueryRowContext(ctx, `
		INSERT INTO protected_user_assets (`+protectedColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9, $10)
		ON CONFLICT (owner_id, asset_name) DO UPDATE SET
			asset_value = EXCLUDED.asset_value,
			asset_type = EXCLUDED.asset_type,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			is_protected = EXCLUDED.is_protected,
			protection_level = EXCLUDED.protection_level,
			updated_at = EXCLUDED.updated_at,
			last_backup_at = EXCLUDED.last_backup_at
		RETURNING created_at, updated_at`,
		pa.OwnerID, pa.Name, pa.Value, string(pa.Type), string(pa.Category), nullString(pa.Description),
		pa.Protected, string(pa.Level), pa.UpdatedAt, nullTimePtr(pa.LastBackupAt),
	).Scan(&pa.CreatedAt, &pa.UpdatedAt)
	return classify("upsert protected asset", err)
}

func queryListProtectedAssets(ctx context.Context, db executor, filter model.ProtectionFilter) ([]*model.ProtectedAsset, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if filter.OwnerID != 0 {
		whereClauses = append(whereClauses, "owner_id = "+nextArg())
		args = append(args, filter.OwnerID)
	}
	if filter.UpdatedBefore != nil {
		whereClauses = append(whereClauses, "updated_at <= "+nextArg())
		args = append(args, *filter.UpdatedBefore)
	}

	query := `SELECT ` + protectedColumns + ` FROM protected_user_assets`
	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}
	query += " ORDER BY category, asset_name"

	rows, err := db.QueryContext(ctx, query, args...)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func queryRecordProtectionLog(ctx context.Context, db executor, e *model.ProtectionLog) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO asset_protection_logs (id, owner_id, asset_name, action_type, old_value, new_value, protection_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.OwnerID, e.AssetName, string(e.Action),
		nullString(e.OldValue), nullString(e.NewValue), nullString(e.Status), e.CreatedAt,
	)
	return classify("record protection log", err)
}

func queryListProtectionLogs(ctx context.Context, db executor, ownerID int64) ([]*model.ProtectionLog, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, owner_id, asset_name, action_type, old_value, new_value, protection_status, created_at
		FROM asset_protection_logs WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*model.ProtectionLog
	for rows.Next() {
		e, err := scanProtectionLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func queryRecordBackup(ctx context.Context, db executor, b *model.Backup) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO asset_backups (id, destination, asset_count, bytes, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		b.ID, b.Destination, b.AssetCount, b.Bytes, b.CreatedAt,
	)
	return classify("record backup", err)
}

func queryListBackups(ctx context.Context, db executor) ([]*model.Backup, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, destination, asset_count, bytes, created_at FROM asset_backups ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var backups []*model.Backup
	for rows.Next() {
		var b model.Backup
		if err := rows.Scan(&b.ID, &b.Destination, &b.AssetCount, &b.Bytes, &b.CreatedAt); err != nil {
			return nil, err
		}
		backups = append(backups, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return backups, nil
}
