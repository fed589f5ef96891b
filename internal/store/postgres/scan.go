package postgres

import (
	"database/sql"
	"time"

	"github.com/alfredjeanlab/userassets/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanOwner(row scannable) (*model.Owner, error) {
	var o model.Owner
	if err := row.Scan(&o.ID, &o.Username, &o.CreatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

// scanAsset scans a single row into a model.Asset.
// The row must contain columns in the order defined by assetColumns.
func scanAsset(row scannable) (*model.Asset, error) {
	var (
		a           model.Asset
		value, desc sql.NullString
	)
	err := row.Scan(&a.OwnerID, &a.Name, &value, &a.Type, &a.Category, &desc, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Value = value.String
	a.Description = desc.String
	return &a, nil
}

// scanAssets scans multiple rows into a slice of model.Asset pointers.
func scanAssets(rows *sql.Rows) ([]*model.Asset, error) {
	var assets []*model.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assets, nil
}

// scanProtected scans a single row in protectedColumns order.
func scanProtected(row scannable) (*model.ProtectedAsset, error) {
	var (
		pa          model.ProtectedAsset
		value, desc sql.NullString
		lastBackup  sql.NullTime
	)
	err := row.Scan(&pa.OwnerID, &pa.Name, &value, &pa.Type, &pa.Category, &desc,
		&pa.Protected, &pa.Level, &pa.CreatedAt, &pa.UpdatedAt, &lastBackup)
	if err != nil {
		return nil, err
	}
	pa.Value = value.String
	pa.Description = desc.String
	if lastBackup.Valid {
		t := lastBackup.Time
		pa.LastBackupAt = &t
	}
	return &pa, nil
}

func scanProtectionLog(row scannable) (*model.ProtectionLog, error) {
	var (
		e                         model.ProtectionLog
		oldValue, newValue, state sql.NullString
	)
	err := row.Scan(&e.ID, &e.OwnerID, &e.AssetName, &e.Action, &oldValue, &newValue, &state, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.OldValue = oldValue.String
	e.NewValue = newValue.String
	e.Status = state.String
	return &e, nil
}

// nullTimePtr converts a *time.Time to sql.NullTime.
func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
