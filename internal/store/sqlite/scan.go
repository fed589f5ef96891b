package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/alfredjeanlab/userassets/internal/model"
)

// timeFormat is fixed-width so that text comparison of stored timestamps
// matches chronological order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func scanOwner(row scannable) (*model.Owner, error) {
	var (
		o       model.Owner
		created string
		err     error
	)
	if err = row.Scan(&o.ID, &o.Username, &created); err != nil {
		return nil, err
	}
	if o.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &o, nil
}

// scanAsset scans a single row in assetColumns order.
func scanAsset(row scannable) (*model.Asset, error) {
	var (
		a                model.Asset
		value, desc      sql.NullString
		created, updated string
		err              error
	)
	err = row.Scan(&a.OwnerID, &a.Name, &value, &a.Type, &a.Category, &desc, &created, &updated)
	if err != nil {
		return nil, err
	}
	a.Value = value.String
	a.Description = desc.String
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &a, nil
}

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
		pa               model.ProtectedAsset
		value, desc      sql.NullString
		created, updated string
		lastBackup       sql.NullString
		err              error
	)
	err = row.Scan(&pa.OwnerID, &pa.Name, &value, &pa.Type, &pa.Category, &desc,
		&pa.Protected, &pa.Level, &created, &updated, &lastBackup)
	if err != nil {
		return nil, err
	}
	pa.Value = value.String
	pa.Description = desc.String
	if pa.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if pa.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if lastBackup.Valid {
		t, err := parseTime(lastBackup.String)
		if err != nil {
			return nil, err
		}
		pa.LastBackupAt = &t
	}
	return &pa, nil
}

func scanProtectionLog(row scannable) (*model.ProtectionLog, error) {
	var (
		e                         model.ProtectionLog
		oldValue, newValue, state sql.NullString
		created                   string
		err                       error
	)
	err = row.Scan(&e.ID, &e.OwnerID, &e.AssetName, &e.Action, &oldValue, &newValue, &state, &created)
	if err != nil {
		return nil, err
	}
	e.OldValue = oldValue.String
	e.NewValue = newValue.String
	e.Status = state.String
	if e.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanBackup(row scannable) (*model.Backup, error) {
	var (
		b       model.Backup
		created string
		err     error
	)
	if err = row.Scan(&b.ID, &b.Destination, &b.AssetCount, &b.Bytes, &created); err != nil {
		return nil, err
	}
	if b.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &b, nil
}
