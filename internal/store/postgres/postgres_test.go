package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/alfredjeanlab/userassets/internal/model"
	"github.com/alfredjeanlab/userassets/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var assetRowColumns = []string{
	"owner_id", "asset_name", "asset_value", "asset_type", "category", "description", "created_at", "updated_at",
}

var protectedRowColumns = []string{
	"owner_id", "asset_name", "asset_value", "asset_type", "category", "description",
	"is_protected", "protection_level", "created_at", "updated_at", "last_backup_at",
}

func TestScanHelpers(t *testing.T) {
	if nullTimePtr(nil).Valid {
		t.Error("nullTimePtr(nil) should be invalid")
	}
	now := time.Now()
	if nt := nullTimePtr(&now); !nt.Valid || !nt.Time.Equal(now) {
		t.Errorf("nullTimePtr(now) = %v", nt)
	}
	if nullString("").Valid {
		t.Error("nullString(\"\") should be invalid")
	}
	if ns := nullString("hello"); !ns.Valid || ns.String != "hello" {
		t.Errorf("nullString(\"hello\") = %v", ns)
	}
}

func TestClassify(t *testing.T) {
	if classify("op", nil) != nil {
		t.Error("classify(nil) should be nil")
	}

	fk := classify("upsert asset", &pq.Error{Code: "23503", Message: "violates foreign key constraint"})
	if !errors.Is(fk, store.ErrIntegrity) || model.CodeOf(fk) != model.CodeIntegrityError {
		t.Errorf("foreign key violation = %v (code %q)", fk, model.CodeOf(fk))
	}

	other := classify("upsert asset", &pq.Error{Code: "53100", Message: "disk full"})
	if errors.Is(other, store.ErrIntegrity) || model.CodeOf(other) != model.CodeStorageError {
		t.Errorf("disk full = %v (code %q)", other, model.CodeOf(other))
	}
}

func TestQueryCreateOwner(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO owners").WithArgs("ahmet").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))

	o, err := queryCreateOwner(context.Background(), db, "ahmet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.ID != 7 || o.Username != "ahmet" || !o.CreatedAt.Equal(now) {
		t.Errorf("owner = %+v", o)
	}
}

func TestQueryCreateOwner_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("INSERT INTO owners").WithArgs("ahmet").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	_, err := queryCreateOwner(context.Background(), db, "ahmet")
	if !errors.Is(err, store.ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
}

func TestQueryGetOwnerByUsername_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT id, username, created_at FROM owners WHERE username = \\$1").
		WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	if _, err := queryGetOwnerByUsername(context.Background(), db, "ghost"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryListOwners(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, username, created_at FROM owners ORDER BY id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "created_at"}).
			AddRow(int64(1), "ahmet", now).
			AddRow(int64(2), "zeynep", now))

	owners, err := queryListOwners(context.Background(), db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(owners) != 2 || owners[1].Username != "zeynep" {
		t.Errorf("owners = %+v", owners)
	}
}

func TestQueryDeleteOwner_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM owners WHERE id = \\$1").WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := queryDeleteOwner(context.Background(), db, 9); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryUpsertAsset(t *testing.T) {
	db, mock := newMockDB(t)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(time.Hour)
	a := &model.Asset{
		OwnerID: 1, Name: "theme", Value: "dark", Type: model.TypeString,
		Category: model.CategoryPreferences, UpdatedAt: now,
	}
	mock.ExpectQuery("INSERT INTO user_assets").
		WithArgs(int64(1), "theme", "dark", "string", "preferences", sqlmock.AnyArg(), now).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, now))

	if err := queryUpsertAsset(context.Background(), db, a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", a.CreatedAt, created)
	}
}

func TestQueryUpsertAsset_ForeignKey(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("INSERT INTO user_assets").
		WillReturnError(&pq.Error{Code: "23503", Message: "violates foreign key constraint"})

	err := queryUpsertAsset(context.Background(), db, &model.Asset{OwnerID: 99, Name: "x", Type: model.TypeString, Category: model.CategoryCustom})
	if !errors.Is(err, store.ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
}

func TestQueryGetAsset(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM user_assets WHERE owner_id = \\$1 AND asset_name = \\$2").
		WithArgs(int64(1), "login_count").
		WillReturnRows(sqlmock.NewRows(assetRowColumns).
			AddRow(int64(1), "login_count", "15", "integer", "system", nil, now, now))

	a, err := queryGetAsset(context.Background(), db, 1, "login_count")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Typed() != int64(15) || a.Category != model.CategorySystem || a.Description != "" {
		t.Errorf("asset = %+v", a)
	}
}

func TestQueryGetAsset_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM user_assets").WithArgs(int64(1), "nope").WillReturnError(sql.ErrNoRows)

	if _, err := queryGetAsset(context.Background(), db, 1, "nope"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryListAssetsByCategory(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM user_assets WHERE owner_id = \\$1 AND category = \\$2 ORDER BY asset_name").
		WithArgs(int64(1), "profile").
		WillReturnRows(sqlmock.NewRows(assetRowColumns).
			AddRow(int64(1), "email", "ahmet@example.com", "string", "profile", "Email address", now, now).
			AddRow(int64(1), "first_name", "Ahmet", "string", "profile", nil, now, now))

	assets, err := queryListAssetsByCategory(context.Background(), db, 1, model.CategoryProfile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := model.AssetList(assets).Names(); len(got) != 2 || got[0] != "email" {
		t.Errorf("names = %v", got)
	}
}

func TestQueryDeleteAsset(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM user_assets WHERE owner_id = \\$1 AND asset_name = \\$2").
		WithArgs(int64(1), "theme").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM user_assets WHERE owner_id = \\$1 AND asset_name = \\$2").
		WithArgs(int64(1), "theme").WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := queryDeleteAsset(context.Background(), db, 1, "theme")
	if err != nil || !ok {
		t.Errorf("first delete = %v, %v", ok, err)
	}
	ok, err = queryDeleteAsset(context.Background(), db, 1, "theme")
	if err != nil || ok {
		t.Errorf("second delete = %v, %v", ok, err)
	}
}

func TestQueryDeleteAllAssets(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM user_assets WHERE owner_id = \\$1").
		WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 9))

	n, err := queryDeleteAllAssets(context.Background(), db, 1)
	if err != nil || n != 9 {
		t.Errorf("DeleteAllAssets = %d, %v", n, err)
	}
}

func TestQueryUpsertProtectedAsset(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	pa := &model.ProtectedAsset{
		OwnerID: 1, Name: "two_factor_enabled", Value: "true", Type: model.TypeBoolean,
		Category: model.CategorySecurity, Protected: true, Level: model.LevelCritical, UpdatedAt: now,
	}
	mock.ExpectQuery("INSERT INTO protected_user_assets").
		WithArgs(int64(1), "two_factor_enabled", "true", "boolean", "security", sqlmock.AnyArg(),
			true, "critical", now, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	if err := queryUpsertProtectedAsset(context.Background(), db, pa); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryListProtectedAssets(t *testing.T) {
	now := time.Now().UTC()
	cutoff := now.Add(-time.Hour)

	for _, tc := range []struct {
		name   string
		filter model.ProtectionFilter
		query  string
		args   []any
	}{
		{"no filter", model.ProtectionFilter{}, "FROM protected_user_assets ORDER BY category, asset_name", nil},
		{"owner", model.ProtectionFilter{OwnerID: 3}, "WHERE owner_id = \\$1 ORDER BY", []any{int64(3)}},
		{"owner and date", model.ProtectionFilter{OwnerID: 3, UpdatedBefore: &cutoff},
			"WHERE owner_id = \\$1 AND updated_at <= \\$2 ORDER BY", []any{int64(3), cutoff}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			rows := sqlmock.NewRows(protectedRowColumns).
				AddRow(int64(3), "email", "a@b.co", "string", "profile", nil, true, "standard", now, now, nil).
				AddRow(int64(3), "login_count", "4", "integer", "system", nil, true, "high", now, now, now)
			exp := mock.ExpectQuery(tc.query)
			if len(tc.args) > 0 {
				args := make([]driver.Value, len(tc.args))
				for i, a := range tc.args {
					args[i] = a
				}
				exp = exp.WithArgs(args...)
			}
			exp.WillReturnRows(rows)

			list, err := queryListProtectedAssets(context.Background(), db, tc.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(list) != 2 || list[1].Level != model.LevelHigh || list[1].LastBackupAt == nil || list[0].LastBackupAt != nil {
				t.Errorf("list = %+v", list)
			}
		})
	}
}

func TestQueryRecordProtectionLog(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO asset_protection_logs").
		WithArgs("pl-1", int64(1), "email", "UPDATE", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := queryRecordProtectionLog(context.Background(), db, &model.ProtectionLog{
		ID: "pl-1", OwnerID: 1, AssetName: "email", Action: model.ActionUpdate,
		OldValue: "a@b.co", NewValue: "c@d.co", CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryListBackups(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, destination, asset_count, bytes, created_at FROM asset_backups").
		WillReturnRows(sqlmock.NewRows([]string{"id", "destination", "asset_count", "bytes", "created_at"}).
			AddRow("bk-1", "s3://b/k", 4, 512, now))

	backups, err := queryListBackups(context.Background(), db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(backups) != 1 || backups[0].AssetCount != 4 || backups[0].Bytes != 512 {
		t.Errorf("backups = %+v", backups)
	}
}

func TestRunInTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM user_assets WHERE owner_id = \\$1").
		WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		if _, err := tx.DeleteAllAssets(context.Background(), 1); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRunInTransaction_Commit(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM user_assets WHERE owner_id = \\$1 AND asset_name = \\$2").
		WithArgs(int64(1), "theme").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		_, err := tx.DeleteAsset(context.Background(), 1, "theme")
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
