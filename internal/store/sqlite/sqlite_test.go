package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alfredjeanlab/userassets/internal/model"
	"github.com/alfredjeanlab/userassets/internal/store"
)

// newTestStore opens a fresh in-memory store with one owner and returns both.
func newTestStore(t *testing.T) (*SQLiteStore, *model.Owner) {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	owner, err := s.CreateOwner(context.Background(), "ahmet")
	if err != nil {
		t.Fatalf("CreateOwner: %v", err)
	}
	return s, owner
}

func TestOwners(t *testing.T) {
	ctx := context.Background()
	s, owner := newTestStore(t)

	if owner.ID == 0 {
		t.Fatal("owner ID not assigned")
	}
	got, err := s.GetOwnerByUsername(ctx, "ahmet")
	if err != nil {
		t.Fatalf("GetOwnerByUsername: %v", err)
	}
	if got.ID != owner.ID {
		t.Errorf("ID = %d, want %d", got.ID, owner.ID)
	}
	if _, err := s.GetOwner(ctx, owner.ID+100); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetOwner(missing) err = %v, want sql.ErrNoRows", err)
	}

	_, err = s.CreateOwner(ctx, "ahmet")
	if !errors.Is(err, store.ErrIntegrity) {
		t.Errorf("duplicate username err = %v, want ErrIntegrity", err)
	}
	if model.CodeOf(err) != model.CodeIntegrityError {
		t.Errorf("CodeOf = %q", model.CodeOf(err))
	}

	if _, err := s.CreateOwner(ctx, "zeynep"); err != nil {
		t.Fatalf("CreateOwner: %v", err)
	}
	owners, err := s.ListOwners(ctx)
	if err != nil || len(owners) != 2 {
		t.Fatalf("ListOwners = %d, %v", len(owners), err)
	}

	if err := s.DeleteOwner(ctx, 9999); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("DeleteOwner(missing) err = %v", err)
	}
}

func TestUpsertAsset_InsertThenUpdate(t *testing.T) {
	ctx := context.Background()
	s, owner := newTestStore(t)

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := &model.Asset{OwnerID: owner.ID, Name: "theme", Value: "light", Type: model.TypeString,
		Category: model.CategoryPreferences, Description: "Theme", UpdatedAt: first}
	if err := s.UpsertAsset(ctx, a); err != nil {
		t.Fatalf("UpsertAsset: %v", err)
	}
	if !a.CreatedAt.Equal(first) || !a.UpdatedAt.Equal(first) {
		t.Errorf("timestamps = %v / %v, want %v", a.CreatedAt, a.UpdatedAt, first)
	}

	second := first.Add(time.Hour)
	b := &model.Asset{OwnerID: owner.ID, Name: "theme", Value: "dark", Type: model.TypeString,
		Category: model.CategoryPreferences, UpdatedAt: second}
	if err := s.UpsertAsset(ctx, b); err != nil {
		t.Fatalf("UpsertAsset (update): %v", err)
	}
	if !b.CreatedAt.Equal(first) {
		t.Errorf("created_at changed on update: %v", b.CreatedAt)
	}
	if !b.UpdatedAt.Equal(second) {
		t.Errorf("updated_at = %v, want %v", b.UpdatedAt, second)
	}

	got, err := s.GetAsset(ctx, owner.ID, "theme")
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	if got.Value != "dark" || got.Description != "" {
		t.Errorf("stored = %+v", got)
	}
}

func TestUpsertAsset_UnknownOwner(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.UpsertAsset(context.Background(), &model.Asset{OwnerID: 4242, Name: "x", Value: "1",
		Type: model.TypeString, Category: model.CategoryCustom})
	if !errors.Is(err, store.ErrIntegrity) {
		t.Errorf("err = %v, want ErrIntegrity", err)
	}
}

func TestGetAsset_Missing(t *testing.T) {
	s, owner := newTestStore(t)
	if _, err := s.GetAsset(context.Background(), owner.ID, "nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	s, owner := newTestStore(t)
	for _, a := range []*model.Asset{
		{Name: "last_name", Value: "Yılmaz", Category: model.CategoryProfile},
		{Name: "first_name", Value: "Ahmet", Category: model.CategoryProfile},
		{Name: "theme", Value: "dark", Category: model.CategoryPreferences},
		{Name: "note", Value: "hi", Category: model.CategoryCustom},
	} {
		a.OwnerID, a.Type = owner.ID, model.TypeString
		if err := s.UpsertAsset(ctx, a); err != nil {
			t.Fatalf("UpsertAsset(%s): %v", a.Name, err)
		}
	}

	profile, err := s.ListAssetsByCategory(ctx, owner.ID, model.CategoryProfile)
	if err != nil {
		t.Fatalf("ListAssetsByCategory: %v", err)
	}
	if len(profile) != 2 || profile[0].Name != "first_name" || profile[1].Name != "last_name" {
		t.Errorf("profile = %v", model.AssetList(profile).Names())
	}
	if profile[1].Value != "Yılmaz" {
		t.Errorf("non-ASCII value = %q", profile[1].Value)
	}

	all, err := s.ListAssets(ctx, owner.ID)
	if err != nil || len(all) != 4 {
		t.Fatalf("ListAssets = %d, %v", len(all), err)
	}

	ok, err := s.DeleteAsset(ctx, owner.ID, "theme")
	if err != nil || !ok {
		t.Errorf("DeleteAsset = %v, %v", ok, err)
	}
	ok, err = s.DeleteAsset(ctx, owner.ID, "theme")
	if err != nil || ok {
		t.Errorf("DeleteAsset (again) = %v, %v; want false", ok, err)
	}

	n, err := s.DeleteAllAssets(ctx, owner.ID)
	if err != nil || n != 3 {
		t.Errorf("DeleteAllAssets = %d, %v; want 3", n, err)
	}
	n, err = s.DeleteAllAssets(ctx, owner.ID)
	if err != nil || n != 0 {
		t.Errorf("DeleteAllAssets (empty) = %d, %v", n, err)
	}
}

func TestDeleteOwner_CascadesAssets(t *testing.T) {
	ctx := context.Background()
	s, owner := newTestStore(t)
	if err := s.UpsertAsset(ctx, &model.Asset{OwnerID: owner.ID, Name: "note", Value: "x",
		Type: model.TypeString, Category: model.CategoryCustom}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteOwner(ctx, owner.ID); err != nil {
		t.Fatalf("DeleteOwner: %v", err)
	}
	all, err := s.ListAllAssets(ctx)
	if err != nil || len(all) != 0 {
		t.Errorf("ListAllAssets after cascade = %d, %v", len(all), err)
	}
}

func TestRunInTransaction_Rollback(t *testing.T) {
	ctx := context.Background()
	s, owner := newTestStore(t)
	boom := errors.New("boom")

	err := s.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.UpsertAsset(ctx, &model.Asset{OwnerID: owner.ID, Name: "a", Value: "1",
			Type: model.TypeString, Category: model.CategoryCustom}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if _, err := s.GetAsset(ctx, owner.ID, "a"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("asset survived rollback: %v", err)
	}

	err = s.RunInTransaction(ctx, func(tx store.Store) error {
		return tx.RunInTransaction(ctx, func(inner store.Store) error {
			return inner.UpsertAsset(ctx, &model.Asset{OwnerID: owner.ID, Name: "b", Value: "2",
				Type: model.TypeString, Category: model.CategoryCustom})
		})
	})
	if err != nil {
		t.Fatalf("nested RunInTransaction: %v", err)
	}
	if _, err := s.GetAsset(ctx, owner.ID, "b"); err != nil {
		t.Errorf("committed asset missing: %v", err)
	}
}

func TestProtectedAssets(t *testing.T) {
	ctx := context.Background()
	s, owner := newTestStore(t)

	early := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(48 * time.Hour)
	for _, pa := range []*model.ProtectedAsset{
		{Name: "two_factor_enabled", Value: "true", Type: model.TypeBoolean, Category: model.CategorySecurity, Level: model.LevelCritical, UpdatedAt: early},
		{Name: "email", Value: "a@b.co", Type: model.TypeString, Category: model.CategoryProfile, Level: model.LevelStandard, UpdatedAt: late},
	} {
		pa.OwnerID, pa.Protected = owner.ID, true
		if err := s.UpsertProtectedAsset(ctx, pa); err != nil {
			t.Fatalf("UpsertProtectedAsset: %v", err)
		}
	}

	got, err := s.GetProtectedAsset(ctx, owner.ID, "two_factor_enabled")
	if err != nil {
		t.Fatalf("GetProtectedAsset: %v", err)
	}
	if !got.Protected || got.Level != model.LevelCritical || got.LastBackupAt != nil {
		t.Errorf("protected = %+v", got)
	}

	list, err := s.ListProtectedAssets(ctx, model.ProtectionFilter{OwnerID: owner.ID})
	if err != nil || len(list) != 2 {
		t.Fatalf("ListProtectedAssets = %d, %v", len(list), err)
	}
	if list[0].Category != model.CategoryProfile {
		t.Errorf("order: first category = %q, want profile", list[0].Category)
	}

	cutoff := early.Add(time.Hour)
	list, err = s.ListProtectedAssets(ctx, model.ProtectionFilter{OwnerID: owner.ID, UpdatedBefore: &cutoff})
	if err != nil || len(list) != 1 || list[0].Name != "two_factor_enabled" {
		t.Errorf("filtered list = %v, %v", list, err)
	}

	backup := late.Add(time.Minute)
	got.Value, got.LastBackupAt, got.UpdatedAt = "false", &backup, late.Add(time.Hour)
	if err := s.UpsertProtectedAsset(ctx, got); err != nil {
		t.Fatalf("UpsertProtectedAsset (update): %v", err)
	}
	if !got.CreatedAt.Equal(early) {
		t.Errorf("created_at changed: %v", got.CreatedAt)
	}
	again, _ := s.GetProtectedAsset(ctx, owner.ID, "two_factor_enabled")
	if again.Value != "false" || again.LastBackupAt == nil || !again.LastBackupAt.Equal(backup) {
		t.Errorf("updated snapshot = %+v", again)
	}
}

func TestProtectionLogsAndBackups(t *testing.T) {
	ctx := context.Background()
	s, owner := newTestStore(t)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, action := range []model.ProtectionAction{model.ActionProtect, model.ActionUpdate} {
		if err := s.RecordProtectionLog(ctx, &model.ProtectionLog{
			ID: "pl-" + string(rune('a'+i)), OwnerID: owner.ID, AssetName: "email",
			Action: action, NewValue: "a@b.co", Status: "protected",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("RecordProtectionLog: %v", err)
		}
	}
	logs, err := s.ListProtectionLogs(ctx, owner.ID)
	if err != nil || len(logs) != 2 {
		t.Fatalf("ListProtectionLogs = %d, %v", len(logs), err)
	}
	if logs[0].Action != model.ActionProtect || logs[1].Action != model.ActionUpdate || logs[0].OldValue != "" {
		t.Errorf("logs = %+v, %+v", logs[0], logs[1])
	}

	for i, dest := range []string{"file:///tmp/a.jsonl", "s3://bucket/b.jsonl"} {
		if err := s.RecordBackup(ctx, &model.Backup{ID: "bk-" + string(rune('a'+i)), Destination: dest,
			AssetCount: 3, Bytes: 120, CreatedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("RecordBackup: %v", err)
		}
	}
	backups, err := s.ListBackups(ctx)
	if err != nil || len(backups) != 2 {
		t.Fatalf("ListBackups = %d, %v", len(backups), err)
	}
	if backups[0].ID != "bk-b" {
		t.Errorf("newest first: got %s", backups[0].ID)
	}
}

func TestNew_FileReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.CreateOwner(context.Background(), "ahmet"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.GetOwnerByUsername(context.Background(), "ahmet"); err != nil {
		t.Errorf("owner lost across reopen: %v", err)
	}
}

func TestTimeFormatOrdersLexically(t *testing.T) {
	a := time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC)
	b := a.Add(500 * time.Millisecond)
	if !(formatTime(a) < formatTime(b)) {
		t.Errorf("%s !< %s", formatTime(a), formatTime(b))
	}
	got, err := parseTime(formatTime(b))
	if err != nil || !got.Equal(b) {
		t.Errorf("round trip = %v, %v", got, err)
	}
}
