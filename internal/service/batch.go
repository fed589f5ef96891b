package service

import (
	"context"
	"errors"

	"github.com/alfredjeanlab/userassets/internal/events"
	"github.com/alfredjeanlab/userassets/internal/model"
	"github.com/alfredjeanlab/userassets/internal/store"
)

// ValidateThenPersist validates b in full and writes it only when every
// field passes. A validation failure returns *model.ValidationError and
// writes nothing.
//
// The writes run in one transaction, in registry category order then
// submission order. Every field whose write fails is reported in a
// *model.PersistError and the whole batch is rolled back. On PostgreSQL a
// failed statement aborts the transaction, so fields after the first failure
// report the aborted transaction.
func (s *AssetService) ValidateThenPersist(ctx context.Context, ownerID int64, b model.Batch) error {
	if err := s.ValidateBatch(b); err != nil {
		return err
	}

	reg := s.Registry()
	var assets []*model.Asset
	for _, cat := range model.Categories() {
		fields, ok := b.Group(cat)
		if !ok {
			continue
		}
		for _, f := range fields {
			a, err := s.prepare(SetInput{
				OwnerID:     ownerID,
				Name:        f.Name,
				Value:       f.Value,
				Type:        reg.ExpectedType(cat, f.Name),
				Category:    cat,
				Description: reg.Description(cat, f.Name),
			}, false)
			if err != nil {
				return &model.PersistError{Errors: []model.FieldError{fieldFailure(cat, f.Name, err)}, RolledBack: true}
			}
			assets = append(assets, a)
		}
	}
	if len(assets) == 0 {
		return nil
	}

	var failed *model.PersistError
	err := s.observe("persist_batch", func() error {
		return s.store.RunInTransaction(ctx, func(tx store.Store) error {
			var pe model.PersistError
			for _, a := range assets {
				if err := tx.UpsertAsset(ctx, a); err != nil {
					pe.Errors = append(pe.Errors, fieldFailure(a.Category, a.Name, storeError("set asset", err)))
				}
			}
			if len(pe.Errors) > 0 {
				pe.RolledBack = true
				failed = &pe
				return failed
			}
			return nil
		})
	})
	if err != nil {
		s.log.Warn("batch persist rolled back", "owner_id", ownerID, "fields", len(assets), "error", err)
		if failed != nil && errors.Is(err, failed) {
			return failed
		}
		return storeError("persist batch", err)
	}

	fields := make([]string, len(assets))
	for i, a := range assets {
		s.forget(ctx, ownerID, a.Name)
		fields[i] = string(a.Category) + "." + a.Name
	}
	s.publish(ctx, events.TopicBatchPersisted, events.BatchPersisted{OwnerID: ownerID, Fields: fields})
	return nil
}

func fieldFailure(cat model.Category, name string, err error) model.FieldError {
	code := model.CodeOf(err)
	if code == "" {
		code = model.CodeStorageError
	}
	return model.FieldError{Category: cat, Field: name, Code: code, Message: err.Error()}
}

// ApplyDefaults writes the declared default of every schema field ownerID
// does not have yet. It returns the number of fields written.
func (s *AssetService) ApplyDefaults(ctx context.Context, ownerID int64) (int, error) {
	var existing []*model.Asset
	err := s.observe("list_assets", func() (err error) {
		existing, err = s.store.ListAssets(ctx, ownerID)
		return err
	})
	if err != nil {
		return 0, storeError("list assets", err)
	}
	have := make(map[string]bool, len(existing))
	for _, a := range existing {
		have[a.Name] = true
	}

	reg := s.Registry()
	var b model.Batch
	for _, cat := range model.Categories() {
		for _, def := range reg.Fields(cat) {
			if have[def.Name] {
				continue
			}
			if v, ok := reg.DefaultValue(cat, def.Name); ok {
				b.Add(cat, def.Name, v)
			}
		}
	}
	if err := s.ValidateThenPersist(ctx, ownerID, b); err != nil {
		return 0, err
	}
	return b.Len(), nil
}

// SampleBatch returns the demonstration data written by SeedSamples.
func SampleBatch() model.Batch {
	var b model.Batch
	b.Add(model.CategoryProfile, "first_name", "Ahmet").
		Add(model.CategoryProfile, "last_name", "Yılmaz").
		Add(model.CategoryProfile, "email", "ahmet@example.com").
		Add(model.CategoryProfile, "department", "IT").
		Add(model.CategoryPreferences, "theme", "dark").
		Add(model.CategoryPreferences, "language", "tr_TR").
		Add(model.CategoryPreferences, "timezone", "Europe/Istanbul").
		Add(model.CategorySecurity, "two_factor_enabled", "true").
		Add(model.CategorySecurity, "login_attempts", "0").
		Add(model.CategorySystem, "login_count", "15")
	return b
}

// SeedSamples writes SampleBatch for ownerID.
func (s *AssetService) SeedSamples(ctx context.Context, ownerID int64) error {
	return s.ValidateThenPersist(ctx, ownerID, SampleBatch())
}
