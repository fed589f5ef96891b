package service

import (
	"context"
	"errors"

	"github.com/alfredjeanlab/userassets/internal/cache"
	"github.com/alfredjeanlab/userassets/internal/events"
	"github.com/alfredjeanlab/userassets/internal/model"
)

// SetInput describes one asset write. An empty Category means custom; an
// empty Type takes the field's declared type, or string when the field is
// not defined.
type SetInput struct {
	OwnerID     int64
	Name        string
	Value       any
	Type        model.AssetType
	Category    model.Category
	Description string
}

type setConfig struct {
	validate bool
}

// SetOption adjusts a single Set call.
type SetOption func(*setConfig)

// WithoutValidation skips the schema check. Use it for values that were
// already validated.
func WithoutValidation() SetOption {
	return func(c *setConfig) { c.validate = false }
}

// Validate checks one value against the schema. It returns nil or a
// *model.FieldError.
func (s *AssetService) Validate(category model.Category, name string, value any, declared model.AssetType) error {
	err := s.validator.Validate(category, name, value, declared)
	s.metrics.ObserveValidation(err == nil)
	return err
}

// ValidateBatch checks every field of b. It returns nil or a
// *model.ValidationError listing all failures.
func (s *AssetService) ValidateBatch(b model.Batch) error {
	err := s.validator.ValidateBatch(b)
	s.metrics.ObserveValidation(err == nil)
	return err
}

// Set validates, sanitizes, encodes and upserts one asset. Validation
// failures are returned as *model.FieldError and leave storage untouched;
// storage failures are returned as *model.StoreError.
func (s *AssetService) Set(ctx context.Context, in SetInput, opts ...SetOption) (*model.Asset, error) {
	cfg := setConfig{validate: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	a, err := s.prepare(in, cfg.validate)
	if err != nil {
		return nil, err
	}
	if err := s.observe("upsert_asset", func() error { return s.store.UpsertAsset(ctx, a) }); err != nil {
		s.log.Warn("set asset failed", "owner_id", a.OwnerID, "asset", a.Name, "error", err)
		return nil, storeError("set asset", err)
	}

	s.forget(ctx, a.OwnerID, a.Name)
	s.publish(ctx, events.TopicAssetSet, events.AssetSet{Asset: a})
	return a, nil
}

// prepare turns in into the row to upsert.
func (s *AssetService) prepare(in SetInput, validate bool) (*model.Asset, error) {
	category := in.Category
	if category == "" {
		category = model.CategoryCustom
	}
	typ := in.Type
	if typ == "" {
		typ = s.Registry().ExpectedType(category, in.Name)
	}

	if validate {
		if err := s.Validate(category, in.Name, in.Value, typ); err != nil {
			return nil, err
		}
	}

	text, err := model.EncodeValue(s.sanitizer.Sanitize(in.Value, typ), typ)
	if err != nil {
		return nil, &model.StoreError{Code: model.CodeStorageError, Op: "encode asset", Err: err}
	}
	return &model.Asset{
		OwnerID:     in.OwnerID,
		Name:        in.Name,
		Value:       text,
		Type:        typ,
		Category:    category,
		Description: in.Description,
		UpdatedAt:   s.now().UTC(),
	}, nil
}

// Get returns the asset name of ownerID. A missing asset is found=false with
// a nil error.
func (s *AssetService) Get(ctx context.Context, ownerID int64, name string) (*model.Asset, bool, error) {
	if s.cache != nil {
		a, err := s.cache.GetAsset(ctx, ownerID, name)
		if err == nil {
			s.metrics.ObserveCache(true)
			return a, true, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn("cache lookup failed", "owner_id", ownerID, "asset", name, "error", err)
		}
		s.metrics.ObserveCache(false)
	}

	var a *model.Asset
	err := s.observe("get_asset", func() (err error) {
		a, err = s.store.GetAsset(ctx, ownerID, name)
		if isNotFound(err) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, false, storeError("get asset", err)
	}
	if a == nil {
		return nil, false, nil
	}

	if s.cache != nil {
		if err := s.cache.SetAsset(ctx, a); err != nil {
			s.log.Warn("failed to cache asset", "owner_id", ownerID, "asset", name, "error", err)
		}
	}
	return a, true, nil
}

// GetByCategory returns the assets of ownerID in category ordered by name.
// The list is empty, not nil, when there are none.
func (s *AssetService) GetByCategory(ctx context.Context, ownerID int64, category model.Category) (model.AssetList, error) {
	var list []*model.Asset
	err := s.observe("list_assets_by_category", func() (err error) {
		list, err = s.store.ListAssetsByCategory(ctx, ownerID, category)
		return err
	})
	if err != nil {
		return nil, storeError("get assets by category", err)
	}
	if list == nil {
		return model.AssetList{}, nil
	}
	return model.AssetList(list), nil
}

// GetAll returns every known category mapped to that category's assets.
// Categories without assets map to an empty list.
func (s *AssetService) GetAll(ctx context.Context, ownerID int64) (map[model.Category]model.AssetList, error) {
	out := make(map[model.Category]model.AssetList, len(model.Categories()))
	for _, cat := range model.Categories() {
		list, err := s.GetByCategory(ctx, ownerID, cat)
		if err != nil {
			return nil, err
		}
		out[cat] = list
	}
	return out, nil
}

// Delete removes one asset and reports whether a row was removed.
func (s *AssetService) Delete(ctx context.Context, ownerID int64, name string) (bool, error) {
	var removed bool
	err := s.observe("delete_asset", func() (err error) {
		removed, err = s.store.DeleteAsset(ctx, ownerID, name)
		return err
	})
	if err != nil {
		return false, storeError("delete asset", err)
	}
	s.forget(ctx, ownerID, name)
	if removed {
		s.publish(ctx, events.TopicAssetDeleted, events.AssetDeleted{OwnerID: ownerID, AssetName: name})
	}
	return removed, nil
}

// DeleteAll removes every asset of ownerID. Only a storage failure is an
// error; an owner without assets is not.
func (s *AssetService) DeleteAll(ctx context.Context, ownerID int64) error {
	var removed int64
	err := s.observe("delete_all_assets", func() (err error) {
		removed, err = s.store.DeleteAllAssets(ctx, ownerID)
		return err
	})
	if err != nil {
		return storeError("delete all assets", err)
	}
	if s.cache != nil {
		if err := s.cache.DeleteOwner(ctx, ownerID); err != nil {
			s.log.Warn("failed to invalidate cached owner", "owner_id", ownerID, "error", err)
		}
	}
	s.publish(ctx, events.TopicOwnerCleared, events.OwnerCleared{OwnerID: ownerID, Removed: removed})
	return nil
}
