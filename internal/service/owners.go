package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alfredjeanlab/userassets/internal/model"
)

// ErrOwnerNotFound is returned by ResolveOwner when no owner matches.
type ErrOwnerNotFound string

func (e ErrOwnerNotFound) Error() string { return fmt.Sprintf("owner %q not found", string(e)) }

// CreateOwner registers a new owner.
func (s *AssetService) CreateOwner(ctx context.Context, username string) (*model.Owner, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	var o *model.Owner
	err := s.observe("create_owner", func() (err error) {
		o, err = s.store.CreateOwner(ctx, username)
		return err
	})
	if err != nil {
		return nil, storeError("create owner", err)
	}
	return o, nil
}

// ListOwners returns every owner ordered by id.
func (s *AssetService) ListOwners(ctx context.Context) ([]*model.Owner, error) {
	owners, err := s.store.ListOwners(ctx)
	if err != nil {
		return nil, storeError("list owners", err)
	}
	return owners, nil
}

// ResolveOwner finds an owner by numeric id or by username.
func (s *AssetService) ResolveOwner(ctx context.Context, ref string) (*model.Owner, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		o, err := s.store.GetOwner(ctx, id)
		if err == nil {
			return o, nil
		}
		if !isNotFound(err) {
			return nil, storeError("get owner", err)
		}
	}
	o, err := s.store.GetOwnerByUsername(ctx, ref)
	if isNotFound(err) {
		return nil, ErrOwnerNotFound(ref)
	}
	if err != nil {
		return nil, storeError("get owner", err)
	}
	return o, nil
}

// DeleteOwner removes an owner. Its assets and protected snapshots go with it.
func (s *AssetService) DeleteOwner(ctx context.Context, ownerID int64) error {
	err := s.observe("delete_owner", func() error { return s.store.DeleteOwner(ctx, ownerID) })
	if isNotFound(err) {
		return ErrOwnerNotFound(strconv.FormatInt(ownerID, 10))
	}
	if err != nil {
		return storeError("delete owner", err)
	}
	if s.cache != nil {
		if err := s.cache.DeleteOwner(ctx, ownerID); err != nil {
			s.log.Warn("failed to invalidate cached owner", "owner_id", ownerID, "error", err)
		}
	}
	return nil
}
