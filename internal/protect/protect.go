// Package protect keeps restorable snapshots of user assets apart from the
// live table, with an audit log of every protect, refresh and restore.
package protect

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/alfredjeanlab/userassets/internal/events"
	"github.com/alfredjeanlab/userassets/internal/idgen"
	"github.com/alfredjeanlab/userassets/internal/model"
	"github.com/alfredjeanlab/userassets/internal/service"
	"github.com/alfredjeanlab/userassets/internal/store"
)

// Status values written to the protection log besides the protection level.
const (
	StatusActive   = "active"
	StatusRestored = "restored"
)

// Protector snapshots and restores the assets managed by an AssetService.
type Protector struct {
	assets    *service.AssetService
	store     store.Store
	publisher events.Publisher
	log       *slog.Logger
	now       func() time.Time
}

// Option configures a Protector.
type Option func(*Protector)

// WithPublisher sets the event publisher.
func WithPublisher(pub events.Publisher) Option {
	return func(p *Protector) { p.publisher = pub }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Protector) { p.log = l }
}

// WithClock sets the time source for snapshot and log timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Protector) { p.now = now }
}

// New returns a Protector over the store behind svc.
func New(svc *service.AssetService, opts ...Option) *Protector {
	p := &Protector{
		assets:    svc,
		store:     svc.Store(),
		publisher: events.NoopPublisher{},
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProtectResult counts the snapshots written by Protect.
type ProtectResult struct {
	Protected int // new snapshots
	Refreshed int // existing snapshots brought up to date
}

// Protect snapshots every asset of ownerID. Assets without a snapshot get
// one at their category's protection level; existing snapshots take the
// current value. Each write is logged. The owner is handled in one
// transaction.
func (p *Protector) Protect(ctx context.Context, ownerID int64) (ProtectResult, error) {
	var res ProtectResult
	err := p.store.RunInTransaction(ctx, func(tx store.Store) error {
		assets, err := tx.ListAssets(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("list assets: %w", err)
		}
		for _, a := range assets {
			now := p.now().UTC()
			snap, err := tx.GetProtectedAsset(ctx, a.OwnerID, a.Name)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				snap = &model.ProtectedAsset{
					OwnerID:     a.OwnerID,
					Name:        a.Name,
					Value:       a.Value,
					Type:        a.Type,
					Category:    a.Category,
					Description: a.Description,
					Protected:   true,
					Level:       model.LevelForCategory(a.Category),
					UpdatedAt:   now,
				}
				if err := tx.UpsertProtectedAsset(ctx, snap); err != nil {
					return fmt.Errorf("protect %s: %w", a.Name, err)
				}
				if err := p.record(ctx, tx, a.OwnerID, a.Name, model.ActionProtect, "", a.Value, string(snap.Level), now); err != nil {
					return err
				}
				res.Protected++
			case err != nil:
				return fmt.Errorf("get protected asset %s: %w", a.Name, err)
			default:
				old := snap.Value
				snap.Value = a.Value
				snap.Type = a.Type
				snap.Category = a.Category
				snap.Description = a.Description
				snap.UpdatedAt = now
				if err := tx.UpsertProtectedAsset(ctx, snap); err != nil {
					return fmt.Errorf("refresh %s: %w", a.Name, err)
				}
				if err := p.record(ctx, tx, a.OwnerID, a.Name, model.ActionUpdate, old, a.Value, StatusActive, now); err != nil {
					return err
				}
				res.Refreshed++
			}
		}
		return nil
	})
	if err != nil {
		return ProtectResult{}, err
	}

	p.log.Info("assets protected", "owner_id", ownerID, "protected", res.Protected, "refreshed", res.Refreshed)
	p.publish(ctx, events.TopicAssetsProtected, events.AssetsProtected{OwnerID: ownerID, Protected: res.Protected, Refreshed: res.Refreshed})
	return res, nil
}

// ProtectAll runs Protect for every owner and sums the results.
func (p *Protector) ProtectAll(ctx context.Context) (ProtectResult, error) {
	owners, err := p.store.ListOwners(ctx)
	if err != nil {
		return ProtectResult{}, fmt.Errorf("list owners: %w", err)
	}
	var total ProtectResult
	for _, o := range owners {
		res, err := p.Protect(ctx, o.ID)
		if err != nil {
			return total, fmt.Errorf("protect owner %s: %w", o.Username, err)
		}
		total.Protected += res.Protected
		total.Refreshed += res.Refreshed
	}
	return total, nil
}

// RestoreResult reports what Restore wrote back.
type RestoreResult struct {
	Restored int
	Failures []model.FieldError
}

// Restore writes the snapshots of ownerID back to the live table through the
// validated write path. When before is set only snapshots last updated at or
// before it are restored. A snapshot that fails validation or storage is
// recorded in Failures and the rest continue.
func (p *Protector) Restore(ctx context.Context, ownerID int64, before *time.Time) (RestoreResult, error) {
	snaps, err := p.store.ListProtectedAssets(ctx, model.ProtectionFilter{OwnerID: ownerID, UpdatedBefore: before})
	if err != nil {
		return RestoreResult{}, fmt.Errorf("list protected assets: %w", err)
	}

	var res RestoreResult
	for _, snap := range snaps {
		var old string
		if cur, found, err := p.assets.Get(ctx, ownerID, snap.Name); err == nil && found {
			old = cur.Value
		}
		_, err := p.assets.Set(ctx, service.SetInput{
			OwnerID:     ownerID,
			Name:        snap.Name,
			Value:       snap.Value,
			Type:        snap.Type,
			Category:    snap.Category,
			Description: snap.Description,
		})
		if err != nil {
			code := model.CodeOf(err)
			if code == "" {
				code = model.CodeStorageError
			}
			res.Failures = append(res.Failures, model.FieldError{Category: snap.Category, Field: snap.Name, Code: code, Message: err.Error()})
			continue
		}
		if err := p.record(ctx, p.store, ownerID, snap.Name, model.ActionRestore, old, snap.Value, StatusRestored, p.now().UTC()); err != nil {
			p.log.Warn("failed to log restore", "owner_id", ownerID, "asset", snap.Name, "error", err)
		}
		res.Restored++
	}

	p.log.Info("assets restored", "owner_id", ownerID, "restored", res.Restored, "failed", len(res.Failures))
	p.publish(ctx, events.TopicAssetsRestored, events.AssetsRestored{OwnerID: ownerID, Restored: res.Restored, Failed: len(res.Failures)})
	return res, nil
}

// Status returns the snapshots of ownerID, or of every owner when ownerID is
// 0, ordered by owner, registry category order and name.
func (p *Protector) Status(ctx context.Context, ownerID int64) ([]*model.ProtectedAsset, error) {
	snaps, err := p.store.ListProtectedAssets(ctx, model.ProtectionFilter{OwnerID: ownerID})
	if err != nil {
		return nil, fmt.Errorf("list protected assets: %w", err)
	}
	slices.SortStableFunc(snaps, func(a, b *model.ProtectedAsset) int {
		return cmp.Or(
			cmp.Compare(a.OwnerID, b.OwnerID),
			cmp.Compare(categoryRank(a.Category), categoryRank(b.Category)),
			cmp.Compare(a.Name, b.Name),
		)
	})
	return snaps, nil
}

// History returns the protection log of ownerID, oldest first.
func (p *Protector) History(ctx context.Context, ownerID int64) ([]*model.ProtectionLog, error) {
	return p.store.ListProtectionLogs(ctx, ownerID)
}

func (p *Protector) record(ctx context.Context, s store.Store, ownerID int64, name string, action model.ProtectionAction, oldValue, newValue, status string, at time.Time) error {
	id, err := idgen.ProtectionLogID()
	if err != nil {
		return err
	}
	err = s.RecordProtectionLog(ctx, &model.ProtectionLog{
		ID:        id,
		OwnerID:   ownerID,
		AssetName: name,
		Action:    action,
		OldValue:  oldValue,
		NewValue:  newValue,
		Status:    status,
		CreatedAt: at,
	})
	if err != nil {
		return fmt.Errorf("log %s %s: %w", action, name, err)
	}
	return nil
}

func (p *Protector) publish(ctx context.Context, topic string, event any) {
	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		p.log.Warn("failed to publish event", "topic", topic, "error", err)
	}
}

func categoryRank(c model.Category) int {
	if i := slices.Index(model.Categories(), c); i >= 0 {
		return i
	}
	return len(model.Categories())
}
