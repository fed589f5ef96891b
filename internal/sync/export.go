// Package sync exports the asset tables as JSONL, replays such exports into
// a store and ships periodic backups to file, S3 and git destinations.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alfredjeanlab/userassets/internal/store"
)

// FormatVersion is written to and required in the export header.
const FormatVersion = "1"

// Record types.
const (
	typeHeader = "header"
	typeOwner  = "owner"
	typeAsset  = "asset"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version    string    `json:"version"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	OwnerCount int       `json:"owner_count"`
	AssetCount int       `json:"asset_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Summary counts what an export wrote.
type Summary struct {
	Owners int
	Assets int
}

// ExportJSONL writes every owner and asset in the store as JSONL to w: a
// header, the owners by id, then the assets ordered by owner, category and
// name. Owners come first so an import can recreate them before their assets.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) (Summary, error) {
	owners, err := s.ListOwners(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list owners: %w", err)
	}
	assets, err := s.ListAllAssets(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list assets: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:    FormatVersion,
		Type:       typeHeader,
		Timestamp:  time.Now().UTC(),
		OwnerCount: len(owners),
		AssetCount: len(assets),
	}); err != nil {
		return Summary{}, fmt.Errorf("encode header: %w", err)
	}

	for _, o := range owners {
		if err := enc.Encode(record{Type: typeOwner, Data: o}); err != nil {
			return Summary{}, fmt.Errorf("encode owner %d: %w", o.ID, err)
		}
	}
	for _, a := range assets {
		if err := enc.Encode(record{Type: typeAsset, Data: a}); err != nil {
			return Summary{}, fmt.Errorf("encode asset %d/%s: %w", a.OwnerID, a.Name, err)
		}
	}

	return Summary{Owners: len(owners), Assets: len(assets)}, nil
}
