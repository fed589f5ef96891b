package sync

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alfredjeanlab/userassets/internal/model"
	"github.com/alfredjeanlab/userassets/internal/service"
)

const maxLineSize = 16 << 20

// LineError is a record that could not be imported.
type LineError struct {
	Line int
	Err  error
}

func (e LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e LineError) Unwrap() error { return e.Err }

// ImportResult counts what ImportJSONL wrote.
type ImportResult struct {
	Owners   int // owners created
	Assets   int
	Failures []LineError
}

type rawRecord struct {
	Type    string          `json:"type"`
	Version string          `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// ImportJSONL replays an ExportJSONL stream into svc. Owners are matched by
// username and created when missing; assets are written through the
// validated Set path under the matching local owner. A record that fails is
// collected in Failures and the rest continue. A missing or unsupported
// header fails the whole import.
func ImportJSONL(ctx context.Context, svc *service.AssetService, r io.Reader) (ImportResult, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		res       ImportResult
		sawHeader bool
		owners    = make(map[int64]int64) // exported id -> local id
		line      int
	)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var rec rawRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			if !sawHeader {
				return res, fmt.Errorf("line %d: decode header: %w", line, err)
			}
			res.Failures = append(res.Failures, LineError{Line: line, Err: err})
			continue
		}

		if !sawHeader {
			if rec.Type != typeHeader {
				return res, fmt.Errorf("line %d: expected header record, got %q", line, rec.Type)
			}
			if rec.Version != FormatVersion {
				return res, fmt.Errorf("line %d: unsupported export version %q", line, rec.Version)
			}
			sawHeader = true
			continue
		}

		var err error
		switch rec.Type {
		case typeOwner:
			err = importOwner(ctx, svc, rec.Data, owners, &res)
		case typeAsset:
			err = importAsset(ctx, svc, rec.Data, owners)
			if err == nil {
				res.Assets++
			}
		default:
			err = fmt.Errorf("unknown record type %q", rec.Type)
		}
		if err != nil {
			res.Failures = append(res.Failures, LineError{Line: line, Err: err})
		}
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("read export: %w", err)
	}
	if !sawHeader {
		return res, errors.New("empty export: no header record")
	}
	return res, nil
}

func importOwner(ctx context.Context, svc *service.AssetService, data json.RawMessage, owners map[int64]int64, res *ImportResult) error {
	var o model.Owner
	if err := json.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("decode owner: %w", err)
	}
	local, err := svc.Store().GetOwnerByUsername(ctx, o.Username)
	if errors.Is(err, sql.ErrNoRows) {
		local, err = svc.CreateOwner(ctx, o.Username)
		if err == nil {
			res.Owners++
		}
	}
	if err != nil {
		return fmt.Errorf("owner %s: %w", o.Username, err)
	}
	owners[o.ID] = local.ID
	return nil
}

func importAsset(ctx context.Context, svc *service.AssetService, data json.RawMessage, owners map[int64]int64) error {
	var a model.Asset
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("decode asset: %w", err)
	}
	local, ok := owners[a.OwnerID]
	if !ok {
		return fmt.Errorf("asset %s: owner %d not in export", a.Name, a.OwnerID)
	}
	_, err := svc.Set(ctx, service.SetInput{
		OwnerID:     local,
		Name:        a.Name,
		Value:       a.Value,
		Type:        a.Type,
		Category:    a.Category,
		Description: a.Description,
	})
	if err != nil {
		return fmt.Errorf("asset %s.%s: %w", a.Category, a.Name, err)
	}
	return nil
}
