package sync

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/userassets/internal/events"
	"github.com/alfredjeanlab/userassets/internal/idgen"
	"github.com/alfredjeanlab/userassets/internal/model"
	"github.com/alfredjeanlab/userassets/internal/store"
)

// Destination is the interface for a backup target (file, S3, git).
type Destination interface {
	// Name identifies the destination in backup records.
	Name() string
	// Write sends the JSONL payload to the destination.
	Write(ctx context.Context, data []byte) error
}

// Scheduler runs periodic backups to one or more destinations.
type Scheduler struct {
	store        store.Store
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger
	publisher    events.Publisher

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from the store to the given
// destinations at the specified interval. A nil publisher discards events.
func NewScheduler(s store.Store, destinations []Destination, interval time.Duration, logger *slog.Logger, pub events.Publisher) *Scheduler {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	return &Scheduler{
		store:        s,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
		publisher:    pub,
	}
}

// Start begins periodic backups. It runs an initial backup immediately,
// then on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current backup (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce exports the store and writes it to every destination. Each
// successful write is recorded as a backup; failed writes are logged and
// skipped. It returns the recorded backups.
func (s *Scheduler) RunOnce(ctx context.Context) []*model.Backup {
	var buf bytes.Buffer
	sum, err := ExportJSONL(ctx, s.store, &buf)
	if err != nil {
		s.logger.Error("backup export failed", "err", err)
		return nil
	}
	data := buf.Bytes()

	var done []*model.Backup
	for _, dest := range s.destinations {
		if err := dest.Write(ctx, data); err != nil {
			s.logger.Error("backup destination write failed", "destination", dest.Name(), "err", err)
			continue
		}
		id, err := idgen.BackupID()
		if err != nil {
			s.logger.Error("backup id generation failed", "err", err)
			continue
		}
		b := &model.Backup{
			ID:          id,
			Destination: dest.Name(),
			AssetCount:  sum.Assets,
			Bytes:       len(data),
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.store.RecordBackup(ctx, b); err != nil {
			s.logger.Error("failed to record backup", "destination", dest.Name(), "err", err)
			continue
		}
		if err := s.publisher.Publish(ctx, events.TopicBackupCompleted, events.BackupCompleted{Backup: b}); err != nil {
			s.logger.Warn("failed to publish event", "topic", events.TopicBackupCompleted, "err", err)
		}
		done = append(done, b)
	}

	s.logger.Info("backup completed", "destinations", len(done), "assets", sum.Assets, "bytes", len(data))
	return done
}
