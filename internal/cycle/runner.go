package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go-jobwatch-automation/internal/dedup"
	"go-jobwatch-automation/internal/filter"
	"go-jobwatch-automation/internal/models"
	"go-jobwatch-automation/internal/notify"
	"go-jobwatch-automation/internal/reporter"
	"go-jobwatch-automation/internal/scraper"
	"go-jobwatch-automation/internal/snapshot"
	"go-jobwatch-automation/internal/store"

	"github.com/google/uuid"
)

// Notifier delivers posting alerts and status lines.
type Notifier interface {
	NotifyAll(ctx context.Context, postings []models.Posting) []notify.DeliveryResult
	Status(ctx context.Context, text string) error
}

// Options are the per-deployment knobs of a cycle.
type Options struct {
	Filters   models.FetchFilters
	OutputCSV string
	//Cutoff from config, used when Run gets no override
	PostSince string
	Location  *time.Location
}

// Runner executes one fetch, sync, snapshot and notify cycle.
type Runner struct {
	fetcher  scraper.Fetcher
	store    store.SeenStore
	notifier Notifier
	opts     Options
	log      *slog.Logger

	now           func() time.Time
	writeSnapshot func(path string, postings []models.Posting) error
}

func NewRunner(fetcher scraper.Fetcher, st store.SeenStore, notifier Notifier, opts Options, log *slog.Logger) *Runner {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Runner{
		fetcher:       fetcher,
		store:         st,
		notifier:      notifier,
		opts:          opts,
		log:           log,
		now:           time.Now,
		writeSnapshot: snapshot.Write,
	}
}

// Result is the outcome of Run.
type Result struct {
	Summary    reporter.CycleSummary
	New        []models.Posting
	Deliveries []notify.DeliveryResult
}

// Run executes a cycle. since overrides the configured cutoff when non-empty.
// Every outcome, including failure, is reported to the status channel.
//
// The fetch is all-or-nothing: on any fetch error nothing is marked seen,
// nothing is sent and the CSV is left untouched. New postings are persisted as
// seen before the first alert goes out.
func (r *Runner) Run(ctx context.Context, since string) Result {
	started := r.now()
	res := Result{Summary: reporter.CycleSummary{
		CycleID:   uuid.NewString(),
		StartedAt: started.In(r.opts.Location),
	}}
	sum := &res.Summary
	log := r.log.With("cycle_id", sum.CycleID)

	defer func() {
		sum.Duration = r.now().Sub(started)
		if sum.Err != nil {
			log.Error("❌ Cycle failed", "error", sum.Err, "duration", sum.Duration)
		} else {
			log.Info("🏁 Cycle finished", "new", sum.New, "delivered", sum.Delivered, "duration", sum.Duration)
		}
		_ = r.notifier.Status(ctx, reporter.FormatCycle(*sum))
	}()

	cutoff, err := filter.ParseCutoff(started, r.opts.Location, since, r.opts.PostSince)
	if err != nil {
		sum.Err = err
		return res
	}
	sum.Cutoff = cutoff
	log.Info("🚀 Starting cycle", "since", cutoff.Format(time.DateOnly))

	seen, err := r.store.Load(ctx)
	switch {
	case errors.Is(err, store.ErrPersistence):
		log.Warn("⚠️ Seen-set unreadable, treating as empty", "error", err)
		sum.LoadErr = err
		seen = dedup.NewSeenSet()
	case err != nil:
		sum.Err = fmt.Errorf("load seen-set: %w", err)
		return res
	}

	fetched, err := r.fetcher.FetchAll(ctx, r.opts.Filters)
	if err != nil {
		sum.Err = fmt.Errorf("fetch: %w", err)
		return res
	}
	fetched = dedup.DedupeBatch(fetched)
	sum.Fetched = len(fetched)
	log.Info("📦 Fetched postings", "count", len(fetched))

	if n := dedup.SeedIfEmpty(fetched, seen); n > 0 {
		sum.Seeded = n
		log.Info("🌱 First run, seeding seen-set without notifying", "seeded", n)
	}

	part := dedup.Partition(fetched, seen, cutoff)
	sum.New = len(part.New)
	sum.Stale = len(part.Stale)
	sum.AlreadySeen = len(part.AlreadySeen)
	sum.NoID = len(part.NoID)
	res.New = part.New
	log.Info("🔍 Partitioned", "new", sum.New, "stale", sum.Stale, "already_seen", sum.AlreadySeen, "no_id", sum.NoID)

	// unsaved marks would resend these alerts next cycle
	if err := r.store.Save(ctx, seen); err != nil {
		sum.Err = fmt.Errorf("save seen-set: %w", err)
		return res
	}

	if r.opts.OutputCSV != "" {
		if err := r.writeSnapshot(r.opts.OutputCSV, fetched); err != nil {
			log.Warn("⚠️ Failed to write CSV snapshot", "path", r.opts.OutputCSV, "error", err)
			sum.SnapshotErr = err
		} else {
			log.Info("📁 Snapshot saved", "path", r.opts.OutputCSV, "rows", len(fetched))
		}
	}

	res.Deliveries = r.notifier.NotifyAll(ctx, part.New)
	for _, d := range res.Deliveries {
		if d.Err == nil {
			sum.Delivered++
		}
	}
	sum.Failed = sum.New - sum.Delivered
	return res
}
