package cycle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-jobwatch-automation/internal/dedup"
	"go-jobwatch-automation/internal/logger"
	"go-jobwatch-automation/internal/models"
	"go-jobwatch-automation/internal/notify"
	"go-jobwatch-automation/internal/scraper"
	"go-jobwatch-automation/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	postings []models.Posting
	err      error
	calls    int
}

func (f *fakeFetcher) FetchAll(ctx context.Context, filters models.FetchFilters) ([]models.Posting, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.postings, nil
}

type fakeNotifier struct {
	sent     []string
	statuses []string
	fail     map[string]bool
}

func (f *fakeNotifier) NotifyAll(ctx context.Context, postings []models.Posting) []notify.DeliveryResult {
	out := make([]notify.DeliveryResult, 0, len(postings))
	for _, p := range postings {
		if f.fail[p.ID] {
			out = append(out, notify.DeliveryResult{PostingID: p.ID, Err: &notify.DeliveryError{PostingID: p.ID, Primary: errors.New("500")}})
			continue
		}
		f.sent = append(f.sent, p.ID)
		out = append(out, notify.DeliveryResult{PostingID: p.ID, Channel: "primary"})
	}
	return out
}

func (f *fakeNotifier) Status(ctx context.Context, text string) error {
	f.statuses = append(f.statuses, text)
	return nil
}

func posting(id, date string) models.Posting {
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		panic(err)
	}
	return models.Posting{ID: id, Title: "Job " + id, Company: "Acme", PostDate: d}
}

// brokenStore fails to load like an unreachable database.
type brokenStore struct {
	saves int
}

func (b *brokenStore) Load(ctx context.Context) (dedup.SeenSet, error) {
	return nil, errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
}

func (b *brokenStore) Save(ctx context.Context, seen dedup.SeenSet) error {
	b.saves++
	return nil
}

func (b *brokenStore) Close() error { return nil }

type fixture struct {
	runner   *Runner
	fetcher  *fakeFetcher
	notifier *fakeNotifier
	store    *store.FileStore
	csvPath  string
}

func newFixture(t *testing.T, seen ...string) *fixture {
	t.Helper()
	dir := t.TempDir()
	fs := store.NewFileStore(filepath.Join(dir, "seen.json"))
	if len(seen) > 0 {
		require.NoError(t, fs.Save(context.Background(), dedup.NewSeenSet(seen...)))
	}
	f := &fixture{
		fetcher:  &fakeFetcher{},
		notifier: &fakeNotifier{},
		store:    fs,
		csvPath:  filepath.Join(dir, "jobs.csv"),
	}
	f.runner = NewRunner(f.fetcher, fs, f.notifier, Options{
		OutputCSV: f.csvPath,
		PostSince: "2025-09-01",
		Location:  time.UTC,
	}, logger.Discard())
	f.runner.now = func() time.Time { return time.Date(2025, 9, 2, 9, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) seenIDs(t *testing.T) []string {
	t.Helper()
	seen, err := f.store.Load(context.Background())
	require.NoError(t, err)
	return seen.IDs()
}

func TestRun_NotifiesOnlyNewPostings(t *testing.T) {
	f := newFixture(t, "1001", "1002")
	f.fetcher.postings = []models.Posting{
		posting("1001", "2025-09-01"),
		posting("1003", "2025-09-02"),
		posting("1004", "2025-08-30"),
	}

	res := f.runner.Run(context.Background(), "")

	require.NoError(t, res.Summary.Err)
	assert.Equal(t, []string{"1003"}, f.notifier.sent)
	assert.Equal(t, []string{"1001", "1002", "1003"}, f.seenIDs(t))
	assert.Equal(t, 1, res.Summary.Delivered)
	assert.Equal(t, 1, res.Summary.Stale)
	assert.Equal(t, 1, res.Summary.AlreadySeen)
	assert.FileExists(t, f.csvPath)
	require.Len(t, f.notifier.statuses, 1)
	assert.Contains(t, f.notifier.statuses[0], "OK: job cycle")
}

func TestRun_SecondCycleSendsNothing(t *testing.T) {
	f := newFixture(t, "x")
	f.fetcher.postings = []models.Posting{posting("i", "2025-09-03")}

	f.runner.Run(context.Background(), "")
	res := f.runner.Run(context.Background(), "")

	assert.Equal(t, []string{"i"}, f.notifier.sent)
	assert.Zero(t, res.Summary.New)
	assert.Equal(t, 1, res.Summary.AlreadySeen)
}

func TestRun_SinceOverridesConfig(t *testing.T) {
	f := newFixture(t, "x")
	f.fetcher.postings = []models.Posting{posting("old", "2025-08-15")}

	res := f.runner.Run(context.Background(), "2025-08-01")
	assert.Equal(t, []string{"old"}, f.notifier.sent)
	assert.Equal(t, "2025-08-01", res.Summary.Cutoff.Format(time.DateOnly))

	res = f.runner.Run(context.Background(), "yesterday")
	assert.Error(t, res.Summary.Err)
	assert.Equal(t, 1, f.fetcher.calls)
}

func TestRun_FirstRunSeedsWithoutNotifying(t *testing.T) {
	f := newFixture(t)
	f.fetcher.postings = []models.Posting{
		posting("1", "2025-09-02"),
		posting("2", "2020-01-01"),
	}

	res := f.runner.Run(context.Background(), "")
	require.NoError(t, res.Summary.Err)
	assert.Equal(t, 2, res.Summary.Seeded)
	assert.Empty(t, f.notifier.sent)
	assert.Equal(t, []string{"1", "2"}, f.seenIDs(t))
	assert.Contains(t, f.notifier.statuses[0], "seeded 2")

	// seeding again is a no-op
	res = f.runner.Run(context.Background(), "")
	assert.Zero(t, res.Summary.Seeded)
	assert.Empty(t, f.notifier.sent)
}

func TestRun_FetchErrorLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, "1001")
	f.fetcher.err = &scraper.TransportError{Page: 3, Err: errors.New("timeout")}

	res := f.runner.Run(context.Background(), "")

	var te *scraper.TransportError
	require.ErrorAs(t, res.Summary.Err, &te)
	assert.Empty(t, f.notifier.sent)
	assert.Equal(t, []string{"1001"}, f.seenIDs(t))
	assert.NoFileExists(t, f.csvPath)
	require.Len(t, f.notifier.statuses, 1)
	assert.Contains(t, f.notifier.statuses[0], "FAILED")
}

func TestRun_SessionExpiredIsReported(t *testing.T) {
	f := newFixture(t, "1001")
	f.fetcher.err = scraper.ErrSessionExpired

	res := f.runner.Run(context.Background(), "")
	assert.ErrorIs(t, res.Summary.Err, scraper.ErrSessionExpired)
	assert.Contains(t, f.notifier.statuses[0], "jobwatch login")
}

func TestRun_CorruptSeenSetReseeds(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.store.Path(), []byte("[\"1001\","), 0644))
	f.fetcher.postings = []models.Posting{posting("1001", "2025-09-02"), posting("1005", "2025-09-02")}

	res := f.runner.Run(context.Background(), "")

	require.NoError(t, res.Summary.Err)
	assert.ErrorIs(t, res.Summary.LoadErr, store.ErrPersistence)
	assert.Equal(t, 2, res.Summary.Seeded)
	assert.Empty(t, f.notifier.sent)
	assert.Equal(t, []string{"1001", "1005"}, f.seenIDs(t))
}

func TestRun_DeliveryFailureKeepsMark(t *testing.T) {
	f := newFixture(t, "x")
	f.notifier.fail = map[string]bool{"a": true}
	f.fetcher.postings = []models.Posting{posting("a", "2025-09-02"), posting("b", "2025-09-02")}

	res := f.runner.Run(context.Background(), "")
	assert.Equal(t, 1, res.Summary.Delivered)
	assert.Equal(t, 1, res.Summary.Failed)
	assert.Contains(t, f.seenIDs(t), "a")

	f.notifier.fail = nil
	f.runner.Run(context.Background(), "")
	assert.Equal(t, []string{"b"}, f.notifier.sent)
}

func TestRun_SnapshotErrorDoesNotBlockNotify(t *testing.T) {
	f := newFixture(t, "x")
	f.runner.writeSnapshot = func(string, []models.Posting) error { return errors.New("read-only file system") }
	f.fetcher.postings = []models.Posting{posting("a", "2025-09-02")}

	res := f.runner.Run(context.Background(), "")
	require.NoError(t, res.Summary.Err)
	assert.Error(t, res.Summary.SnapshotErr)
	assert.Equal(t, []string{"a"}, f.notifier.sent)
	assert.Contains(t, f.notifier.statuses[0], "CSV not written")
}

func TestRun_UnreachableStoreAbortsWithoutSeeding(t *testing.T) {
	fetcher := &fakeFetcher{postings: []models.Posting{posting("a", "2025-09-02")}}
	notifier := &fakeNotifier{}
	st := &brokenStore{}
	r := NewRunner(fetcher, st, notifier, Options{PostSince: "2025-09-01", Location: time.UTC}, logger.Discard())

	res := r.Run(context.Background(), "")

	require.Error(t, res.Summary.Err)
	assert.NotErrorIs(t, res.Summary.Err, store.ErrPersistence)
	assert.Zero(t, res.Summary.Seeded)
	assert.Zero(t, st.saves)
	assert.Zero(t, fetcher.calls)
	assert.Empty(t, notifier.sent)
	assert.Contains(t, notifier.statuses[0], "FAILED")
}
