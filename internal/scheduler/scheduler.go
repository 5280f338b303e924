package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go-jobwatch-automation/internal/config"

	"github.com/robfig/cron/v3"
)

// Task is one unit of scheduled work.
type Task func(ctx context.Context)

// Scheduler runs the fetch cycle on a fixed interval and the session check
// once a day. A task that is still running when its next tick fires skips that
// tick, and the two tasks never overlap each other.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger

	//held by whichever task is running
	mu sync.Mutex

	ctx     context.Context
	cycleID cron.EntryID
	checkID cron.EntryID

	runOnStart bool
}

func New(cfg config.ScheduleConfig, loc *time.Location, cycleTask, checkTask Task, log *slog.Logger) (*Scheduler, error) {
	hour, minute, err := cfg.CheckTime()
	if err != nil {
		return nil, err
	}
	if cfg.CycleEvery <= 0 {
		return nil, fmt.Errorf("cycle interval must be positive, got %s", cfg.CycleEvery)
	}

	cl := cronLogger{log: log}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		log:        log,
		ctx:        context.Background(),
		runOnStart: cfg.RunOnStart,
	}

	s.cycleID, err = s.add(cycleSpec(cfg.CycleEvery), "cycle", cycleTask)
	if err != nil {
		return nil, err
	}
	s.checkID, err = s.add(checkSpec(hour, minute), "session-check", checkTask)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func cycleSpec(every time.Duration) string {
	return "@every " + every.String()
}

func checkSpec(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

func (s *Scheduler) add(spec, name string, task Task) (cron.EntryID, error) {
	job := cron.NewChain(cron.SkipIfStillRunning(cronLogger{log: s.log})).Then(cron.FuncJob(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		start := time.Now()
		s.log.Info("⏰ Task started", "task", name)
		task(s.ctx)
		s.log.Info("✅ Task done", "task", name, "duration", time.Since(start).Round(time.Millisecond))
	}))

	id, err := s.cron.AddJob(spec, job)
	if err != nil {
		return 0, fmt.Errorf("failed to schedule %s (%q): %w", name, spec, err)
	}
	return id, nil
}

// Start begins firing tasks with ctx as their context. With RunOnStart set,
// a cycle runs immediately instead of waiting for the first interval.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()

	for _, e := range s.cron.Entries() {
		s.log.Info("📅 Scheduled", "entry", e.ID, "next_run", e.Next.Format("2006-01-02 15:04:05 MST"))
	}
	if s.runOnStart {
		go s.cron.Entry(s.cycleID).WrappedJob.Run()
	}
}

// Stop stops scheduling and returns a context that is done once running
// tasks have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// NextCycle and NextCheck report the next fire times, zero before Start.
func (s *Scheduler) NextCycle() time.Time { return s.cron.Entry(s.cycleID).Next }
func (s *Scheduler) NextCheck() time.Time { return s.cron.Entry(s.checkID).Next }

// cronLogger adapts slog to cron's logger interface.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
