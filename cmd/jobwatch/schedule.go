package main

import (
	"context"
	"time"

	"go-jobwatch-automation/internal/reporter"
	"go-jobwatch-automation/internal/scheduler"
	"go-jobwatch-automation/internal/server"
	"go-jobwatch-automation/internal/session"

	"github.com/spf13/cobra"
)

func scheduleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run cycles on an interval and check the session daily",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp()
			if err != nil {
				return err
			}
			unlock, err := a.lock()
			if err != nil {
				return err
			}
			defer unlock()

			runner, st, err := a.runner(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			state := server.NewState(time.Now())
			cycleTask := func(ctx context.Context) {
				res := runner.Run(ctx, "")
				state.RecordCycle(res.Summary)
			}
			checkTask := func(ctx context.Context) {
				report := session.EnsureHealthy(ctx, a.provider, true)
				state.RecordSession(report)
				_ = a.notifier.Status(ctx, reporter.FormatSession(report))
			}

			sched, err := scheduler.New(a.cfg.Schedule, a.cfg.Location(), cycleTask, checkTask, a.log)
			if err != nil {
				return err
			}
			sched.Start(ctx)
			state.SetSchedule(sched.NextCycle, sched.NextCheck)
			a.log.Info("🚀 Scheduler running",
				"every", a.cfg.Schedule.CycleEvery,
				"session_check_at", a.cfg.Schedule.SessionCheckAt,
				"time_zone", a.cfg.TimeZone)

			if a.cfg.StatusAddr != "" {
				srv := server.New(a.cfg.StatusAddr, state, a.log)
				go func() {
					if err := srv.Run(ctx); err != nil {
						a.log.Error("❌ Status server stopped", "error", err)
					}
				}()
			}

			<-ctx.Done()
			a.log.Info("🛑 Shutting down, waiting for running task")
			<-sched.Stop().Done()
			return nil
		},
	}
}
