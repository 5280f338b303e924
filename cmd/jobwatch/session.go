package main

import (
	"errors"
	"fmt"

	"go-jobwatch-automation/internal/reporter"
	"go-jobwatch-automation/internal/session"

	"github.com/spf13/cobra"
)

func checkSessionCommand() *cobra.Command {
	var relogin bool

	cmd := &cobra.Command{
		Use:   "check-session",
		Short: "Probe the saved session and report to the status channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}

			report := session.EnsureHealthy(cmd.Context(), a.provider, relogin)
			text := reporter.FormatSession(report)
			fmt.Println(text)
			_ = a.notifier.Status(cmd.Context(), text)

			if !report.Healthy() {
				return errors.New("session is not healthy")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&relogin, "relogin", true, "log in again when the session is rejected and credentials are set")
	return cmd
}

func loginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Open a browser to sign in (MFA) and save the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			if err := a.provider.Login(cmd.Context()); err != nil {
				return err
			}

			h := a.provider.Check(cmd.Context())
			if !h.OK {
				return fmt.Errorf("login finished but the session check failed: %v", h.Err)
			}
			fmt.Printf("✅ Session saved to %s\n", a.cfg.Session.StateFile)
			return nil
		},
	}
}
