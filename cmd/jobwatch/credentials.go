package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"go-jobwatch-automation/internal/secrets"

	"github.com/spf13/cobra"
)

func credentialsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage the portal password in the OS keyring",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Store the portal password (read from stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			account := secrets.PortalAccount(a.cfg)
			if account == "" {
				return errors.New("BCIT_USER (session.username) must be set first")
			}

			fmt.Fprint(os.Stderr, "Password: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read password: %w", err)
			}
			if err := secrets.SetPortalPassword(account, strings.TrimRight(line, "\r\n")); err != nil {
				return err
			}
			fmt.Printf("🔑 Password stored for %s\n", account)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the stored portal password",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			return secrets.DeletePortalPassword(secrets.PortalAccount(a.cfg))
		},
	})
	return cmd
}
