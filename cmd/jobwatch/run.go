package main

import (
	"fmt"
	"os"
	"time"

	"go-jobwatch-automation/internal/models"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func runCommand() *cobra.Command {
	var since string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one fetch cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			unlock, err := a.lock()
			if err != nil {
				return err
			}
			defer unlock()

			runner, st, err := a.runner(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			res := runner.Run(cmd.Context(), since)
			printPostings(res.New)
			if res.Summary.Err != nil {
				return res.Summary.Err
			}
			if res.Summary.Failed > 0 {
				return fmt.Errorf("%d of %d alerts could not be delivered", res.Summary.Failed, res.Summary.New)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "only notify postings dated on or after YYYY-MM-DD (default POST_SINCE, else today)")
	return cmd
}

func printPostings(postings []models.Posting) {
	if len(postings) == 0 {
		fmt.Println("ℹ️ No new postings.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Title", "Company", "Posted", "Link"})
	for _, p := range postings {
		t.AppendRow(table.Row{p.ID, p.Title, p.Company, p.PostDate.Format(time.DateOnly), p.URL})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(postings)})
	t.Render()
}
