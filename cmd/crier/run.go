package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/viant/crier/internal/clock"
	"github.com/viant/crier/model"
)

func newSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Run one action session now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.srv.Close()
			if err := a.srv.Open(); err != nil {
				return err
			}
			wait := a.listen(ctx)
			report, err := a.srv.RunSession(ctx)
			stop()
			wait()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "picked=%d posted=%d failed=%d denied=%d backlogged=%d rethink=%d skipped=%d invalid=%d\n",
				report.Picked, report.Posted, report.Failed, report.Denied, report.Backlogged, report.Rethink, report.Skipped, report.Invalid)
			return nil
		},
	}
}

func newCurateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "curate",
		Short: "Scan feeds and evaluate new curation candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.srv.Close()
			approved, err := a.srv.RunCuration(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "approved=%d\n", approved)
			return nil
		},
	}
}

func newDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Search platforms for posts to like or repost",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.srv.Close()
			found, err := a.srv.DiscoverEngagements(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "found=%d\n", found)
			return nil
		},
	}
}

func newCalendarCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Plan the content calendar for a week",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := clock.Now()
			if date != "" {
				parsed, err := time.Parse(model.DateLayout, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", date, err)
				}
				start = parsed
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.srv.Close()
			count, err := a.srv.GenerateCalendar(cmd.Context(), start)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "planned=%d\n", count)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "any day of the week to plan (YYYY-MM-DD), defaults to today")
	return cmd
}

func newListenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Relay reviewer decisions until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.srv.Close()
			if err := a.srv.Open(); err != nil {
				return err
			}
			return a.srv.Listen(ctx)
		},
	}
}
