package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"rolodex_reminder/internal/domain/trigger"

	"github.com/spf13/cobra"
)

func newOperatorCommands(withComponents withComponentsFunc) []*cobra.Command {
	runNow := &cobra.Command{
		Use:   "run-now",
		Short: "Scan the contact sheet now",
		Long:  "Run the first slice of a scan in this process. Later slices run in the serve process through continuation triggers.",
		Args:  cobra.NoArgs,
		RunE: withComponents(func(ctx context.Context, cmd *cobra.Command, c *components) error {
			res, err := c.operator.RunNow(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Rows %d-%d of %d checked, %d contacts matched.\n", res.Start, res.End-1, res.TotalRows-1, res.Matched)
			switch {
			case !res.Completed:
				fmt.Fprintln(out, "Scan continues in the background.")
			case res.DigestSent:
				fmt.Fprintf(out, "Reminder digest sent to %s.\n", res.Recipient)
			default:
				fmt.Fprintln(out, "No reminders today.")
			}
			return nil
		}),
	}

	var hour int
	installDaily := &cobra.Command{
		Use:   "install-daily",
		Short: "Set up the daily reminder trigger",
		Long:  "Replace the daily trigger. The hour comes from --hour, or from the sheet's trigger hour cell.",
		Args:  cobra.NoArgs,
		RunE: withComponents(func(ctx context.Context, cmd *cobra.Command, c *components) error {
			var override *int
			if cmd.Flags().Changed("hour") {
				override = &hour
			}
			installed, err := c.operator.InstallDailyFromSheet(ctx, override)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Daily reminder set for %d:00 (%s)\n", installed.Hour, installed.Timezone)
			return nil
		}),
	}
	installDaily.Flags().IntVar(&hour, "hour", 0, "hour of day (0-23); out-of-range values fall back to 9")

	removeTriggers := &cobra.Command{
		Use:   "remove-triggers",
		Short: "Remove all triggers",
		Args:  cobra.NoArgs,
		RunE: withComponents(func(ctx context.Context, cmd *cobra.Command, c *components) error {
			removed, err := c.operator.RemoveAllTriggers(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "All triggers removed (%d).\n", removed)
			return nil
		}),
	}

	setupSheet := &cobra.Command{
		Use:   "setup-sheet",
		Short: "Write the header row, formatting and default settings to the sheet",
		Args:  cobra.NoArgs,
		RunE: withComponents(func(ctx context.Context, cmd *cobra.Command, c *components) error {
			if err := c.operator.SetupSheet(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Setup complete. Sheet initialized and formatted.")
			return nil
		}),
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show installed triggers and scan progress",
		Args:  cobra.NoArgs,
		RunE: withComponents(func(ctx context.Context, cmd *cobra.Command, c *components) error {
			st, err := c.operator.Status(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if st.ScanActive {
				fmt.Fprintf(out, "Scan in progress: next row %d, %d rows accumulated\n", st.NextOffset, st.AccumRows)
			} else {
				fmt.Fprintln(out, "Scan: idle")
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tHANDLER\tKIND\tSCHEDULE")
			for _, t := range st.Triggers {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Handler, t.Kind, describeSchedule(t))
			}
			return tw.Flush()
		}),
	}

	return []*cobra.Command{runNow, installDaily, removeTriggers, setupSheet, status}
}

func describeSchedule(t *trigger.Trigger) string {
	if t.Kind == trigger.KindDaily {
		return fmt.Sprintf("daily %02d:00 %s", t.Hour, t.Timezone)
	}
	return t.FireAt.Local().Format(time.DateTime)
}
