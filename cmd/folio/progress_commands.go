package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"folio/internal/services"
)

func newProgressCommand(ctx *commandContext) *cobra.Command {
	progressCmd := &cobra.Command{
		Use:   "progress",
		Short: "Inspect and edit reading progress",
	}
	progressCmd.AddCommand(
		newProgressSetCommand(ctx),
		newProgressClearCommand(ctx),
		newProgressClearAllCommand(ctx),
		newProgressStatsCommand(ctx),
	)
	return progressCmd
}

func newProgressSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <page>",
		Short: "Record the current page (1-based)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := strconv.Atoi(args[1])
			if err != nil || page < 1 {
				return services.Invalidf("page must be a positive number, got %q", args[1])
			}
			return ctx.withApp(func(a *app) error {
				c, err := a.findComic(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if page > c.PageCount {
					return services.Invalidf("%s has %d pages", c.Title, c.PageCount)
				}
				p, err := a.tracker.Update(cmd.Context(), c.ID, page-1, c.PageCount)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: page %d of %d (%s)\n", c.Title, p.CurrentPage+1, c.PageCount, p.Status)
				return nil
			})
		},
	}
}

func newProgressClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <id>",
		Short: "Mark a comic unread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				c, err := a.findComic(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := a.tracker.Clear(cmd.Context(), c.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared progress for %s\n", c.Title)
				return nil
			})
		},
	}
}

func newProgressClearAllCommand(ctx *commandContext) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "clear-all",
		Short: "Mark every comic unread",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return services.Invalidf("refusing to clear all progress without --yes")
			}
			return ctx.withApp(func(a *app) error {
				if err := a.tracker.ClearAll(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cleared all reading progress")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Confirm clearing every record")
	return cmd
}

func newProgressStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count comics by reading status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				stats, err := a.tracker.Stats(cmd.Context())
				if err != nil {
					return err
				}
				rows := [][]string{
					{"Unread", strconv.Itoa(stats.Unread)},
					{"Reading", strconv.Itoa(stats.Reading)},
					{"Completed", strconv.Itoa(stats.Completed)},
					{"Total", strconv.Itoa(stats.Total())},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{col("Status"), col("Comics").alignRight()}, rows))
				return nil
			})
		},
	}
}
