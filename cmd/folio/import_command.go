package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"folio/internal/comic"
	"folio/internal/library"
	"folio/internal/services"
	"folio/internal/textutil"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var bundle bool

	cmd := &cobra.Command{
		Use:   "import <path>...",
		Short: "Add comic files or directories to the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				var outcomes []library.Outcome
				for _, arg := range args {
					info, err := os.Stat(arg)
					if err != nil {
						return fmt.Errorf("stat %s: %w", arg, err)
					}
					if info.IsDir() {
						if bundle {
							return services.Invalidf("--bundle takes files, not directories: %s", arg)
						}
						dirOutcomes, err := a.importer.ImportDir(cmd.Context(), arg)
						outcomes = append(outcomes, dirOutcomes...)
						if err != nil {
							return err
						}
						continue
					}
					var c *comic.Comic
					if bundle {
						c, err = a.importer.Bundle(cmd.Context(), arg)
					} else {
						c, err = a.importer.Import(cmd.Context(), arg)
					}
					if errors.Is(err, library.ErrImportLocked) {
						return err
					}
					outcomes = append(outcomes, library.NewOutcome(arg, c, err))
				}
				return printOutcomes(cmd, outcomes)
			})
		},
	}

	cmd.Flags().BoolVar(&bundle, "bundle", false, "Copy the file into the library's bundled directory")
	return cmd
}

func printOutcomes(cmd *cobra.Command, outcomes []library.Outcome) error {
	out := cmd.OutOrStdout()
	if len(outcomes) == 0 {
		fmt.Fprintln(out, "No comic files found")
		return nil
	}
	rows := make([][]string, 0, len(outcomes))
	var imported, duplicates, failed int
	for _, o := range outcomes {
		id, title := "", ""
		if o.Comic != nil {
			id, title = shortID(o.Comic.ID), o.Comic.Title
		}
		switch o.Status {
		case library.OutcomeImported:
			imported++
		case library.OutcomeDuplicate:
			duplicates++
		default:
			failed++
		}
		rows = append(rows, []string{o.Status, id, title, o.Path, o.Message})
	}
	fmt.Fprintln(out, renderTable([]column{col("Result"), col("ID"), col("Title"), col("File"), col("Note")}, rows))
	fmt.Fprintf(out, "%d imported, %d duplicate, %d failed\n", imported, duplicates, failed)
	if failed > 0 {
		return fmt.Errorf("%d %s could not be imported", failed, textutil.Plural(failed, "file", "files"))
	}
	return nil
}
