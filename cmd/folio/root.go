package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "folio",
		Short: "Import comics, read them from the terminal and serve them to viewers",
		Long: `folio keeps a library of comic archives (cbz, zip) and PDF documents in a
local SQLite database, streams their pages to viewers over HTTP and
remembers where each reader stopped.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddGroup(
		&cobra.Group{ID: "library", Title: "Library:"},
		&cobra.Group{ID: "reading", Title: "Reading:"},
		&cobra.Group{ID: "admin", Title: "Administration:"},
	)
	grouped := map[string][]*cobra.Command{
		"library": {newImportCommand(ctx), newListCommand(ctx), newShowCommand(ctx), newRemoveCommand(ctx)},
		"reading": {newPagesCommand(ctx), newCoverCommand(ctx), newProgressCommand(ctx)},
		"admin":   {newServeCommand(ctx), newStatusCommand(ctx), newConfigCommand(ctx)},
	}
	for group, cmds := range grouped {
		for _, c := range cmds {
			c.GroupID = group
			rootCmd.AddCommand(c)
		}
	}
	return rootCmd
}
