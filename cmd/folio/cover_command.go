package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"folio/internal/fileutil"
	"folio/internal/textutil"
)

func newCoverCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "cover <id>",
		Short: "Copy a comic's cover thumbnail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				c, err := a.findComic(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if c.CoverPath == "" {
					return fmt.Errorf("no cover stored for %s", c.Title)
				}
				data, err := os.ReadFile(c.CoverPath)
				if err != nil {
					return fmt.Errorf("read cover: %w", err)
				}
				target := strings.TrimSpace(output)
				if target == "" {
					target = textutil.SanitizeToken(c.Title) + ".jpg"
				}
				if err := fileutil.WriteFileAtomic(target, data, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote cover to %s\n", target)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default derived from the title)")
	return cmd
}
