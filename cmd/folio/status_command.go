package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"folio/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check directories, signing key, library database and viewer API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, checkLabel(r.Passed, colorize), r.Detail})
			}
			fmt.Fprintln(out, renderTable([]column{col("Check"), col("Result"), col("Detail").capped(columnLimit(out))}, rows))
			if preflight.Failed(results) {
				return fmt.Errorf("one or more checks failed")
			}
			return nil
		},
	}
}

func checkLabel(passed, colorize bool) string {
	label := "ok"
	color := text.Colors{text.FgGreen}
	if !passed {
		label = "FAIL"
		color = text.Colors{text.FgRed}
	}
	if !colorize {
		return label
	}
	return color.Sprint(label)
}
