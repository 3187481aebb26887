package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"folio/internal/comic"
	"folio/internal/fileutil"
	"folio/internal/logging"
	"folio/internal/pagestream"
	"folio/internal/services"
	"folio/internal/textutil"
)

func newPagesCommand(ctx *commandContext) *cobra.Command {
	pagesCmd := &cobra.Command{
		Use:   "pages",
		Short: "Work with the pages of a comic",
	}
	pagesCmd.AddCommand(newPagesExportCommand(ctx))
	return pagesCmd
}

func newPagesExportCommand(ctx *commandContext) *cobra.Command {
	var from, to int

	cmd := &cobra.Command{
		Use:   "export <id> <dir>",
		Short: "Write page images to a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				c, err := a.findComic(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				opts := pagestream.OptionsFromConfig(a.cfg)
				opts.ComicID = c.ID
				opts.LastKnownPath = c.Path
				// Export reads pages on demand; no background walk competes.
				opts.PrefetchRate = 0
				sess, err := pagestream.Open(cmd.Context(), pagestream.Deps{
					Resolver: pagestream.AccessResolver(a.resolver),
					Logger:   a.logger,
				}, c.Ref(), opts)
				if err != nil {
					return fmt.Errorf("%s: %w", comic.UserMessage(err), err)
				}
				defer sess.Close()

				first, last, err := pageRange(from, to, sess.Total())
				if err != nil {
					return err
				}
				dir := args[1]
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create %s: %w", dir, err)
				}
				base := textutil.SanitizeFileName(c.Title)
				if base == "" {
					base = shortID(c.ID)
				}
				written := 0
				for i := first; i <= last; i++ {
					page, err := sess.EnsurePageReady(cmd.Context(), i)
					if err != nil {
						logging.WarnWithContext(a.logger, "page not exported", "page_export_failed",
							logging.Page(i),
							logging.Error(err),
						)
						fmt.Fprintf(cmd.ErrOrStderr(), "page %d: %s\n", i+1, comic.UserMessage(err))
						continue
					}
					name := fmt.Sprintf("%s %03d%s", base, i+1, pageExt(page))
					if err := fileutil.WriteFileAtomic(filepath.Join(dir, name), page.Data, 0o644); err != nil {
						return err
					}
					written++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d of %d %s to %s\n",
					written, last-first+1, textutil.Plural(last-first+1, "page", "pages"), dir)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&from, "from", 1, "First page to export (1-based)")
	cmd.Flags().IntVar(&to, "to", 0, "Last page to export (1-based, default last page)")
	return cmd
}

// pageRange converts 1-based flags into 0-based inclusive bounds.
func pageRange(from, to, total int) (int, int, error) {
	if to <= 0 || to > total {
		to = total
	}
	if from < 1 {
		from = 1
	}
	if from > to {
		return 0, 0, services.Invalidf("page range %d-%d is empty for a %d page comic", from, to, total)
	}
	return from - 1, to - 1, nil
}

func pageExt(page comic.Page) string {
	if ext := strings.ToLower(filepath.Ext(page.Name)); ext != "" {
		return ext
	}
	return ".png"
}
