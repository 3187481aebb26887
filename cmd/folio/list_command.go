package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"folio/internal/comic"
	"folio/internal/services"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var status string
	var search string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List comics in the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				var (
					comics []*comic.Comic
					err    error
				)
				status = strings.ToLower(strings.TrimSpace(status))
				switch {
				case status != "":
					wanted := comic.ReadingStatus(status)
					if !wanted.Valid() {
						return services.Invalidf("unknown status %q (want unread, reading or completed)", status)
					}
					comics, err = a.store.FetchByStatus(cmd.Context(), wanted)
					if err == nil && search != "" {
						comics = filterComics(comics, search)
					}
				default:
					comics, err = a.store.Search(cmd.Context(), search)
				}
				if err != nil {
					return err
				}
				printComicTable(cmd.OutOrStdout(), comics)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only show comics with this reading status")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Match title, series, publisher or writer")
	return cmd
}

func filterComics(comics []*comic.Comic, q string) []*comic.Comic {
	q = strings.ToLower(strings.TrimSpace(q))
	var out []*comic.Comic
	for _, c := range comics {
		fields := []string{c.Title, comic.Deref(c.Metadata.Series), comic.Deref(c.Metadata.Publisher), comic.Deref(c.Metadata.Writer)}
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), q) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func printComicTable(out io.Writer, comics []*comic.Comic) {
	if len(comics) == 0 {
		fmt.Fprintln(out, "Library is empty")
		return
	}
	colorize := shouldColorize(out)
	rows := make([][]string, 0, len(comics))
	for _, c := range comics {
		rows = append(rows, []string{
			shortID(c.ID),
			c.Title,
			c.Metadata.IssueLabel(),
			comic.Deref(c.Metadata.Publisher),
			strconv.Itoa(c.PageCount),
			statusLabel(c, colorize),
		})
	}
	cols := capAll([]column{col("ID"), col("Title"), col("Issue"), col("Publisher"), col("Pages").alignRight(), col("Status")}, columnLimit(out))
	fmt.Fprintln(out, renderTable(cols, rows))
	fmt.Fprintf(out, "%d comic(s)\n", len(comics))
}

func statusLabel(c *comic.Comic, colorize bool) string {
	status := c.Status()
	label := string(status)
	if status == comic.StatusReading && c.Progress != nil && c.PageCount > 0 {
		label = fmt.Sprintf("%s %d/%d", label, c.Progress.CurrentPage+1, c.PageCount)
	}
	if !colorize {
		return label
	}
	switch status {
	case comic.StatusCompleted:
		return text.Colors{text.FgGreen}.Sprint(label)
	case comic.StatusReading:
		return text.Colors{text.FgYellow}.Sprint(label)
	default:
		return text.Colors{text.FgHiBlack}.Sprint(label)
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// columnLimit caps cell width so a table fits the terminal. Non-terminals
// get full-width cells.
func columnLimit(writer io.Writer) int {
	file, ok := writer.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return 0
	}
	limit := width / 3
	if limit < 16 {
		limit = 16
	}
	return limit
}
