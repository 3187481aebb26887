package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disiqueira/gotree/v3"
	"github.com/spf13/cobra"

	"folio/internal/comic"
	"folio/internal/language"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a comic's metadata, credits and progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				c, err := a.findComic(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), comicTree(c).Print())
				return nil
			})
		},
	}
}

func comicTree(c *comic.Comic) gotree.Tree {
	tree := gotree.New(fmt.Sprintf("%s [%s]", c.Title, c.ID))
	m := c.Metadata

	info := tree.Add("Metadata")
	addField(info, "Series", comic.Deref(m.Series))
	addField(info, "Issue", m.IssueLabel())
	addField(info, "Publisher", comic.Deref(m.Publisher))
	addField(info, "Imprint", comic.Deref(m.Imprint))
	if date, ok := m.PublicationDate(); ok {
		layout := "2006"
		if m.Month != nil {
			layout = "January 2006"
		}
		addField(info, "Published", date.Format(layout))
	}
	addField(info, "Format", comic.Deref(m.Format))
	addField(info, "Genre", comic.Deref(m.Genre))
	addField(info, "Story arc", comic.Deref(m.StoryArc))
	addField(info, "Language", language.DisplayName(comic.Deref(m.LanguageISO)))
	addField(info, "Age rating", comic.Deref(m.AgeRating))
	addField(info, "Scan", comic.Deref(m.ScanInformation))
	if summary := strings.TrimSpace(comic.Deref(m.Summary)); summary != "" {
		addField(info, "Summary", truncate(summary, 120))
	}

	if credits := m.Credits(); len(credits) > 0 {
		branch := tree.Add("Credits")
		for _, credit := range credits {
			addField(branch, credit.Role, strings.Join(credit.Names, ", "))
		}
	}

	reading := tree.Add("Progress")
	addField(reading, "Status", string(c.Status()))
	if c.Progress != nil {
		addField(reading, "Page", fmt.Sprintf("%d of %d", c.Progress.CurrentPage+1, c.PageCount))
		addField(reading, "Updated", c.Progress.LastUpdate.Local().Format("2006-01-02 15:04"))
	}

	file := tree.Add("File")
	addField(file, "Path", c.Path)
	addField(file, "Kind", string(c.Kind))
	addField(file, "Pages", fmt.Sprintf("%d", c.PageCount))
	addField(file, "Size", humanBytes(c.FileSize))
	addField(file, "Bundled", yesNo(c.Bundled))
	if c.CoverPath != "" {
		addField(file, "Cover", filepath.Base(c.CoverPath))
	}
	return tree
}

func addField(tree gotree.Tree, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	tree.Add(label + ": " + value)
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
