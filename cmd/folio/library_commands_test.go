package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// importOne imports path and returns the short id printed for it.
func importOne(t *testing.T, env *cliTestEnv, path string) string {
	t.Helper()
	out, _, err := runCLI(t, []string{"import", path}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	requireContains(t, out, "1 imported, 0 duplicate, 0 failed")
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "imported") || !strings.Contains(line, "│") {
			continue
		}
		cells := strings.Split(line, "│")
		if len(cells) > 2 {
			return strings.TrimSpace(cells[2])
		}
	}
	t.Fatalf("no id in import output:\n%s", out)
	return ""
}

func TestImportListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	id := importOne(t, env, env.writeComic(t, "Saga 001 (2012) (Image).cbz", 4))

	out, _, err := runCLI(t, []string{"import", env.comicsDir}, env.configPath)
	if err != nil {
		t.Fatalf("re-import dir: %v", err)
	}
	requireContains(t, out, "0 imported, 1 duplicate, 0 failed")

	out, _, err = runCLI(t, []string{"list"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "Saga #001")
	requireContains(t, out, "Image Comics")
	requireContains(t, out, "unread")

	out, _, err = runCLI(t, []string{"show", id}, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, fragment := range []string{"Metadata", "Series: Saga", "Publisher: Image Comics", "Published: 2012", "Status: unread", "Pages: 4"} {
		requireContains(t, out, fragment)
	}

	if _, _, err := runCLI(t, []string{"show", "ffffffff-none"}, env.configPath); err == nil {
		t.Fatal("expected show to fail for unknown id")
	}
}

func TestImportReportsFailures(t *testing.T) {
	env := setupCLITestEnv(t)
	broken := filepath.Join(env.comicsDir, "broken.cbz")
	if err := os.WriteFile(broken, []byte("nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, _, err := runCLI(t, []string{"import", broken}, env.configPath)
	if err == nil {
		t.Fatal("expected failed import to return an error")
	}
	requireContains(t, out, "Invalid or unsupported comic file format")
}

func TestProgressCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	id := importOne(t, env, env.writeComic(t, "Saga 001.cbz", 5))

	out, _, err := runCLI(t, []string{"progress", "set", id, "3"}, env.configPath)
	if err != nil {
		t.Fatalf("progress set: %v", err)
	}
	requireContains(t, out, "page 3 of 5 (reading)")

	out, _, err = runCLI(t, []string{"list", "--status", "reading"}, env.configPath)
	if err != nil {
		t.Fatalf("list reading: %v", err)
	}
	requireContains(t, out, "reading 3/5")

	out, _, err = runCLI(t, []string{"progress", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("progress stats: %v", err)
	}
	requireContains(t, out, "Reading")

	if _, _, err := runCLI(t, []string{"progress", "set", id, "9"}, env.configPath); err == nil {
		t.Fatal("expected out of range page to fail")
	}
	if _, _, err := runCLI(t, []string{"progress", "clear-all"}, env.configPath); err == nil {
		t.Fatal("expected clear-all to require --yes")
	}
	if _, _, err := runCLI(t, []string{"progress", "clear-all", "--yes"}, env.configPath); err != nil {
		t.Fatalf("clear-all: %v", err)
	}
	out, _, err = runCLI(t, []string{"list", "--status", "unread"}, env.configPath)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	requireContains(t, out, "1 comic(s)")
}

func TestPagesExportCoverAndRemove(t *testing.T) {
	env := setupCLITestEnv(t)
	id := importOne(t, env, env.writeComic(t, "Saga 001.cbz", 3))

	exportDir := filepath.Join(t.TempDir(), "pages")
	out, _, err := runCLI(t, []string{"pages", "export", id, exportDir, "--from", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("pages export: %v", err)
	}
	requireContains(t, out, "Exported 2 of 2 pages")
	entries, err := os.ReadDir(exportDir)
	if err != nil || len(entries) != 2 {
		t.Fatalf("expected two exported pages, got %v (%v)", entries, err)
	}
	if entries[0].Name() != "Saga #001 002.png" {
		t.Fatalf("unexpected export name %q", entries[0].Name())
	}

	coverPath := filepath.Join(t.TempDir(), "cover.jpg")
	if _, _, err := runCLI(t, []string{"cover", id, "-o", coverPath}, env.configPath); err != nil {
		t.Fatalf("cover: %v", err)
	}
	if info, err := os.Stat(coverPath); err != nil || info.Size() == 0 {
		t.Fatalf("expected cover file: %v", err)
	}

	out, _, err = runCLI(t, []string{"remove", id}, env.configPath)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	requireContains(t, out, "Removed Saga #001")
	out, _, err = runCLI(t, []string{"list"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "Library is empty")
}

func TestPageRange(t *testing.T) {
	tests := []struct {
		from, to, total int
		first, last     int
		wantErr         bool
	}{
		{1, 0, 10, 0, 9, false},
		{3, 5, 10, 2, 4, false},
		{0, 99, 4, 0, 3, false},
		{6, 2, 10, 0, 0, true},
	}
	for _, tt := range tests {
		first, last, err := pageRange(tt.from, tt.to, tt.total)
		if (err != nil) != tt.wantErr {
			t.Fatalf("pageRange(%d,%d,%d) err=%v", tt.from, tt.to, tt.total, err)
		}
		if !tt.wantErr && (first != tt.first || last != tt.last) {
			t.Fatalf("pageRange(%d,%d,%d) = %d,%d", tt.from, tt.to, tt.total, first, last)
		}
	}
}
