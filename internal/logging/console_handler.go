package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// prettyHandler renders one header line per record followed by indented
// fields. Info and above show the highlighted fields first and fold away
// identifiers; debug shows everything.
type prettyHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	attrs     []slog.Attr
	groups    []string
	addSource bool
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{mu: &sync.Mutex{}, w: w, level: lvl, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// header holds the values lifted out of the field list into the first line.
type header struct {
	component string
	comicID   string
	sessionID string
	page      string
	pages     string
}

func (hd *header) lift(f field) bool {
	switch f.key {
	case FieldComponent:
		hd.component = attrString(f.value)
	case FieldComicID:
		hd.comicID = attrString(f.value)
		return false
	case FieldSessionID:
		hd.sessionID = attrString(f.value)
		return false
	case FieldPageIndex:
		hd.page = attrString(f.value)
	case FieldPageCount:
		hd.pages = attrString(f.value)
	default:
		return false
	}
	return true
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	fields := make([]field, 0, record.NumAttrs()+len(h.attrs))
	flattenAttrs(&fields, h.groups, h.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&fields, h.groups, attr)
		return true
	})
	fields = lastWins(fields)

	var hd header
	rest := fields[:0]
	for _, f := range fields {
		if !hd.lift(f) {
			rest = append(rest, f)
		}
	}

	var buf bytes.Buffer
	buf.Grow(256 + len(rest)*32)
	h.writeHeader(&buf, ts, record, hd)
	if record.Level < slog.LevelInfo {
		for _, f := range rest {
			buf.WriteString("    ")
			buf.WriteString(f.key)
			buf.WriteString(": ")
			buf.WriteString(formatValue(f.value))
			buf.WriteByte('\n')
		}
	} else {
		shown, hidden := infoFields(rest)
		for _, f := range shown {
			buf.WriteString("    - ")
			buf.WriteString(displayLabel(f.key))
			buf.WriteString(": ")
			buf.WriteString(formatValue(f.value))
			buf.WriteByte('\n')
		}
		if hidden > 0 {
			buf.WriteString("    + " + strconv.Itoa(hidden) + " more " + pluralField(hidden) + " hidden\n")
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func pluralField(n int) string {
	if n == 1 {
		return "field"
	}
	return "fields"
}

func (h *prettyHandler) writeHeader(buf *bytes.Buffer, ts time.Time, record slog.Record, hd header) {
	buf.WriteString(formatTimestamp(ts))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))
	if hd.component != "" {
		buf.WriteString(" [" + hd.component + "]")
	}
	if subject := hd.subject(); subject != "" {
		buf.WriteString(" " + subject)
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	buf.WriteString(" – " + msg)
	if h.addSource && record.PC != 0 {
		if src := record.Source(); src != nil {
			buf.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
		}
	}
	buf.WriteByte('\n')
}

// subject reads like "Comic 0f8fad5b (session 3c1e9b2a) page 4/24".
func (hd header) subject() string {
	var parts []string
	switch comic, session := shortID(hd.comicID), shortID(hd.sessionID); {
	case comic != "" && session != "":
		parts = append(parts, "Comic "+comic+" (session "+session+")")
	case comic != "":
		parts = append(parts, "Comic "+comic)
	case session != "":
		parts = append(parts, "Session "+session)
	}
	switch {
	case hd.page != "" && hd.pages != "":
		parts = append(parts, "page "+hd.page+"/"+hd.pages)
	case hd.page != "":
		parts = append(parts, "page "+hd.page)
	case hd.pages != "":
		parts = append(parts, hd.pages+" pages")
	}
	return strings.Join(parts, " ")
}

// shortID trims uuids to their first group.
func shortID(id string) string {
	id = strings.TrimSpace(id)
	if idx := strings.IndexByte(id, '-'); idx == 8 {
		return id[:idx]
	}
	return id
}

var highlighted = []string{
	FieldEventType,
	"title",
	"path",
	"kind",
	"status",
	"error",
	FieldErrorHint,
	FieldImpact,
}

const maxInfoValue = 120

// infoFields orders highlighted keys first and counts what it hides.
func infoFields(fields []field) ([]field, int) {
	if len(fields) == 0 {
		return nil, 0
	}
	rank := make(map[string]int, len(highlighted))
	for i, key := range highlighted {
		rank[key] = i
	}
	var top, others []field
	hidden := 0
	for _, f := range fields {
		if _, ok := rank[f.key]; ok {
			top = append(top, f)
			continue
		}
		if debugOnly(f.key) || len(formatValue(f.value)) > maxInfoValue {
			hidden++
			continue
		}
		others = append(others, f)
	}
	for i := 1; i < len(top); i++ {
		for j := i; j > 0 && rank[top[j].key] < rank[top[j-1].key]; j-- {
			top[j], top[j-1] = top[j-1], top[j]
		}
	}
	return append(top, others...), hidden
}

func debugOnly(key string) bool {
	switch key {
	case "", FieldComicID, FieldSessionID, FieldCorrelationID, "fingerprint", "token":
		return true
	}
	return strings.HasSuffix(key, "_id")
}

func displayLabel(key string) string {
	switch key {
	case FieldEventType:
		return "Event"
	case FieldErrorHint:
		return "Hint"
	}
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, part := range parts {
		lower := strings.ToLower(part)
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	clone.attrs = append(clone.attrs, attrs...)
	return clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *prettyHandler) clone() *prettyHandler {
	c := *h
	c.attrs = append([]slog.Attr(nil), h.attrs...)
	c.groups = append([]string(nil), h.groups...)
	return &c
}

type field struct {
	key   string
	value slog.Value
}

// lastWins drops earlier duplicates of a key, keeping the first position.
func lastWins(fields []field) []field {
	if len(fields) < 2 {
		return fields
	}
	pos := make(map[string]int, len(fields))
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if i, ok := pos[f.key]; ok {
			out[i].value = f.value
			continue
		}
		pos[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func flattenAttrs(dst *[]field, prefix []string, attrs []slog.Attr) {
	for _, attr := range attrs {
		flattenAttr(dst, prefix, attr)
	}
}

func flattenAttr(dst *[]field, prefix []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = append(append([]string{}, prefix...), attr.Key)
		}
		flattenAttrs(dst, next, attr.Value.Group())
		return
	}
	key := attr.Key
	if len(prefix) > 0 {
		key = strings.Join(prefix, ".") + "." + key
	}
	*dst = append(*dst, field{key: key, value: scrub(key, attr.Value)})
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN "
	case level >= slog.LevelInfo:
		return "INFO "
	default:
		return "DEBUG"
	}
}
