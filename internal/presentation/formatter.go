package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/talenthium/patchtree/internal/store"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
	now    func() time.Time
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
		now:    time.Now,
	}
}

// JSON writes v as indented JSON.
func (f *Formatter) JSON(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// Languages writes one "filename<TAB>language" line per entry.
func (f *Formatter) Languages(dtos []LanguageDTO) error {
	for _, d := range dtos {
		if _, err := fmt.Fprintf(f.writer, "%s\t%s\n", d.Filename, d.Language); err != nil {
			return err
		}
	}
	return nil
}

// Snapshots writes a fixed-width table of stored snapshots.
func (f *Formatter) Snapshots(infos []store.SnapshotInfo) error {
	if len(infos) == 0 {
		_, err := fmt.Fprintln(f.writer, "No snapshots")
		return err
	}

	header := []string{"ID", "PROJECT", "COMMIT", "FILES", "CHANGES", "SAVED", "MESSAGE"}
	rows := [][]string{header}
	for _, s := range infos {
		subject, _, _ := strings.Cut(s.Message, "\n")
		rows = append(rows, []string{
			shortID(s.ID),
			s.ProjectID,
			shortHash(s.CommitHash),
			humanize.Comma(int64(s.FileCount)),
			fmt.Sprintf("+%d -%d", s.Additions, s.Deletions),
			humanize.RelTime(s.CreatedAt, f.now(), "ago", "from now"),
			runewidth.Truncate(subject, 50, "…"),
		})
	}

	widths := make([]int, len(header))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	for _, row := range rows {
		var b strings.Builder
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString("  ")
		}
		if _, err := fmt.Fprintln(f.writer, strings.TrimRight(b.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
