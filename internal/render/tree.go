package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/talenthium/patchtree/internal/patch"
)

// Placeholders shown instead of empty output.
const (
	NoFilesText = "No files"
	NoPatchText = "No patch data available for this file"
)

// Tree drawing glyphs
const (
	guideBranch = "├── "
	guideLast   = "└── "
	guidePipe   = "│   "
	guideBlank  = "    "
)

// TreeOptions controls tree output.
type TreeOptions struct {
	// Collapsed hides the children of folders for which it returns true.
	Collapsed func(path string) bool
	// Stats appends +N -N to files and folders.
	Stats bool
	// Width truncates lines to this many columns; 0 means unlimited.
	Width int
}

// TreeLines renders the forest one line per visible node.
func TreeLines(th Theme, roots []*patch.TreeNode, opts TreeOptions) []string {
	items := patch.Flatten(roots, opts.Collapsed)
	if len(items) == 0 {
		return []string{th.Muted.Render(NoFilesText)}
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, treeLine(th, item, opts))
	}
	return lines
}

// WriteTree writes TreeLines to w.
func WriteTree(w io.Writer, th Theme, roots []*patch.TreeNode, opts TreeOptions) error {
	for _, line := range TreeLines(th, roots, opts) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func treeLine(th Theme, item patch.RenderItem, opts TreeOptions) string {
	var prefix strings.Builder
	for _, continues := range item.Guides {
		if continues {
			prefix.WriteString(guidePipe)
		} else {
			prefix.WriteString(guideBlank)
		}
	}
	if item.Last {
		prefix.WriteString(guideLast)
	} else {
		prefix.WriteString(guideBranch)
	}

	node := item.Node
	var badge, name, stats, plain string
	if node.IsFolder {
		name = node.Name + "/"
		if opts.Collapsed != nil && opts.Collapsed(node.Path) && len(node.Children) > 0 {
			name += fmt.Sprintf(" (%d)", node.FileCount())
		}
	} else {
		badge = node.Status.Indicator()
		if badge == "" {
			badge = "?"
		}
		name = node.Name
	}
	if opts.Stats {
		adds, dels := node.TotalStats()
		stats = formatStats(th, adds, dels)
		plain = plainStats(adds, dels)
	}

	// plain widths drive truncation; styles are applied afterwards
	used := runewidth.StringWidth(prefix.String())
	if badge != "" {
		used += runewidth.StringWidth(badge) + 1
	}
	if stats != "" {
		used += runewidth.StringWidth(plain) + 1
	}
	if opts.Width > 0 {
		name = runewidth.Truncate(name, max(opts.Width-used, 1), "…")
	}

	var b strings.Builder
	b.WriteString(th.Muted.Render(prefix.String()))
	if badge != "" {
		b.WriteString(th.StatusStyle(node.Status).Render(badge))
		b.WriteByte(' ')
	}
	if node.IsFolder {
		b.WriteString(th.Folder.Render(name))
	} else {
		b.WriteString(th.Text.Render(name))
	}
	if stats != "" {
		b.WriteByte(' ')
		b.WriteString(stats)
	}
	return b.String()
}

func plainStats(additions, deletions int) string {
	var parts []string
	if additions > 0 {
		parts = append(parts, fmt.Sprintf("+%d", additions))
	}
	if deletions > 0 {
		parts = append(parts, fmt.Sprintf("-%d", deletions))
	}
	return strings.Join(parts, " ")
}

// formatStats formats the +N -N display, omitting zero counts.
func formatStats(th Theme, additions, deletions int) string {
	var parts []string
	if additions > 0 {
		parts = append(parts, th.Addition.Render(fmt.Sprintf("+%d", additions)))
	}
	if deletions > 0 {
		parts = append(parts, th.Deletion.Render(fmt.Sprintf("-%d", deletions)))
	}
	return strings.Join(parts, " ")
}
