// Package render draws file trees, side-by-side diffs and commit headers as
// terminal text.
package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/talenthium/patchtree/internal/patch"
)

// Theme modes.
const (
	ModeDark  = "dark"
	ModeLight = "light"
)

type palette struct {
	text, muted, folder         lipgloss.Color
	addition, deletion, context lipgloss.Color
	modified, renamed, hunk     lipgloss.Color
	wordAddBg, wordDelBg        lipgloss.Color
}

var (
	darkPalette = palette{
		text:      "#CCCCCC",
		muted:     "#696969",
		folder:    "#89B4FA",
		addition:  "#73F59F",
		deletion:  "#FF8787",
		context:   "#BBBBBB",
		modified:  "#FECA57",
		renamed:   "#CBA6F7",
		hunk:      "#94E2D5",
		wordAddBg: "#1E4620",
		wordDelBg: "#5C1E1E",
	}
	lightPalette = palette{
		text:      "#333333",
		muted:     "#888888",
		folder:    "#1E66F5",
		addition:  "#2E8B57",
		deletion:  "#D20F39",
		context:   "#555555",
		modified:  "#DF8E1D",
		renamed:   "#8839EF",
		hunk:      "#179299",
		wordAddBg: "#CCF2D4",
		wordDelBg: "#F8D0D0",
	}
)

// Theme is the set of styles used by every renderer. It is an explicit value,
// built once from config and passed down.
type Theme struct {
	Mode string

	Text     lipgloss.Style
	Muted    lipgloss.Style
	Folder   lipgloss.Style
	Title    lipgloss.Style
	Addition lipgloss.Style
	Deletion lipgloss.Style
	Context  lipgloss.Style
	Hunk     lipgloss.Style
	WordAdd  lipgloss.Style
	WordDel  lipgloss.Style

	statuses map[patch.Status]lipgloss.Style
}

// NewTheme builds a theme for mode ("light" or "dark"; anything else is dark)
// whose color depth is detected from out.
func NewTheme(mode string, out io.Writer) Theme {
	return newTheme(mode, lipgloss.NewRenderer(out))
}

func newTheme(mode string, r *lipgloss.Renderer) Theme {
	p := darkPalette
	if mode == ModeLight {
		p = lightPalette
	} else {
		mode = ModeDark
	}

	fg := func(c lipgloss.Color) lipgloss.Style { return r.NewStyle().Foreground(c) }

	t := Theme{
		Mode:     mode,
		Text:     fg(p.text),
		Muted:    fg(p.muted),
		Folder:   fg(p.folder).Bold(true),
		Title:    fg(p.text).Bold(true),
		Addition: fg(p.addition),
		Deletion: fg(p.deletion),
		Context:  fg(p.context),
		Hunk:     fg(p.hunk),
		WordAdd:  fg(p.addition).Background(p.wordAddBg),
		WordDel:  fg(p.deletion).Background(p.wordDelBg),
	}
	t.statuses = map[patch.Status]lipgloss.Style{
		patch.StatusAdded:    t.Addition,
		patch.StatusRemoved:  t.Deletion,
		patch.StatusDeleted:  t.Deletion,
		patch.StatusModified: fg(p.modified),
		patch.StatusRenamed:  fg(p.renamed),
	}
	return t
}

// StatusStyle returns the badge style for a file status; unknown statuses are muted.
func (t Theme) StatusStyle(s patch.Status) lipgloss.Style {
	if style, ok := t.statuses[s]; ok {
		return style
	}
	return t.Muted
}
