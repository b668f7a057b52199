package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/truncate"

	"github.com/talenthium/patchtree/internal/patch"
)

// Side-by-side layout
const (
	sideBySideSeparator   = "│"
	sideBySideGutterWidth = 5 // "NNNN "
	sideBySideMinColWidth = 20
	DefaultWidth          = 120
)

// SideBySide renders a single-file patch as two aligned columns: the old text
// on the left and the new text on the right. Modified line pairs get word-level
// highlights. width is the total line width; 0 means DefaultWidth.
func SideBySide(ctx context.Context, th Theme, patchText string, width int) ([]string, error) {
	hunks, err := patch.ParseHunks(patchText)
	if err != nil {
		return nil, err
	}
	if len(hunks) == 0 {
		return []string{th.Muted.Render(NoPatchText)}, nil
	}

	if width <= 0 {
		width = DefaultWidth
	}
	width = max(width, 2*(sideBySideGutterWidth+sideBySideMinColWidth)+1)
	sideWidth := (width - 1) / 2
	contentWidth := sideWidth - sideBySideGutterWidth
	sep := th.Muted.Render(sideBySideSeparator)

	var lines []string
	for _, hunk := range hunks {
		rows := patch.AlignHunk(hunk)
		words := patch.RowWordDiffs(ctx, rows)

		for i, row := range rows {
			var left, right string
			switch {
			case row.IsHunkHeader():
				left = th.Hunk.Render(cell(hunk.Header, sideWidth))
				right = blank(sideWidth)
			case row.IsContext():
				left = side(th, row.Left.OldLineNum, th.Context.Render(clean(row.Left.Content)), contentWidth)
				right = side(th, row.Right.NewLineNum, th.Context.Render(clean(row.Right.Content)), contentWidth)
			case row.IsModification():
				wd, ok := words[i]
				oldText := th.Deletion.Render(clean(row.Left.Content))
				newText := th.Addition.Render(clean(row.Right.Content))
				if ok {
					oldText = segments(wd.Old, th.Deletion, th.WordDel)
					newText = segments(wd.New, th.Addition, th.WordAdd)
				}
				left = side(th, row.Left.OldLineNum, oldText, contentWidth)
				right = side(th, row.Right.NewLineNum, newText, contentWidth)
			case row.IsDeletion():
				left = side(th, row.Left.OldLineNum, th.Deletion.Render(clean(row.Left.Content)), contentWidth)
				right = blank(sideWidth)
			case row.IsAddition():
				left = blank(sideWidth)
				right = side(th, row.Right.NewLineNum, th.Addition.Render(clean(row.Right.Content)), contentWidth)
			default:
				continue
			}
			lines = append(lines, left+sep+right)
		}
	}
	return lines, nil
}

// FileSideBySide renders f's patch. Added and removed files have nothing on
// one side, so they get one full-width column with that side's line numbers.
func FileSideBySide(ctx context.Context, th Theme, f patch.FileChange, width int) ([]string, error) {
	if !f.Status.OneSided() {
		return SideBySide(ctx, th, f.Patch, width)
	}

	hunks, err := patch.ParseHunks(f.Patch)
	if err != nil {
		return nil, err
	}
	if len(hunks) == 0 {
		return []string{th.Muted.Render(NoPatchText)}, nil
	}

	if width <= 0 {
		width = DefaultWidth
	}
	width = max(width, sideBySideGutterWidth+sideBySideMinColWidth)
	contentWidth := width - sideBySideGutterWidth
	removed := f.Status.IsRemoval()

	var lines []string
	for _, hunk := range hunks {
		for _, line := range hunk.Lines {
			num := line.NewLineNum
			if removed {
				num = line.OldLineNum
			}
			switch line.Type {
			case patch.LineHunkHeader:
				lines = append(lines, th.Hunk.Render(cell(hunk.Header, width)))
			case patch.LineAddition:
				lines = append(lines, side(th, num, th.Addition.Render(clean(line.Content)), contentWidth))
			case patch.LineDeletion:
				lines = append(lines, side(th, num, th.Deletion.Render(clean(line.Content)), contentWidth))
			case patch.LineContext:
				lines = append(lines, side(th, num, th.Context.Render(clean(line.Content)), contentWidth))
			}
		}
	}
	return lines, nil
}

// side renders one column: a line-number gutter followed by content padded or
// truncated to contentWidth.
func side(th Theme, lineNum int, content string, contentWidth int) string {
	gutter := strings.Repeat(" ", sideBySideGutterWidth)
	if lineNum > 0 {
		gutter = fmt.Sprintf("%4d ", lineNum)
	}
	return th.Muted.Render(gutter) + cell(content, contentWidth)
}

// cell fits s (which may carry ANSI styling) into exactly w columns.
func cell(s string, w int) string {
	if w <= 0 {
		return ""
	}
	return padding.String(truncate.StringWithTail(s, uint(w), "…"), uint(w))
}

func blank(w int) string {
	return strings.Repeat(" ", w)
}

func segments(segs []patch.Segment, base, changed lipgloss.Style) string {
	var b strings.Builder
	for _, seg := range segs {
		if seg.Type == patch.SegmentUnchanged {
			b.WriteString(base.Render(clean(seg.Text)))
		} else {
			b.WriteString(changed.Render(clean(seg.Text)))
		}
	}
	return b.String()
}

// clean expands tabs so column widths stay predictable.
func clean(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
