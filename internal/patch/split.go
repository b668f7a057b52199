package patch

import "strings"

// metadataPrefixes mark lines that belong to neither side of the split.
var metadataPrefixes = []string{
	"diff --git",
	"index ",
	"--- ",
	"+++ ",
	`\ `, // "\ No newline at end of file"
}

// patchLines splits a patch into lines. A single trailing newline ends the
// last line and does not start an empty one.
func patchLines(patch string) []string {
	if patch == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(patch, "\n"), "\n")
}

// classifyLine sorts one patch line. ok is false for metadata lines. Hunk
// headers come back whole as LineHunkHeader; any other line that is not a
// deletion or addition is context, with one leading space removed.
func classifyLine(line string) (t LineType, content string, ok bool) {
	if strings.HasPrefix(line, "@@") {
		return LineHunkHeader, line, true
	}
	for _, prefix := range metadataPrefixes {
		if strings.HasPrefix(line, prefix) {
			return 0, "", false
		}
	}
	switch {
	case strings.HasPrefix(line, "-"):
		return LineDeletion, line[1:], true
	case strings.HasPrefix(line, "+"):
		return LineAddition, line[1:], true
	default:
		return LineContext, strings.TrimPrefix(line, " "), true
	}
}

// SplitPatch reconstructs the pre- and post-change text covered by a single-file
// unified diff, for side-by-side display.
//
// Deleted lines go to original only, added lines to modified only, and everything
// else (context) to both. Header and hunk lines are dropped. Unchanged regions
// outside the hunks are not recovered, so this is not a patch-apply.
func SplitPatch(patch string) (original, modified string) {
	lines := patchLines(patch)
	oldLines := make([]string, 0, len(lines))
	newLines := make([]string, 0, len(lines))

	for _, line := range lines {
		t, content, ok := classifyLine(line)
		if !ok {
			continue
		}
		switch t {
		case LineDeletion:
			oldLines = append(oldLines, content)
		case LineAddition:
			newLines = append(newLines, content)
		case LineContext:
			oldLines = append(oldLines, content)
			newLines = append(newLines, content)
		}
	}

	return strings.Join(oldLines, "\n"), strings.Join(newLines, "\n")
}
