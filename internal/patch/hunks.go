package patch

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseHunks groups a single-file patch into hunks and numbers their lines.
// Lines are classified the same way SplitPatch classifies them, so joining a
// side's hunk lines gives that side's split buffer. Lines before the first
// hunk header are ignored.
func ParseHunks(patch string) ([]Hunk, error) {
	var hunks []Hunk
	var oldNum, newNum int

	for _, line := range patchLines(patch) {
		t, content, ok := classifyLine(line)
		if !ok {
			continue
		}
		if t == LineHunkHeader {
			h, err := parseHunkHeader(content)
			if err != nil {
				return nil, err
			}
			hunks = append(hunks, h)
			oldNum, newNum = h.OldStart, h.NewStart
			continue
		}
		if len(hunks) == 0 {
			continue
		}

		dl := DiffLine{Type: t, Content: content}
		if t != LineAddition {
			dl.OldLineNum = oldNum
			oldNum++
		}
		if t != LineDeletion {
			dl.NewLineNum = newNum
			newNum++
		}
		last := &hunks[len(hunks)-1]
		last.Lines = append(last.Lines, dl)
	}
	return hunks, nil
}

// parseHunkHeader reads "@@ -old[,n] +new[,n] @@ section". The first line of
// the returned hunk is a LineHunkHeader carrying the section text.
func parseHunkHeader(line string) (Hunk, error) {
	body, section, closed := strings.Cut(strings.TrimPrefix(line, "@@"), "@@")
	ranges := strings.Fields(body)
	if !closed || len(ranges) != 2 ||
		!strings.HasPrefix(ranges[0], "-") || !strings.HasPrefix(ranges[1], "+") {
		return Hunk{}, fmt.Errorf("malformed hunk header: %s", line)
	}

	oldStart, oldCount, err := parseRange(ranges[0][1:])
	if err != nil {
		return Hunk{}, fmt.Errorf("malformed hunk header %q: old range: %w", line, err)
	}
	newStart, newCount, err := parseRange(ranges[1][1:])
	if err != nil {
		return Hunk{}, fmt.Errorf("malformed hunk header %q: new range: %w", line, err)
	}

	return Hunk{
		OldStart: oldStart,
		OldCount: oldCount,
		NewStart: newStart,
		NewCount: newCount,
		Header:   line,
		Lines:    []DiffLine{{Type: LineHunkHeader, Content: strings.TrimSpace(section)}},
	}, nil
}

// parseRange reads "start[,count]"; a missing count means one line.
func parseRange(s string) (start, count int, err error) {
	startText, countText, hasCount := strings.Cut(s, ",")
	if start, err = strconv.Atoi(startText); err != nil {
		return 0, 0, err
	}
	count = 1
	if hasCount {
		if count, err = strconv.Atoi(countText); err != nil {
			return 0, 0, err
		}
	}
	if start < 0 || count < 0 {
		return 0, 0, fmt.Errorf("negative range %q", s)
	}
	return start, count, nil
}
