package patch

// Row is one line of a side-by-side diff.
//
// A deletion-only row has a nil Right, an addition-only row a nil Left, and a
// context row points both sides at the same line.
type Row struct {
	Left  *DiffLine `json:"left,omitempty"`
	Right *DiffLine `json:"right,omitempty"`
}

// IsContext returns true if both sides have the same unchanged line.
func (r Row) IsContext() bool {
	return r.Left != nil && r.Right != nil &&
		r.Left.Type == LineContext && r.Right.Type == LineContext
}

// IsDeletion returns true if only the left side has content.
func (r Row) IsDeletion() bool {
	return r.Left != nil && r.Right == nil && r.Left.Type == LineDeletion
}

// IsAddition returns true if only the right side has content.
func (r Row) IsAddition() bool {
	return r.Left == nil && r.Right != nil && r.Right.Type == LineAddition
}

// IsModification returns true for a deletion paired with an addition.
func (r Row) IsModification() bool {
	return r.Left != nil && r.Right != nil &&
		r.Left.Type == LineDeletion && r.Right.Type == LineAddition
}

// IsHunkHeader returns true if this row carries a hunk header.
func (r Row) IsHunkHeader() bool {
	return r.Left != nil && r.Left.Type == LineHunkHeader
}

// AlignHunk lays a hunk out as side-by-side rows. Each run of changed lines
// between context lines is one block: its deletions and additions are paired in
// order as modifications, and the surplus of the longer side follows alone.
// Returned rows point into hunk.Lines.
func AlignHunk(hunk Hunk) []Row {
	rows := make([]Row, 0, len(hunk.Lines))
	var dels, adds []*DiffLine

	flush := func() {
		for i := range max(len(dels), len(adds)) {
			var row Row
			if i < len(dels) {
				row.Left = dels[i]
			}
			if i < len(adds) {
				row.Right = adds[i]
			}
			rows = append(rows, row)
		}
		dels, adds = dels[:0], adds[:0]
	}

	for i := range hunk.Lines {
		line := &hunk.Lines[i]
		switch line.Type {
		case LineDeletion:
			dels = append(dels, line)
		case LineAddition:
			adds = append(adds, line)
		case LineContext:
			flush()
			rows = append(rows, Row{Left: line, Right: line})
		case LineHunkHeader:
			flush()
			rows = append(rows, Row{Left: line})
		}
	}
	flush()
	return rows
}

// AlignPatch parses and aligns every hunk of a single-file patch.
func AlignPatch(patch string) ([]Row, error) {
	hunks, err := ParseHunks(patch)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for _, h := range hunks {
		rows = append(rows, AlignHunk(h)...)
	}
	return rows, nil
}
