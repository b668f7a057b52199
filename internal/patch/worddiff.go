package patch

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Bounds on word diff work per patch.
const (
	WordDiffMaxLineLength = 500
	WordDiffMaxRows       = 200
	WordDiffTimeout       = 50 * time.Millisecond
)

// SegmentType tells whether a word segment is shared, added or removed.
type SegmentType int

const (
	SegmentUnchanged SegmentType = iota
	SegmentAdded
	SegmentDeleted
)

// Segment is a run of text with a single diff status.
type Segment struct {
	Type SegmentType `json:"type"`
	Text string      `json:"text"`
}

// WordDiffResult holds the segments for both sides of a modified line.
type WordDiffResult struct {
	Old []Segment `json:"old,omitempty"`
	New []Segment `json:"new,omitempty"`
}

// tokenize splits a line into words, whitespace runes and punctuation runes.
// Example: "foo.bar()" -> ["foo", ".", "bar", "(", ")"]
func tokenize(line string) []string {
	if line == "" {
		return nil
	}

	var tokens []string
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}

	for _, r := range line {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			flush()
			tokens = append(tokens, string(r))
			continue
		}
		word.WriteRune(r)
	}
	flush()

	return tokens
}

// WordDiff computes a token-level diff between an old and a new line.
func WordDiff(oldLine, newLine string) WordDiffResult {
	switch {
	case oldLine == "" && newLine == "":
		return WordDiffResult{}
	case oldLine == "":
		return WordDiffResult{New: []Segment{{Type: SegmentAdded, Text: newLine}}}
	case newLine == "":
		return WordDiffResult{Old: []Segment{{Type: SegmentDeleted, Text: oldLine}}}
	}

	// Each token becomes one "line" so the diff runs over whole tokens.
	oldText := strings.Join(tokenize(oldLine), "\n") + "\n"
	newText := strings.Join(tokenize(newLine), "\n") + "\n"

	dmp := diffmatchpatch.New()
	a, b, tokenArray := dmp.DiffLinesToRunes(oldText, newText)
	diffs := dmp.DiffMainRunes(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, tokenArray)

	var result WordDiffResult
	for _, d := range diffs {
		text := strings.ReplaceAll(d.Text, "\n", "")
		if text == "" {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			result.Old = appendSegment(result.Old, SegmentUnchanged, text)
			result.New = appendSegment(result.New, SegmentUnchanged, text)
		case diffmatchpatch.DiffDelete:
			result.Old = appendSegment(result.Old, SegmentDeleted, text)
		case diffmatchpatch.DiffInsert:
			result.New = appendSegment(result.New, SegmentAdded, text)
		}
	}
	return result
}

// appendSegment merges adjacent segments of the same type.
func appendSegment(segs []Segment, t SegmentType, text string) []Segment {
	if n := len(segs); n > 0 && segs[n-1].Type == t {
		segs[n-1].Text += text
		return segs
	}
	return append(segs, Segment{Type: t, Text: text})
}

// RowWordDiffs computes word diffs for modification rows, keyed by row index.
// Work stops at WordDiffMaxRows pairs or when ctx is done; long lines are skipped.
func RowWordDiffs(ctx context.Context, rows []Row) map[int]WordDiffResult {
	results := make(map[int]WordDiffResult)

	ctx, cancel := context.WithTimeout(ctx, WordDiffTimeout)
	defer cancel()

	computed := 0
	for i, row := range rows {
		if !row.IsModification() {
			continue
		}
		if computed >= WordDiffMaxRows {
			break
		}
		select {
		case <-ctx.Done():
			return results
		default:
		}

		if len(row.Left.Content) > WordDiffMaxLineLength || len(row.Right.Content) > WordDiffMaxLineLength {
			continue
		}
		results[i] = WordDiff(row.Left.Content, row.Right.Content)
		computed++
	}
	return results
}
