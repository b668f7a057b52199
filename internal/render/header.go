package render

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"github.com/talenthium/patchtree/internal/patch"
)

// statusOrder is the display order of known statuses in the summary line.
var statusOrder = []patch.Status{
	patch.StatusAdded,
	patch.StatusModified,
	patch.StatusRenamed,
	patch.StatusRemoved,
	patch.StatusDeleted,
}

// CommitHeader renders the commit subject, author line and change summary.
// Dates are shown relative to now.
func CommitHeader(th Theme, commit patch.Commit, files []patch.FileChange, now time.Time) []string {
	subject, _, _ := strings.Cut(strings.TrimSpace(commit.Message), "\n")
	if subject == "" {
		subject = "(no message)"
	}

	author := commit.Author.Name
	if author == "" {
		author = "unknown author"
	}
	when := "at an unknown time"
	if !commit.Author.Date.IsZero() {
		when = humanize.RelTime(commit.Author.Date, now, "ago", "from now")
	}

	return []string{
		th.Title.Render(subject),
		th.Muted.Render(author + " committed " + when),
		summaryLine(th, patch.Summarize(files)),
	}
}

func summaryLine(th Theme, s patch.Summary) string {
	noun := "files"
	if s.Files == 1 {
		noun = "file"
	}
	parts := []string{fmt.Sprintf("%s %s changed", humanize.Comma(int64(s.Files)), noun)}

	if stats := formatStats(th, s.Additions, s.Deletions); stats != "" {
		parts = append(parts, stats)
	}

	unknown := lo.Filter(lo.Keys(s.ByStatus), func(st patch.Status, _ int) bool {
		return !slices.Contains(statusOrder, st)
	})
	slices.Sort(unknown)

	var counts []string
	for _, st := range append(slices.Clone(statusOrder), unknown...) {
		n := s.ByStatus[st]
		if n == 0 {
			continue
		}
		badge := st.Indicator()
		if badge == "" {
			badge = string(st)
		}
		counts = append(counts, th.StatusStyle(st).Render(badge)+" "+humanize.Comma(int64(n)))
	}
	if len(counts) > 0 {
		parts = append(parts, "("+strings.Join(counts, ", ")+")")
	}
	return strings.Join(parts, "  ")
}
