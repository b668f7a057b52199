package patch

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// FilterFiles keeps the files whose filename matches at least one glob pattern.
// Patterns use doublestar syntax ("src/**/*.ts"). No patterns keeps everything.
func FilterFiles(files []FileChange, patterns []string) ([]FileChange, error) {
	if len(patterns) == 0 {
		return files, nil
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}

	kept := make([]FileChange, 0, len(files))
	for _, f := range files {
		for _, p := range patterns {
			if ok, _ := doublestar.Match(p, f.Filename); ok {
				kept = append(kept, f)
				break
			}
		}
	}
	return kept, nil
}

// Summary counts files and line changes in a diff.
type Summary struct {
	Files     int            `json:"files"`
	Additions int            `json:"additions"`
	Deletions int            `json:"deletions"`
	ByStatus  map[Status]int `json:"byStatus"`
}

// Summarize totals a list of file changes.
func Summarize(files []FileChange) Summary {
	s := Summary{ByStatus: make(map[Status]int)}
	for _, f := range files {
		s.Files++
		s.Additions += f.Additions
		s.Deletions += f.Deletions
		s.ByStatus[f.Status]++
	}
	return s
}
