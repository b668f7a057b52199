package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/talenthium/patchtree/internal/patch"
	"github.com/talenthium/patchtree/internal/presentation"
	"github.com/talenthium/patchtree/internal/render"
)

// viewOptions are the display flags shared by commands that print a diff.
type viewOptions struct {
	include  []string
	collapse []string
	sort     bool
	stats    bool
	patches  bool
	width    int
	asJSON   bool
}

func addViewFlags(cmd *cobra.Command, opts *viewOptions) {
	cmd.Flags().StringArrayVar(&opts.include, "include", nil, "only show files matching this glob (repeatable, e.g. 'src/**/*.go')")
	cmd.Flags().StringArrayVar(&opts.collapse, "collapse", nil, "collapse this folder path (repeatable)")
	cmd.Flags().BoolVar(&opts.sort, "sort", false, "order folders first, then by name")
	cmd.Flags().BoolVar(&opts.stats, "stats", true, "show +/- line counts")
	cmd.Flags().BoolVar(&opts.patches, "patches", false, "print a side-by-side diff for each file after the tree")
	cmd.Flags().IntVarP(&opts.width, "width", "w", 0, "output width in columns (0 means 120)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the tree as JSON")
}

// readInput returns the contents of path, or stdin for "" and "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-supplied input file
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// decodeDiff accepts a full commit diff object, an object with only "files",
// or a bare array of file changes.
func decodeDiff(data []byte) (*patch.CommitDiff, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("decoding diff: empty input")
	}

	var diff patch.CommitDiff
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &diff.Files); err != nil {
			return nil, fmt.Errorf("decoding file list: %w", err)
		}
	} else if err := json.Unmarshal(trimmed, &diff); err != nil {
		return nil, fmt.Errorf("decoding diff: %w", err)
	}
	if diff.Files == nil {
		diff.Files = []patch.FileChange{}
	}
	return &diff, nil
}

// printDiff writes the commit header (when the diff carries one), the tree,
// and optionally every file's side-by-side patch.
func printDiff(ctx context.Context, w io.Writer, diff *patch.CommitDiff, opts viewOptions) error {
	files, err := patch.FilterFiles(diff.Files, opts.include)
	if err != nil {
		return err
	}

	roots := patch.BuildTree(files)
	if opts.sort {
		patch.SortTree(roots)
	}

	if opts.asJSON {
		return presentation.NewFormatter(w).JSON(roots)
	}

	th := newTheme(w)
	var lines []string
	if diff.Commit.Message != "" || diff.Commit.Author.Name != "" {
		lines = append(lines, render.CommitHeader(th, diff.Commit, files, time.Now())...)
		lines = append(lines, "")
	}
	lines = append(lines, render.TreeLines(th, roots, render.TreeOptions{
		Collapsed: patch.CollapsedSet(opts.collapse...),
		Stats:     opts.stats,
		Width:     opts.width,
	})...)

	if opts.patches {
		for _, f := range files {
			lines = append(lines, "", th.Title.Render(fileTitle(f)))
			rows, err := render.FileSideBySide(ctx, th, f, opts.width)
			if err != nil {
				return fmt.Errorf("rendering %s: %w", f.Filename, err)
			}
			lines = append(lines, rows...)
		}
	}

	_, err = io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func fileTitle(f patch.FileChange) string {
	title := f.Filename
	if f.PreviousFilename != "" && f.PreviousFilename != f.Filename {
		title = f.PreviousFilename + " → " + f.Filename
	}
	return fmt.Sprintf("%s (%s)", title, patch.LanguageFor(f.Filename))
}
