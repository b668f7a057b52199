package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/talenthium/patchtree/internal/config"
	"github.com/talenthium/patchtree/internal/patch"
	"github.com/talenthium/patchtree/internal/store"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// resetFlags restores every flag of c and its subcommands to its default so
// package-level flag variables do not leak between tests.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// testEnv isolates HOME and writes a config file pointing the store into a
// temp dir. extra is appended to the config.
func testEnv(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("PATCHTREE_DEBUG", "")

	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("store:\n  path: %s\n%s", filepath.Join(dir, "snapshots.db"), extra)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, configPath, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	viper.Reset()

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", configPath}, args...))

	err := rootCmd.Execute()
	return ansiPattern.ReplaceAllString(out.String(), ""), err
}

const sampleDiffJSON = `{
  "commit": {"message": "Add parser\n\nbody", "author": {"name": "Ada", "date": "2024-01-02T03:04:05Z"}},
  "files": [
    {"filename": "src/parser.ts", "status": "added", "additions": 2, "deletions": 0, "changes": 2, "patch": "@@ -0,0 +1,2 @@\n+a\n+b"},
    {"filename": "README.md", "status": "modified", "additions": 1, "deletions": 1, "changes": 2, "patch": "@@ -1 +1 @@\n-old\n+new"}
  ]
}`

func TestLoadConfig_WritesDefaultFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	loaded, err := loadConfig(viper.New(), path)
	require.NoError(t, err)
	require.Equal(t, config.CacheBackendMemory, loaded.Cache.Backend)
	require.Equal(t, 15*time.Second, loaded.API.Timeout)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, config.DefaultConfigTemplate(), string(data))
}

func TestLoadConfig_LocalFileWins(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	require.NoError(t, os.MkdirAll(".patchtree", 0o750))
	require.NoError(t, os.WriteFile(localConfigPath, []byte("theme:\n  mode: light\n"), 0o600))

	loaded, err := loadConfig(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, "light", loaded.Theme.Mode)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PATCHTREE_SERVER_ADDR", "0.0.0.0:9999")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: 127.0.0.1:1\n"), 0o600))

	loaded, err := loadConfig(viper.New(), path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9999", loaded.Server.Addr)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  backend: memcached\n"), 0o600))

	_, err := loadConfig(viper.New(), path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cache.backend")
}

func TestDecodeDiff(t *testing.T) {
	diff, err := decodeDiff([]byte(sampleDiffJSON))
	require.NoError(t, err)
	require.Equal(t, "Ada", diff.Commit.Author.Name)
	require.Len(t, diff.Files, 2)

	diff, err = decodeDiff([]byte(` [{"filename":"a"}] `))
	require.NoError(t, err)
	require.Equal(t, []patch.FileChange{{Filename: "a"}}, diff.Files)

	diff, err = decodeDiff([]byte(`{"commit":{"message":"m"}}`))
	require.NoError(t, err)
	require.NotNil(t, diff.Files)
	require.Empty(t, diff.Files)

	_, err = decodeDiff([]byte("  "))
	require.Error(t, err)
	_, err = decodeDiff([]byte("{"))
	require.Error(t, err)
}

func TestLangCommand(t *testing.T) {
	out, err := execute(t, testEnv(t, ""), "", "lang", "a.go", "b.unknown")
	require.NoError(t, err)
	require.Equal(t, "a.go\tgo\nb.unknown\tplaintext\n", out)
}

func TestSplitCommand_JSON(t *testing.T) {
	out, err := execute(t, testEnv(t, ""), "@@ -1,2 +1,2 @@\n ctx\n-old\n+new\n", "split", "--filename", "x.rb")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, "ruby", got["language"])
	require.Equal(t, "ctx\nold", got["original"])
	require.Equal(t, "ctx\nnew", got["modified"])
}

func TestSplitCommand_SideBySide(t *testing.T) {
	out, err := execute(t, testEnv(t, ""), "@@ -1 +1 @@\n-old\n+new\n", "split", "--side-by-side", "-w", "61")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, fmt.Sprintf("%-30s│%-30s", "   1 old", "   1 new"), lines[1])
}

func TestTreeCommand(t *testing.T) {
	out, err := execute(t, testEnv(t, ""), sampleDiffJSON, "tree", "--stats=false")
	require.NoError(t, err)
	require.Contains(t, out, "Add parser\n")
	require.Contains(t, out, "Ada committed")
	require.Contains(t, out, "├── src/\n│   └── A parser.ts\n└── M README.md\n")
}

func TestTreeCommand_IncludeAndJSON(t *testing.T) {
	out, err := execute(t, testEnv(t, ""), sampleDiffJSON, "tree", "-", "--include", "**/*.md", "--json")
	require.NoError(t, err)

	var roots []*patch.TreeNode
	require.NoError(t, json.Unmarshal([]byte(out), &roots))
	require.Len(t, roots, 1)
	require.Equal(t, "README.md", roots[0].Path)
}

func TestTreeCommand_FromFileWithPatches(t *testing.T) {
	cfgPath := testEnv(t, "")
	input := filepath.Join(t.TempDir(), "diff.json")
	require.NoError(t, os.WriteFile(input, []byte(sampleDiffJSON), 0o600))

	out, err := execute(t, cfgPath, "", "tree", input, "--patches", "-w", "61")
	require.NoError(t, err)
	require.Contains(t, out, "src/parser.ts (typescript)")
	require.Contains(t, out, "README.md (markdown)")
	require.Contains(t, out, "   1 old")
}

func TestTreeCommand_WatchNeedsFile(t *testing.T) {
	_, err := execute(t, testEnv(t, ""), sampleDiffJSON, "tree", "--watch")
	require.Error(t, err)
}

func newProjectService(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/projects/p1/commits/abc/diff" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleDiffJSON))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchAndSnapshots(t *testing.T) {
	api := newProjectService(t)
	cfgPath := testEnv(t, fmt.Sprintf("api:\n  base_url: %s\n", api.URL))

	out, err := execute(t, cfgPath, "", "fetch", "p1", "abc", "--save", "--label", "review")
	require.NoError(t, err)
	require.Contains(t, out, "Saved snapshot ")
	require.Contains(t, out, "A parser.ts")

	out, err = execute(t, cfgPath, "", "snapshots", "list", "--json")
	require.NoError(t, err)
	var infos []store.SnapshotInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 1)
	require.Equal(t, "p1", infos[0].ProjectID)
	require.Equal(t, []string{"review"}, infos[0].Labels)
	require.Equal(t, 2, infos[0].FileCount)

	out, err = execute(t, cfgPath, "", "snapshots", "list")
	require.NoError(t, err)
	require.Contains(t, out, "Add parser")

	out, err = execute(t, cfgPath, "", "snapshots", "show", infos[0].ID, "--stats=false")
	require.NoError(t, err)
	require.Contains(t, out, "└── M README.md")

	out, err = execute(t, cfgPath, "", "snapshots", "rm", infos[0].ID)
	require.NoError(t, err)
	require.Contains(t, out, "Deleted "+infos[0].ID)

	_, err = execute(t, cfgPath, "", "snapshots", "show", infos[0].ID)
	require.Error(t, err)
	var notFound *store.SnapshotNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestFetch_UpstreamNotFound(t *testing.T) {
	api := newProjectService(t)
	cfgPath := testEnv(t, fmt.Sprintf("api:\n  base_url: %s\n", api.URL))

	_, err := execute(t, cfgPath, "", "fetch", "p1", "missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestLocalCommand(t *testing.T) {
	repoDir := t.TempDir()
	repo, err := git.PlainInit(repoDir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(repoDir, "pkg"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "pkg", "a.go"), []byte("package pkg\n"), 0o600))
	_, err = wt.Add("pkg/a.go")
	require.NoError(t, err)
	_, err = wt.Commit("add pkg", &git.CommitOptions{
		Author: &object.Signature{Name: "Ada", Email: "ada@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	cfgPath := testEnv(t, "")
	out, err := execute(t, cfgPath, "", "local", repoDir, "HEAD", "--save", "--project", "demo", "--stats=false")
	require.NoError(t, err)
	require.Contains(t, out, "add pkg")
	require.Contains(t, out, "└── pkg/\n    └── A a.go")

	out, err = execute(t, cfgPath, "", "snapshots", "list", "--json", "--project", "demo")
	require.NoError(t, err)
	require.Contains(t, out, `"source": "git"`)
}

func TestLoginAndTheme(t *testing.T) {
	cfgPath := testEnv(t, "theme:\n  mode: dark\n")

	out, err := execute(t, cfgPath, "", "login", "--token", "s3cret")
	require.NoError(t, err)
	require.Contains(t, out, "Token saved to "+cfgPath)

	out, err = execute(t, cfgPath, "", "theme", "light")
	require.NoError(t, err)
	require.Contains(t, out, "Theme set to light")

	out, err = execute(t, cfgPath, "", "theme")
	require.NoError(t, err)
	require.Equal(t, "light\n", out)

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "token: s3cret")
	require.Contains(t, string(data), "store:")

	_, err = execute(t, cfgPath, "", "theme", "sepia")
	require.Error(t, err)
}

func TestLogin_TokenFromStdin(t *testing.T) {
	cfgPath := testEnv(t, "")
	_, err := execute(t, cfgPath, "tok-from-pipe\n", "login")
	require.NoError(t, err)

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "token: tok-from-pipe")
}
