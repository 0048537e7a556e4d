package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/pycheck/internal/config"
	pkgerrors "github.com/standardbeagle/pycheck/internal/errors"
	"github.com/standardbeagle/pycheck/internal/types"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newTestRunner(t *testing.T, root string) *Runner {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Project.Root = root
	cfg.Performance.ParallelFileWorkers = 2
	return New(cfg)
}

func TestDiscoverSelectsPythonFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "x = 1\n")
	writeFile(t, root, "pkg/b.py", "y = 2\n")
	writeFile(t, root, "pkg/readme.md", "not python\n")
	writeFile(t, root, "__pycache__/c.py", "cached = 3\n")

	r := newTestRunner(t, root)
	files, err := r.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "pkg/b.py"}, files)
}

func TestDiscoverRespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "generated/\n*.gen.py\n")
	writeFile(t, root, "a.py", "x = 1\n")
	writeFile(t, root, "b.gen.py", "y = 2\n")
	writeFile(t, root, "generated/c.py", "z = 3\n")

	r := newTestRunner(t, root)
	files, err := r.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py"}, files)

	cfg := config.DefaultConfig()
	cfg.Project.Root = root
	cfg.Files.RespectGitignore = false
	files, err = New(cfg).Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "b.gen.py", "generated/c.py"}, files)
}

func TestRunProducesFindings(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bad.py", "def f():\n    if 42:\n        pass\n")
	writeFile(t, root, "ok.py", "def g(p):\n    if p:\n        pass\n")

	r := newTestRunner(t, root)
	results, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	byPath := map[string]Result{}
	for _, res := range results {
		require.NoError(t, res.Err)
		byPath[res.Path] = res
	}
	require.Len(t, byPath["bad.py"].Findings, 1)
	assert.Equal(t, types.RuleConstantCondition, byPath["bad.py"].Findings[0].Rule)
	assert.Empty(t, byPath["ok.py"].Findings)
}

func TestMemoServesUnchangedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def f():\n    round(1.3)\n")

	r := newTestRunner(t, root)
	first, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Len(t, first[0].Findings, 1)

	// Unchanged content hits the memo and yields identical findings.
	second, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, first[0].Findings, second[0].Findings)

	// A content change produces fresh results.
	writeFile(t, root, "a.py", "def f():\n    x = round(1.3)\n")
	third, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, third[0].Findings)
}

func TestOversizedFileSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.py", "x = 1\n")

	cfg := config.DefaultConfig()
	cfg.Project.Root = root
	cfg.Files.MaxFileSize = 3
	r := New(cfg)

	results, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	var fileErr *pkgerrors.FileError
	require.ErrorAs(t, results[0].Err, &fileErr)
	assert.Equal(t, pkgerrors.ErrorTypeFileTooLarge, fileErr.Type)
}

func TestFileIDsAreStable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "x = 1\n")

	r := newTestRunner(t, root)
	first, err := r.Run(context.Background())
	require.NoError(t, err)
	second, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first[0].FileID, second[0].FileID)
	assert.NotZero(t, first[0].FileID)
}

func TestRunHonorsCanceledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "x = 1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestRunner(t, root)
	_, err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
