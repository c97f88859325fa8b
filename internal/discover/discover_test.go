package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDiscover_ExplicitMode_TrustsCallerExactly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tiny.go"), "x")
	writeFile(t, filepath.Join(root, "normal.go"), "package main\n\nfunc main() {}\n")

	d, err := New()
	require.NoError(t, err)

	files, err := d.Discover(Options{RootDir: root, Files: []string{"tiny.go", "normal.go"}})
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestDiscover_DiscoveryMode_AppliesSizeFilter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tiny.go"), "x")
	writeFile(t, filepath.Join(root, "normal.go"), "package main\n\nfunc main() {}\n")

	d, err := New()
	require.NoError(t, err)

	files, err := d.Discover(Options{RootDir: root})
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.NotContains(t, paths, "tiny.go")
	assert.Contains(t, paths, "normal.go")
}

func TestDiscover_DiscoveryMode_SubtractsIgnorePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.go"), "package main\n\nfunc main() {}\n")
	writeFile(t, filepath.Join(root, "vendor", "dep.go"), "package vendor\n\nfunc f() {}\n")

	d, err := New()
	require.NoError(t, err)

	files, err := d.Discover(Options{RootDir: root, IgnorePatterns: []string{"vendor/"}})
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Contains(t, paths, "keep.go")
	assert.NotContains(t, paths, "vendor/dep.go")
}

func TestDiscover_DiscoveryMode_RespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "ignored.go\n")
	writeFile(t, filepath.Join(root, "ignored.go"), "package main\n\nfunc ignored() {}\n")
	writeFile(t, filepath.Join(root, "kept.go"), "package main\n\nfunc kept() {}\n")

	d, err := New()
	require.NoError(t, err)

	files, err := d.Discover(Options{RootDir: root})
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Contains(t, paths, "kept.go")
	assert.NotContains(t, paths, "ignored.go")
}

func TestIsDocumentation(t *testing.T) {
	assert.True(t, IsDocumentation(".md"))
	assert.True(t, IsDocumentation(".rst"))
	assert.False(t, IsDocumentation(".go"))
}
