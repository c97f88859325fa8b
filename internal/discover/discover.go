// Package discover enumerates candidate files for indexing, either from a
// caller-supplied explicit list or by walking a project root and applying
// the indexable-extension set, ignore patterns, and a size filter.
package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/symbolgraph/symbolgraph/internal/gitignore"
)

// DefaultMinFileSize and DefaultMaxFileSize implement §4.2's default size
// filter (10 B / 1 MiB) when the caller doesn't override them.
const (
	DefaultMinFileSize int64 = 10
	DefaultMaxFileSize int64 = 1 << 20
)

// gitignoreCacheSize bounds the matcher cache to prevent unbounded growth on
// very large repositories.
const gitignoreCacheSize = 1000

// documentationExtensions is the subset of indexableExtensions that
// ContentExtractor treats as full-text documentation rather than code.
var documentationExtensions = map[string]bool{
	".md":       true,
	".mdx":      true,
	".markdown": true,
	".rst":      true,
}

// indexableExtensions covers common source languages plus the documentation
// extensions above.
var indexableExtensions = map[string]bool{
	".go":         true,
	".js":         true,
	".jsx":        true,
	".mjs":        true,
	".ts":         true,
	".tsx":        true,
	".py":         true,
	".pyw":        true,
	".pyi":        true,
	".rb":         true,
	".rs":         true,
	".java":       true,
	".kt":         true,
	".kts":        true,
	".c":          true,
	".h":          true,
	".cpp":        true,
	".hpp":        true,
	".cc":         true,
	".cxx":        true,
	".cs":         true,
	".swift":      true,
	".php":        true,
	".scala":      true,
	".md":         true,
	".mdx":        true,
	".markdown":   true,
	".rst":        true,
}

// IsDocumentation reports whether ext (including the leading dot) is a
// documentation extension.
func IsDocumentation(ext string) bool {
	return documentationExtensions[ext]
}

// File describes a single discovered file.
type File struct {
	// Path is repo-relative, slash-separated.
	Path string
	// AbsPath is the absolute filesystem path.
	AbsPath string
	Size    int64
}

// Options configures a discovery-mode scan. Leaving Files non-empty selects
// explicit mode instead: the list is honored exactly, bypassing every filter
// below.
type Options struct {
	// RootDir is the project root to scan in discovery mode.
	RootDir string
	// Files, if non-empty, enables explicit mode: paths relative to RootDir.
	Files []string
	// IgnorePatterns are gitignore-syntax patterns subtracted from the walk,
	// in addition to any .gitignore files under RootDir.
	IgnorePatterns []string
	// MinFileSize/MaxFileSize override the §4.2 defaults; zero means use
	// the default.
	MinFileSize int64
	MaxFileSize int64
}

// Discovery walks project directories and applies the indexable-extension,
// ignore-pattern, and size filters.
type Discovery struct {
	gitignoreCache *lru.Cache[string, *gitignore.Matcher]
}

// New creates a Discovery instance.
func New() (*Discovery, error) {
	cache, err := lru.New[string, *gitignore.Matcher](gitignoreCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitignore cache: %w", err)
	}
	return &Discovery{gitignoreCache: cache}, nil
}

// Discover returns the files to index for opts, in explicit or discovery
// mode depending on whether opts.Files is set.
func (d *Discovery) Discover(opts Options) ([]File, error) {
	if len(opts.Files) > 0 {
		return d.discoverExplicit(opts)
	}
	return d.discoverWalk(opts)
}

// discoverExplicit trusts the caller: no size filter, no ignore-pattern
// filter, exactly the list given.
func (d *Discovery) discoverExplicit(opts Options) ([]File, error) {
	absRoot, err := filepath.Abs(opts.RootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	files := make([]File, 0, len(opts.Files))
	for _, rel := range opts.Files {
		abs := filepath.Join(absRoot, rel)
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to stat explicit file %s: %w", rel, err)
		}
		files = append(files, File{
			Path:    filepath.ToSlash(rel),
			AbsPath: abs,
			Size:    info.Size(),
		})
	}
	return files, nil
}

// discoverWalk expands the indexable-extension set under RootDir, subtracts
// ignore patterns, dedups, and applies the size filter.
func (d *Discovery) discoverWalk(opts Options) ([]File, error) {
	absRoot, err := filepath.Abs(opts.RootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	minSize := opts.MinFileSize
	if minSize <= 0 {
		minSize = DefaultMinFileSize
	}
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	ignoreMatcher := gitignore.New()
	for _, p := range opts.IgnorePatterns {
		ignoreMatcher.AddPattern(p)
	}

	seen := make(map[string]bool)
	var files []File

	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if d.isGitignored(relPath, absRoot) || ignoreMatcher.Match(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(relPath)
		if !indexableExtensions[ext] {
			return nil
		}

		if d.isGitignored(relPath, absRoot) || ignoreMatcher.Match(relPath, false) {
			return nil
		}

		if info.Size() < minSize || info.Size() > maxSize {
			return nil
		}

		if seen[relPath] {
			return nil
		}
		seen[relPath] = true

		files = append(files, File{
			Path:    relPath,
			AbsPath: path,
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", absRoot, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// isGitignored checks every .gitignore between absRoot and relPath's parent.
func (d *Discovery) isGitignored(relPath, absRoot string) bool {
	rootMatcher := d.getGitignoreMatcher(absRoot, "")
	if rootMatcher != nil && rootMatcher.Match(relPath, false) {
		return true
	}

	dir := filepath.Dir(relPath)
	if dir == "." {
		return false
	}

	currentDir := absRoot
	currentBase := ""
	for _, part := range strings.Split(dir, "/") {
		currentDir = filepath.Join(currentDir, part)
		if currentBase == "" {
			currentBase = part
		} else {
			currentBase = currentBase + "/" + part
		}
		matcher := d.getGitignoreMatcher(currentDir, currentBase)
		if matcher != nil && matcher.Match(relPath, false) {
			return true
		}
	}
	return false
}

// getGitignoreMatcher gets or parses a cached matcher for a directory's
// .gitignore file.
func (d *Discovery) getGitignoreMatcher(dir, base string) *gitignore.Matcher {
	if matcher, ok := d.gitignoreCache.Get(dir); ok {
		return matcher
	}

	gitignorePath := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(gitignorePath); err != nil {
		return nil
	}

	matcher := gitignore.New()
	if err := matcher.AddFromFile(gitignorePath, base); err != nil {
		return nil
	}

	d.gitignoreCache.Add(dir, matcher)
	return matcher
}
