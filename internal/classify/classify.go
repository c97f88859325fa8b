// Package classify assigns each indexed file a partition id and an
// authority score, used to bias search ranking toward canonical source
// over generated or vendored code.
package classify

import "strings"

// Classification is what a PartitionClassifier returns for one file.
type Classification struct {
	PartitionID    string
	AuthorityScore float64
}

// PartitionClassifier is the external collaborator Indexer calls once per
// file. Concrete implementations are swappable; the core only depends on
// this interface.
type PartitionClassifier interface {
	Classify(relPath string) Classification
}

// PathPrefixClassifier is a default, configurable reference implementation
// that matches a file's path against an ordered prefix table. The first
// matching prefix wins; an unmatched path falls back to DefaultPartition.
type PathPrefixClassifier struct {
	rules            []prefixRule
	defaultPartition string
	defaultAuthority float64
}

type prefixRule struct {
	prefix         string
	partitionID    string
	authorityScore float64
}

// Option configures a PathPrefixClassifier.
type Option func(*PathPrefixClassifier)

// WithPrefix registers a path prefix rule. Rules are matched in the order
// registered; register more specific prefixes first.
func WithPrefix(prefix, partitionID string, authorityScore float64) Option {
	return func(c *PathPrefixClassifier) {
		c.rules = append(c.rules, prefixRule{
			prefix:         prefix,
			partitionID:    partitionID,
			authorityScore: authorityScore,
		})
	}
}

// WithDefault overrides the fallback partition and authority score applied
// when no prefix rule matches.
func WithDefault(partitionID string, authorityScore float64) Option {
	return func(c *PathPrefixClassifier) {
		c.defaultPartition = partitionID
		c.defaultAuthority = authorityScore
	}
}

// NewPathPrefixClassifier builds a PathPrefixClassifier with the standard
// source/test/vendor/generated table, overridable via opts.
func NewPathPrefixClassifier(opts ...Option) *PathPrefixClassifier {
	c := &PathPrefixClassifier{
		defaultPartition: "source",
		defaultAuthority: 1.0,
	}
	defaults := []Option{
		WithPrefix("vendor/", "vendor", 0.1),
		WithPrefix("node_modules/", "vendor", 0.1),
		WithPrefix("third_party/", "vendor", 0.1),
		WithPrefix("dist/", "generated", 0.2),
		WithPrefix("build/", "generated", 0.2),
		WithPrefix(".git/", "vcs", 0.0),
		WithPrefix("test/", "test", 0.6),
		WithPrefix("tests/", "test", 0.6),
		WithPrefix("__tests__/", "test", 0.6),
		WithPrefix("docs/", "documentation", 0.8),
		WithPrefix("doc/", "documentation", 0.8),
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, opt := range defaults {
		opt(c)
	}
	return c
}

// Classify matches relPath against the prefix table, falling back to the
// classifier's default when nothing matches. Also treats any path segment
// matching a common test-file naming convention as "test", independent of
// directory.
func (c *PathPrefixClassifier) Classify(relPath string) Classification {
	normalized := strings.TrimPrefix(relPath, "/")

	for _, rule := range c.rules {
		if strings.HasPrefix(normalized, rule.prefix) {
			return Classification{PartitionID: rule.partitionID, AuthorityScore: rule.authorityScore}
		}
	}

	if isTestFile(normalized) {
		return Classification{PartitionID: "test", AuthorityScore: 0.6}
	}

	return Classification{PartitionID: c.defaultPartition, AuthorityScore: c.defaultAuthority}
}

func isTestFile(relPath string) bool {
	base := relPath
	if idx := strings.LastIndexByte(relPath, '/'); idx >= 0 {
		base = relPath[idx+1:]
	}
	return strings.HasSuffix(base, "_test.go") ||
		strings.HasSuffix(base, ".test.ts") ||
		strings.HasSuffix(base, ".test.js") ||
		strings.HasSuffix(base, ".spec.ts") ||
		strings.HasSuffix(base, ".spec.js") ||
		strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py")
}
