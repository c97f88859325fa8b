// Package graph implements GraphAnalyzer: on-demand reverse-dependency
// lookup, cycle detection, and bounded-depth impact analysis over an
// in-memory adjacency map built from IndexStore's import rows.
package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/symbolgraph/symbolgraph/internal/domain"
)

const defaultMaxDepth = 5

// EdgeSource is the subset of IndexStore GraphAnalyzer reads to build its
// adjacency map.
type EdgeSource interface {
	AllImportEdges(ctx context.Context) ([]domain.ImportEdge, error)
	AllFilePaths(ctx context.Context) ([]string, error)
}

// Cycle is one detected import cycle.
type Cycle struct {
	Files []string
	Depth int
}

// ImpactHit is one file reached from an impact analysis walk.
type ImpactHit struct {
	FilePath string
	Distance int
	Path     []string
}

// nodeState drives detect_cycles' per-node DFS state machine.
type nodeState int

const (
	stateUnseen nodeState = iota
	stateInProgress
	stateDone
)

// Analyzer builds an adjacency map on demand from EdgeSource and runs
// graph queries over it. It holds no persisted graph structure.
type Analyzer struct {
	store EdgeSource
}

// New returns an Analyzer backed by store.
func New(store EdgeSource) *Analyzer {
	return &Analyzer{store: store}
}

// adjacency resolves every import edge to a concrete local file when
// possible (substring match against the known file set), skipping external
// module specifiers.
type adjacency struct {
	edgesOut map[string][]string // file -> local files it imports
	edgesIn  map[string][]string // file -> local files that import it
}

func (a *Analyzer) buildAdjacency(ctx context.Context) (*adjacency, error) {
	edges, err := a.store.AllImportEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("load import edges: %w", err)
	}
	files, err := a.store.AllFilePaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("load file paths: %w", err)
	}

	adj := &adjacency{edgesOut: map[string][]string{}, edgesIn: map[string][]string{}}
	for _, f := range files {
		adj.edgesOut[f] = nil
		adj.edgesIn[f] = nil
	}

	for _, e := range edges {
		if isExternalModule(e.ImportPath) {
			continue
		}
		for _, candidate := range files {
			if candidate != e.SourceFile && strings.Contains(e.ImportPath, candidate) {
				adj.edgesOut[e.SourceFile] = append(adj.edgesOut[e.SourceFile], candidate)
				adj.edgesIn[candidate] = append(adj.edgesIn[candidate], e.SourceFile)
			}
		}
	}
	return adj, nil
}

// isExternalModule skips node_modules-style and scoped-package specifiers,
// which can never resolve to a locally indexed file.
func isExternalModule(importPath string) bool {
	return strings.Contains(importPath, "node_modules") || strings.HasPrefix(importPath, "@")
}

// Dependents returns every file whose import_path substring-matches file.
func (a *Analyzer) Dependents(ctx context.Context, file string) ([]string, error) {
	adj, err := a.buildAdjacency(ctx)
	if err != nil {
		return nil, err
	}
	out := append([]string(nil), adj.edgesIn[file]...)
	sort.Strings(out)
	return out, nil
}

// Dependencies returns the distinct local files file imports.
func (a *Analyzer) Dependencies(ctx context.Context, file string) ([]string, error) {
	adj, err := a.buildAdjacency(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(adj.edgesOut[file]))
	seen := make(map[string]bool)
	for _, dep := range adj.edgesOut[file] {
		if !seen[dep] {
			seen[dep] = true
			out = append(out, dep)
		}
	}
	sort.Strings(out)
	return out, nil
}

// DetectCycles runs DFS with an explicit recursion-stack set over every
// local file, reporting a cycle whenever an edge targets an in-progress
// node.
func (a *Analyzer) DetectCycles(ctx context.Context) ([]Cycle, error) {
	adj, err := a.buildAdjacency(ctx)
	if err != nil {
		return nil, err
	}

	state := make(map[string]nodeState, len(adj.edgesOut))
	var stack []string
	var cycles []Cycle

	var visit func(node string)
	visit = func(node string) {
		state[node] = stateInProgress
		stack = append(stack, node)

		for _, next := range adj.edgesOut[node] {
			switch state[next] {
			case stateUnseen:
				visit(next)
			case stateInProgress:
				cycles = append(cycles, cycleFromStack(stack, next))
			case stateDone:
				// already fully explored, no cycle through it
			}
		}

		stack = stack[:len(stack)-1]
		state[node] = stateDone
	}

	files := make([]string, 0, len(adj.edgesOut))
	for f := range adj.edgesOut {
		files = append(files, f)
	}
	sort.Strings(files)

	for _, f := range files {
		if state[f] == stateUnseen {
			visit(f)
		}
	}

	return cycles, nil
}

// cycleFromStack returns the recursion stack's suffix starting at
// revisited, plus revisited again to close the loop.
func cycleFromStack(stack []string, revisited string) Cycle {
	idx := 0
	for i, f := range stack {
		if f == revisited {
			idx = i
			break
		}
	}
	suffix := append([]string(nil), stack[idx:]...)
	suffix = append(suffix, revisited)
	return Cycle{Files: suffix, Depth: len(suffix) - 1}
}

// ImpactAnalysis walks reverse-dependency edges from file, capped at
// maxDepth (defaulting to 5), returning every reached file with its
// distance and the path taken.
func (a *Analyzer) ImpactAnalysis(ctx context.Context, file string, maxDepth int) ([]ImpactHit, error) {
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	adj, err := a.buildAdjacency(ctx)
	if err != nil {
		return nil, err
	}

	type queued struct {
		file string
		path []string
	}
	visited := map[string]bool{file: true}
	queue := []queued{{file: file, path: []string{file}}}
	var hits []ImpactHit

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if len(cur.path)-1 >= maxDepth {
			continue
		}
		for _, dependent := range adj.edgesIn[cur.file] {
			if visited[dependent] {
				continue
			}
			visited[dependent] = true
			path := append(append([]string(nil), cur.path...), dependent)
			hits = append(hits, ImpactHit{FilePath: dependent, Distance: len(path) - 1, Path: path})
			queue = append(queue, queued{file: dependent, path: path})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].FilePath < hits[j].FilePath
	})
	return hits, nil
}
