package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symbolgraph/symbolgraph/internal/domain"
)

type fakeEdgeSource struct {
	edges []domain.ImportEdge
	files []string
}

func (f *fakeEdgeSource) AllImportEdges(ctx context.Context) ([]domain.ImportEdge, error) {
	return f.edges, nil
}

func (f *fakeEdgeSource) AllFilePaths(ctx context.Context) ([]string, error) {
	return f.files, nil
}

func TestAnalyzer_DependenciesAndDependents(t *testing.T) {
	src := &fakeEdgeSource{
		files: []string{"pkg/a.go", "pkg/b.go", "pkg/c.go"},
		edges: []domain.ImportEdge{
			{SourceFile: "pkg/a.go", ImportPath: "project/pkg/b.go"},
			{SourceFile: "pkg/b.go", ImportPath: "project/pkg/c.go"},
		},
	}
	a := New(src)

	deps, err := a.Dependencies(context.Background(), "pkg/a.go")
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/b.go"}, deps)

	dependents, err := a.Dependents(context.Background(), "pkg/b.go")
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/a.go"}, dependents)
}

func TestAnalyzer_DetectCyclesFindsSimpleCycle(t *testing.T) {
	src := &fakeEdgeSource{
		files: []string{"pkg/a.go", "pkg/b.go"},
		edges: []domain.ImportEdge{
			{SourceFile: "pkg/a.go", ImportPath: "project/pkg/b.go"},
			{SourceFile: "pkg/b.go", ImportPath: "project/pkg/a.go"},
		},
	}
	a := New(src)

	cycles, err := a.DetectCycles(context.Background())
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, 2, cycles[0].Depth)
}

func TestAnalyzer_DetectCyclesSkipsExternalModules(t *testing.T) {
	src := &fakeEdgeSource{
		files: []string{"pkg/a.go"},
		edges: []domain.ImportEdge{
			{SourceFile: "pkg/a.go", ImportPath: "react/node_modules/foo"},
		},
	}
	a := New(src)

	cycles, err := a.DetectCycles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cycles)
}

func TestAnalyzer_ImpactAnalysisRespectsMaxDepth(t *testing.T) {
	src := &fakeEdgeSource{
		files: []string{"a.go", "b.go", "c.go", "d.go"},
		edges: []domain.ImportEdge{
			{SourceFile: "b.go", ImportPath: "project/a.go"},
			{SourceFile: "c.go", ImportPath: "project/b.go"},
			{SourceFile: "d.go", ImportPath: "project/c.go"},
		},
	}
	a := New(src)

	hits, err := a.ImpactAnalysis(context.Background(), "a.go", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "b.go", hits[0].FilePath)
	assert.Equal(t, 1, hits[0].Distance)
	assert.Equal(t, "c.go", hits[1].FilePath)
	assert.Equal(t, 2, hits[1].Distance)
}

func TestAnalyzer_ImpactAnalysisDefaultMaxDepth(t *testing.T) {
	src := &fakeEdgeSource{files: []string{"a.go"}}
	a := New(src)

	hits, err := a.ImpactAnalysis(context.Background(), "a.go", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
