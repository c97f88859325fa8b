package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symbolgraph/symbolgraph/internal/domain"
)

func TestTreeSitterExtractor_ExtractsGoFunctionsAndImports(t *testing.T) {
	e := NewTreeSitterExtractor()
	defer e.Close()

	src := []byte(`package sample

import (
	"fmt"
	"strings"
)

func Greet(name string) string {
	return fmt.Sprintf("hi %s", name)
}
`)
	result, err := e.Extract("sample.go", "", src)
	require.NoError(t, err)
	assert.Equal(t, "go", result.Language)

	var names []string
	for _, s := range result.Symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Greet")

	var importSources []string
	for _, imp := range result.Imports {
		importSources = append(importSources, imp.Source)
	}
	assert.Contains(t, importSources, "fmt")
	assert.Contains(t, importSources, "strings")
}

func TestTreeSitterExtractor_ExtractsPythonFunctionsAndImports(t *testing.T) {
	e := NewTreeSitterExtractor()
	defer e.Close()

	src := []byte(`import os

def greet(name):
    return "hi " + name
`)
	result, err := e.Extract("sample.py", "", src)
	require.NoError(t, err)
	assert.Equal(t, "python", result.Language)

	var names []string
	for _, s := range result.Symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "greet")

	var importSources []string
	for _, imp := range result.Imports {
		importSources = append(importSources, imp.Source)
	}
	assert.Contains(t, importSources, "os")
}

func TestTreeSitterExtractor_UnsupportedLanguageErrors(t *testing.T) {
	e := NewTreeSitterExtractor()
	defer e.Close()

	_, err := e.Extract("sample.xyz", "", []byte("whatever"))
	assert.Error(t, err)
}

func TestTreeSitterExtractor_SatisfiesASTExtractorInterface(t *testing.T) {
	var _ domain.ASTExtractor = NewTreeSitterExtractor()
}
