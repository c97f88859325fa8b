package extract

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/symbolgraph/symbolgraph/internal/domain"
)

// TreeSitterExtractor is a concrete domain.ASTExtractor backed by
// github.com/smacker/go-tree-sitter. The core only depends on the
// domain.ASTExtractor interface; this is one swappable implementation of
// it, grounded on the teacher's chunk.Parser/SymbolExtractor pair.
type TreeSitterExtractor struct {
	parser   *sitter.Parser
	registry *registry
}

// NewTreeSitterExtractor creates an extractor with the default language
// registry (Go, TypeScript/TSX, JavaScript/JSX, Python).
func NewTreeSitterExtractor() *TreeSitterExtractor {
	return &TreeSitterExtractor{
		parser:   sitter.NewParser(),
		registry: newRegistry(),
	}
}

// Close releases the underlying tree-sitter parser.
func (e *TreeSitterExtractor) Close() {
	if e.parser != nil {
		e.parser.Close()
	}
}

// Extract parses content and returns its symbol tree, imports, and exports.
// languageHint, when non-empty, names a supported language directly;
// otherwise the language is resolved from path's extension.
func (e *TreeSitterExtractor) Extract(path string, languageHint string, content []byte) (domain.ASTResult, error) {
	cfg, ok := e.resolveLanguage(path, languageHint)
	if !ok {
		return domain.ASTResult{}, fmt.Errorf("unsupported language for %s", path)
	}

	tsLang, ok := e.registry.treeSitterLanguage(cfg.name)
	if !ok {
		return domain.ASTResult{}, fmt.Errorf("no tree-sitter grammar registered for %s", cfg.name)
	}

	e.parser.SetLanguage(tsLang)
	tree, err := e.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return domain.ASTResult{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if tree == nil {
		return domain.ASTResult{}, fmt.Errorf("failed to parse %s: nil tree", path)
	}
	root := tree.RootNode()

	symbols := e.extractSymbols(root, content, cfg)
	imports := e.extractImports(root, content, cfg)
	exports := exportedNames(symbols)

	return domain.ASTResult{
		Symbols:  symbols,
		Imports:  imports,
		Exports:  exports,
		Language: cfg.name,
	}, nil
}

func (e *TreeSitterExtractor) resolveLanguage(path, hint string) (*languageConfig, bool) {
	if hint != "" {
		if cfg, ok := e.registry.byName(hint); ok {
			return cfg, true
		}
	}
	ext := extOf(path)
	return e.registry.byExtension(ext)
}

// extractSymbols walks the tree depth-first and returns the outermost
// symbol-defining nodes as domain.ExtractedSymbol, each carrying the
// symbols nested inside it in Children, so ContentExtractor can flatten
// with the correct ParentSymbol.
func (e *TreeSitterExtractor) extractSymbols(n *sitter.Node, source []byte, cfg *languageConfig) []domain.ExtractedSymbol {
	var out []domain.ExtractedSymbol
	childCount := int(n.ChildCount())
	for i := 0; i < childCount; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if sym, ok := e.symbolFromNode(child, source, cfg); ok {
			sym.Children = e.extractSymbols(child, source, cfg)
			out = append(out, sym)
		} else {
			out = append(out, e.extractSymbols(child, source, cfg)...)
		}
	}
	return out
}

func (e *TreeSitterExtractor) symbolFromNode(n *sitter.Node, source []byte, cfg *languageConfig) (domain.ExtractedSymbol, bool) {
	kind, ok := kindForNodeType(cfg, n.Type())
	if !ok {
		return domain.ExtractedSymbol{}, false
	}

	name := firstIdentifierName(n, source)
	if name == "" {
		return domain.ExtractedSymbol{}, false
	}

	return domain.ExtractedSymbol{
		Name:     name,
		Kind:     kind,
		Text:     nodeContent(n, source),
		StartRow: int(n.StartPoint().Row),
		StartCol: int(n.StartPoint().Column),
		EndRow:   int(n.EndPoint().Row),
		EndCol:   int(n.EndPoint().Column),
		HasPos:   true,
	}, true
}

// firstIdentifierName looks for an identifier/type_identifier/field_identifier
// descendant, preferring direct children and falling back to the first
// nested declarator (covers Go's const_spec/var_spec and JS's
// variable_declarator shapes).
func firstIdentifierName(n *sitter.Node, source []byte) string {
	identTypes := map[string]bool{
		"identifier":       true,
		"type_identifier":  true,
		"field_identifier": true,
	}

	childCount := int(n.ChildCount())
	for i := 0; i < childCount; i++ {
		child := n.Child(i)
		if child != nil && identTypes[child.Type()] {
			return nodeContent(child, source)
		}
	}

	// Look one level deeper for wrapped declarators (const_spec, var_spec,
	// type_spec, variable_declarator).
	for i := 0; i < childCount; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		grandCount := int(child.ChildCount())
		for j := 0; j < grandCount; j++ {
			grand := child.Child(j)
			if grand != nil && identTypes[grand.Type()] {
				return nodeContent(grand, source)
			}
		}
	}

	return ""
}

// extractImports collects top-level import statements and pulls quoted
// module specifiers out of their raw text. This covers Go's
// `import "pkg"`/`import ( "a"; "b" )`, JS/TS's
// `import x from "pkg"`, and Python's `import pkg`/`from pkg import x`.
func (e *TreeSitterExtractor) extractImports(root *sitter.Node, source []byte, cfg *languageConfig) []domain.ExtractedImport {
	var out []domain.ExtractedImport
	childCount := int(root.ChildCount())
	for i := 0; i < childCount; i++ {
		child := root.Child(i)
		if child == nil || !isImportNodeType(cfg, child.Type()) {
			continue
		}
		text := nodeContent(child, source)
		for _, spec := range quotedSpecifiers(text) {
			out = append(out, domain.ExtractedImport{
				Source:    spec,
				IsDefault: strings.Contains(text, "default"),
			})
		}
		if len(quotedSpecifiers(text)) == 0 {
			// Python `import pkg` has no quotes; fall back to bareword parsing.
			if spec := bareImportSpecifier(text); spec != "" {
				out = append(out, domain.ExtractedImport{Source: spec})
			}
		}
	}
	return out
}

// quotedSpecifiers extracts the contents of every quoted string in text.
func quotedSpecifiers(text string) []string {
	var specs []string
	var quote byte
	var start int
	inQuote := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if !inQuote && (c == '"' || c == '\'' || c == '`') {
			inQuote = true
			quote = c
			start = i + 1
			continue
		}
		if inQuote && c == quote {
			specs = append(specs, text[start:i])
			inQuote = false
		}
	}
	return specs
}

// bareImportSpecifier handles Python's `import a.b.c` / `from a.b import c`.
func bareImportSpecifier(text string) string {
	fields := strings.Fields(text)
	for i, f := range fields {
		if f == "import" && i+1 < len(fields) {
			return strings.TrimSuffix(fields[i+1], ",")
		}
		if f == "from" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}

// exportedNames derives an export set from capitalized top-level symbol
// names (Go's convention) as a reasonable default across languages; a
// language-specific ASTExtractor could refine this further.
func exportedNames(symbols []domain.ExtractedSymbol) []string {
	var names []string
	for _, s := range symbols {
		if isExportedName(s.Name) {
			names = append(names, s.Name)
		}
	}
	return names
}

func isExportedName(name string) bool {
	if name == "" {
		return false
	}
	c := name[0]
	return c >= 'A' && c <= 'Z'
}

func nodeContent(n *sitter.Node, source []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if start >= end || int(end) > len(source) {
		return ""
	}
	return string(source[start:end])
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return strings.ToLower(path[i:])
		}
		if path[i] == '/' || path[i] == '\\' {
			break
		}
	}
	return ""
}
