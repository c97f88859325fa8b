// Package extract implements the code/intent stream split: every indexed
// file is reduced to a lexical code_stream (identifiers, bodies, import
// paths) and a semantic intent_stream (doc comments, TODO/FIXME/NOTE/HACK
// lines, leading comment block), kept strictly apart so prose never enters
// the lexical index and code never enters the semantic one.
package extract

import (
	"regexp"
	"strings"

	"github.com/symbolgraph/symbolgraph/internal/domain"
)

const leadingCommentLineLimit = 10

var (
	blockDocCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/|""".*?"""|'''.*?'''`)
	annotatedLineRe    = regexp.MustCompile(`(?i)^\s*(//|#)\s*(TODO|FIXME|NOTE|HACK)\b.*$`)
	leadingCommentRe   = regexp.MustCompile(`^\s*(//|#)`)
)

// ContentExtractor turns a file's raw bytes into the code/intent stream
// split plus flattened symbol and import rows, per the injected
// domain.ASTExtractor.
type ContentExtractor struct {
	ast domain.ASTExtractor
}

// New builds a ContentExtractor backed by ast. ast is the only
// language-aware collaborator; everything else here is format-agnostic.
func New(ast domain.ASTExtractor) *ContentExtractor {
	return &ContentExtractor{ast: ast}
}

// Extract reduces path's content to an ExtractedContent record. relPath is
// the path recorded on every Symbol/Import row; isDocumentation short-
// circuits AST extraction per the documentation-file rule.
func (c *ContentExtractor) Extract(relPath string, isDocumentation bool, content []byte) (domain.ExtractedContent, error) {
	if isDocumentation {
		return domain.ExtractedContent{
			CodeStream:   "",
			IntentStream: strings.TrimSpace(string(content)),
			Language:     "markdown",
		}, nil
	}

	result, err := c.ast.Extract(relPath, "", content)
	if err != nil {
		return domain.ExtractedContent{}, err
	}

	exported := make(map[string]bool, len(result.Exports))
	for _, name := range result.Exports {
		exported[name] = true
	}

	var symbols []domain.Symbol
	flattenSymbols(relPath, "", result.Symbols, exported, &symbols)

	imports := make([]domain.Import, 0, len(result.Imports))
	for _, imp := range result.Imports {
		imports = append(imports, domain.Import{
			SourceFile:   relPath,
			ImportPath:   imp.Source,
			ImportedName: imp.ImportedName,
			IsDefault:    imp.IsDefault,
		})
	}

	return domain.ExtractedContent{
		CodeStream:   codeStream(symbols, imports),
		IntentStream: intentStream(content),
		Language:     result.Language,
		Symbols:      symbols,
		Imports:      imports,
	}, nil
}

// flattenSymbols walks the hierarchical symbol tree depth-first, recording
// parent at each level's enclosing container name per the ParentSymbol
// invariant.
func flattenSymbols(relPath, parent string, nodes []domain.ExtractedSymbol, exported map[string]bool, out *[]domain.Symbol) {
	for _, n := range nodes {
		sym := domain.Symbol{
			FilePath:     relPath,
			Name:         n.Name,
			Type:         n.Kind,
			Signature:    signatureLine(n.Text),
			Location:     location(n),
			ParentSymbol: parent,
			IsExported:   exported[n.Name],
			BodyText:     n.Text,
		}
		*out = append(*out, sym)

		nextParent := parent
		if n.Kind.IsContainer() {
			nextParent = n.Name
		}
		flattenSymbols(relPath, nextParent, n.Children, exported, out)
	}
}

func signatureLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return strings.TrimSpace(text)
}

func location(n domain.ExtractedSymbol) string {
	if !n.HasPos {
		return ""
	}
	return compactLocation(n.StartRow, n.StartCol, n.EndRow, n.EndCol)
}

func compactLocation(sr, sc, er, ec int) string {
	return itoa(sr+1) + ":" + itoa(sc+1) + "-" + itoa(er+1) + ":" + itoa(ec+1)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// codeStream is the whitespace-joined concatenation of every symbol name,
// body text, import source, and imported name. Never contains prose.
func codeStream(symbols []domain.Symbol, imports []domain.Import) string {
	var parts []string
	for _, s := range symbols {
		parts = append(parts, s.Name)
		if s.BodyText != "" {
			parts = append(parts, s.BodyText)
		}
	}
	for _, imp := range imports {
		parts = append(parts, imp.ImportPath)
		if imp.ImportedName != "" {
			parts = append(parts, imp.ImportedName)
		}
	}
	return strings.Join(parts, " ")
}

// intentStream extracts block doc comments, TODO/FIXME/NOTE/HACK lines, and
// the first up to ten leading comment lines from raw source text. Never
// contains symbol bodies or import paths.
func intentStream(content []byte) string {
	text := string(content)
	var lines []string

	for _, m := range blockDocCommentRe.FindAllString(text, -1) {
		lines = append(lines, strings.TrimSpace(m))
	}

	for _, line := range strings.Split(text, "\n") {
		if annotatedLineRe.MatchString(line) {
			lines = append(lines, strings.TrimSpace(line))
		}
	}

	lines = append(lines, leadingCommentLines(text)...)

	return strings.Join(lines, "\n")
}

// leadingCommentLines returns up to the first ten consecutive // or #
// comment lines at the top of the file, stopping at the first
// non-comment, non-blank line.
func leadingCommentLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !leadingCommentRe.MatchString(line) {
			break
		}
		out = append(out, trimmed)
		if len(out) >= leadingCommentLineLimit {
			break
		}
	}
	return out
}
