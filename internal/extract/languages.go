package extract

import (
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/symbolgraph/symbolgraph/internal/domain"
)

// languageConfig maps a language's tree-sitter node types to the symbol
// kinds and import statement shapes this extractor understands.
type languageConfig struct {
	name          string
	extensions    []string
	functionTypes []string
	methodTypes   []string
	classTypes    []string
	interfaceTypes []string
	typeDefTypes  []string
	variableTypes []string
	importTypes   []string
}

// registry resolves a file extension to a tree-sitter language plus its
// node-type configuration. Mirrors the teacher's LanguageRegistry shape.
type registry struct {
	mu          sync.RWMutex
	configs     map[string]*languageConfig
	extToLang   map[string]string
	tsLanguages map[string]*sitter.Language
}

func newRegistry() *registry {
	r := &registry{
		configs:     make(map[string]*languageConfig),
		extToLang:   make(map[string]string),
		tsLanguages: make(map[string]*sitter.Language),
	}
	r.registerGo()
	r.registerTypeScript()
	r.registerJavaScript()
	r.registerPython()
	return r
}

func (r *registry) register(cfg *languageConfig, tsLang *sitter.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[cfg.name] = cfg
	r.tsLanguages[cfg.name] = tsLang
	for _, ext := range cfg.extensions {
		r.extToLang[ext] = cfg.name
	}
}

func (r *registry) byExtension(ext string) (*languageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext = strings.ToLower(ext)
	name, ok := r.extToLang[ext]
	if !ok {
		return nil, false
	}
	cfg, ok := r.configs[name]
	return cfg, ok
}

func (r *registry) byName(name string) (*languageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[name]
	return cfg, ok
}

func (r *registry) treeSitterLanguage(name string) (*sitter.Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.tsLanguages[name]
	return lang, ok
}

func (r *registry) registerGo() {
	r.register(&languageConfig{
		name:          "go",
		extensions:    []string{".go"},
		functionTypes: []string{"function_declaration"},
		methodTypes:   []string{"method_declaration"},
		typeDefTypes:  []string{"type_declaration"},
		variableTypes: []string{"const_declaration", "var_declaration"},
		importTypes:   []string{"import_declaration"},
	}, golang.GetLanguage())
}

func (r *registry) registerTypeScript() {
	ts := &languageConfig{
		name:           "typescript",
		extensions:     []string{".ts"},
		functionTypes:  []string{"function_declaration"},
		methodTypes:    []string{"method_definition"},
		classTypes:     []string{"class_declaration"},
		interfaceTypes: []string{"interface_declaration"},
		typeDefTypes:   []string{"type_alias_declaration"},
		variableTypes:  []string{"lexical_declaration", "variable_declaration"},
		importTypes:    []string{"import_statement"},
	}
	r.register(ts, typescript.GetLanguage())

	tsxCfg := *ts
	tsxCfg.name = "tsx"
	tsxCfg.extensions = []string{".tsx"}
	r.register(&tsxCfg, tsx.GetLanguage())
}

func (r *registry) registerJavaScript() {
	js := &languageConfig{
		name:          "javascript",
		extensions:    []string{".js", ".mjs"},
		functionTypes: []string{"function_declaration", "function"},
		methodTypes:   []string{"method_definition"},
		classTypes:    []string{"class_declaration"},
		variableTypes: []string{"lexical_declaration", "variable_declaration"},
		importTypes:   []string{"import_statement"},
	}
	r.register(js, javascript.GetLanguage())

	jsx := *js
	jsx.name = "jsx"
	jsx.extensions = []string{".jsx"}
	r.register(&jsx, javascript.GetLanguage())
}

func (r *registry) registerPython() {
	r.register(&languageConfig{
		name:          "python",
		extensions:    []string{".py", ".pyw", ".pyi"},
		functionTypes: []string{"function_definition"},
		classTypes:    []string{"class_definition"},
		variableTypes: []string{"assignment"},
		importTypes:   []string{"import_statement", "import_from_statement"},
	}, python.GetLanguage())
}

func kindForNodeType(cfg *languageConfig, nodeType string) (domain.SymbolType, bool) {
	for _, t := range cfg.functionTypes {
		if t == nodeType {
			return domain.SymbolFunction, true
		}
	}
	for _, t := range cfg.methodTypes {
		if t == nodeType {
			return domain.SymbolMethod, true
		}
	}
	for _, t := range cfg.classTypes {
		if t == nodeType {
			return domain.SymbolClass, true
		}
	}
	for _, t := range cfg.interfaceTypes {
		if t == nodeType {
			return domain.SymbolInterface, true
		}
	}
	for _, t := range cfg.typeDefTypes {
		if t == nodeType {
			return domain.SymbolTypeAlias, true
		}
	}
	for _, t := range cfg.variableTypes {
		if t == nodeType {
			return domain.SymbolVariable, true
		}
	}
	return "", false
}

func isImportNodeType(cfg *languageConfig, nodeType string) bool {
	for _, t := range cfg.importTypes {
		if t == nodeType {
			return true
		}
	}
	return false
}
