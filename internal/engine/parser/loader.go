package parser

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

const (
	LangJavaScript = "javascript"
	LangTypeScript = "typescript"
	LangTSX        = "tsx"
)

// GrammarLoader hands out one parser pool per grammar, created on first use.
type GrammarLoader struct {
	mu    sync.Mutex
	pools map[string]*ParserPool
}

func NewGrammarLoader() *GrammarLoader {
	return &GrammarLoader{pools: make(map[string]*ParserPool)}
}

// LanguageForPath picks the grammar for a file. Anything that is not
// TypeScript is parsed as JavaScript; JSON parses as an expression there.
func LanguageForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return LangTypeScript
	case ".tsx":
		return LangTSX
	default:
		return LangJavaScript
	}
}

func (gl *GrammarLoader) Pool(lang string) *ParserPool {
	gl.mu.Lock()
	defer gl.mu.Unlock()

	if pool, ok := gl.pools[lang]; ok {
		return pool
	}

	var grammar *sitter.Language
	switch lang {
	case LangTypeScript:
		grammar = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	case LangTSX:
		grammar = sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	default:
		grammar = sitter.NewLanguage(tree_sitter_javascript.Language())
	}
	pool := NewParserPool(grammar)
	gl.pools[lang] = pool
	return pool
}
