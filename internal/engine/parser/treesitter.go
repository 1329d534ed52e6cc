package parser

import (
	"flatcode/internal/core/errors"
	"sort"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// TreeSitterScanner finds require() calls on the syntax tree, so mentions
// inside comments, strings and template literals are not reported. Only a
// single plain string argument counts; escaped or computed arguments are
// skipped.
type TreeSitterScanner struct {
	loader *GrammarLoader
}

func NewTreeSitterScanner() *TreeSitterScanner {
	return &TreeSitterScanner{loader: NewGrammarLoader()}
}

func (s *TreeSitterScanner) Name() string { return ScannerAST }

func (s *TreeSitterScanner) Scan(path string, source []byte) ([]RequireCall, error) {
	lang := LanguageForPath(path)
	pool := s.loader.Pool(lang)

	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse(source, nil)
	if tree == nil {
		de := &errors.DomainError{Code: errors.CodeInternal, Message: "parse failed"}
		return nil, de.WithContext(errors.CtxPath, path).WithContext(errors.CtxLanguage, lang)
	}
	defer tree.Close()

	var calls []RequireCall
	walk(tree.RootNode(), func(node *sitter.Node) {
		var literal *sitter.Node
		switch node.Kind() {
		case "call_expression":
			literal = requireArgument(node, source)
		case "import_require_clause":
			literal = firstNamedOfKind(node, "string")
		}
		if call, ok := stringCall(literal, source); ok {
			calls = append(calls, call)
		}
	})

	sort.Slice(calls, func(i, j int) bool { return calls[i].Start < calls[j].Start })
	return calls, nil
}

func walk(node *sitter.Node, visit func(*sitter.Node)) {
	if node == nil {
		return
	}
	visit(node)
	for i := uint(0); i < node.ChildCount(); i++ {
		walk(node.Child(i), visit)
	}
}

// requireArgument returns the string literal of require('<x>'), or nil when
// node is any other call.
func requireArgument(node *sitter.Node, source []byte) *sitter.Node {
	callee := node.ChildByFieldName("function")
	if callee == nil || callee.Kind() != "identifier" || text(callee, source) != "require" {
		return nil
	}
	args := node.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() != 1 {
		return nil
	}
	arg := args.NamedChild(0)
	if arg == nil || arg.Kind() != "string" {
		return nil
	}
	return arg
}

// stringCall turns a plain string literal into a RequireCall spanning its
// content. Literals with escapes or no content are rejected.
func stringCall(literal *sitter.Node, source []byte) (RequireCall, bool) {
	if literal == nil || literal.NamedChildCount() != 1 {
		return RequireCall{}, false
	}
	fragment := literal.NamedChild(0)
	if fragment == nil || fragment.Kind() != "string_fragment" {
		return RequireCall{}, false
	}
	start, end := int(fragment.StartByte()), int(fragment.EndByte())
	if start >= end || end > len(source) {
		return RequireCall{}, false
	}
	return RequireCall{
		Module: string(source[start:end]),
		Start:  start,
		End:    end,
		Line:   int(fragment.StartPosition().Row) + 1,
	}, true
}

func firstNamedOfKind(node *sitter.Node, kind string) *sitter.Node {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

func text(node *sitter.Node, source []byte) string {
	start, end := node.StartByte(), node.EndByte()
	if start >= end || end > uint(len(source)) {
		return ""
	}
	return string(source[start:end])
}
