package resolver

import (
	_ "embed"
	"strings"
)

//go:embed builtins/node.txt
var nodeBuiltinData string

var nodeBuiltins = map[string]bool{}

func init() {
	for _, line := range strings.Split(nodeBuiltinData, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			nodeBuiltins[line] = true
		}
	}
}

// IsBuiltin reports whether ref names a Node.js core module.
func IsBuiltin(ref string) bool {
	if strings.HasPrefix(ref, "node:") {
		return true
	}
	return nodeBuiltins[ref]
}
