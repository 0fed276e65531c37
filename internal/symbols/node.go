// Package symbols implements the document-symbol, full-tree, directory and
// document overview, and containing-symbol operations. Built on the
// teacher's find-symbols.go formatting logic, generalized from
// string-formatting into a structured Node tree that callers can consume
// programmatically instead of as pre-rendered text.
package symbols

import "github.com/thanhtunguet/serena/internal/protocol"

// Node is the uniform symbol representation across every language server,
// binding spec.md's SymbolNode. Invariants: SelectionRange is contained in
// Range; every child's Range is contained in its parent's Range.
type Node struct {
	Name           string
	Kind           protocol.SymbolKind
	Range          protocol.Range
	SelectionRange protocol.Range
	Children       []*Node
	Body           *string
	RelativePath   string
}

// flatten appends nodes and all their descendants to out in pre-order,
// recording each node's depth (0 for the nodes passed in). Depth is tracked
// during the walk since Node has no parent pointer.
func flatten(nodes []*Node, depth int, out *[]flatNode) {
	for _, n := range nodes {
		*out = append(*out, flatNode{node: n, depth: depth})
		flatten(n.Children, depth+1, out)
	}
}

type flatNode struct {
	node  *Node
	depth int
}
