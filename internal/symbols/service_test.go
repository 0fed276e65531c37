package symbols

import (
	"encoding/json"
	"testing"

	"github.com/thanhtunguet/serena/internal/protocol"
)

func TestDecodeSymbolResult_Null(t *testing.T) {
	nodes, err := decodeSymbolResult(json.RawMessage("null"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("expected empty forest for null, got %d nodes", len(nodes))
	}
}

func TestDecodeSymbolResult_Empty(t *testing.T) {
	nodes, err := decodeSymbolResult(json.RawMessage(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("expected empty forest for empty payload, got %d nodes", len(nodes))
	}
}

func TestDecodeSymbolResult_Hierarchical(t *testing.T) {
	raw := json.RawMessage(`[{
		"name": "Outer",
		"kind": 12,
		"range": {"start": {"line": 0, "character": 0}, "end": {"line": 10, "character": 1}},
		"selectionRange": {"start": {"line": 0, "character": 5}, "end": {"line": 0, "character": 10}},
		"children": [{
			"name": "Inner",
			"kind": 6,
			"range": {"start": {"line": 1, "character": 0}, "end": {"line": 2, "character": 1}},
			"selectionRange": {"start": {"line": 1, "character": 5}, "end": {"line": 1, "character": 10}}
		}]
	}]`)
	nodes, err := decodeSymbolResult(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Name != "Outer" {
		t.Fatalf("expected one root node named Outer, got %+v", nodes)
	}
	if len(nodes[0].Children) != 1 || nodes[0].Children[0].Name != "Inner" {
		t.Fatalf("expected one child named Inner, got %+v", nodes[0].Children)
	}
}

func TestDecodeSymbolResult_Flat(t *testing.T) {
	raw := json.RawMessage(`[{
		"name": "main",
		"kind": 12,
		"location": {
			"uri": "file:///tmp/main.go",
			"range": {"start": {"line": 3, "character": 0}, "end": {"line": 5, "character": 1}}
		}
	}]`)
	nodes, err := decodeSymbolResult(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Name != "main" {
		t.Fatalf("expected one node named main, got %+v", nodes)
	}
	if nodes[0].Range.Start.Line != 3 {
		t.Errorf("expected range derived from location, got %+v", nodes[0].Range)
	}
}

func TestContainingSymbol_TieBreakSmallestThenDeepest(t *testing.T) {
	outer := &Node{
		Name:  "Outer",
		Range: protocol.Range{Start: protocol.Position{Line: 0}, End: protocol.Position{Line: 20}},
	}
	middle := &Node{
		Name:  "Middle",
		Range: protocol.Range{Start: protocol.Position{Line: 2}, End: protocol.Position{Line: 10}},
	}
	inner := &Node{
		Name:  "Inner",
		Range: protocol.Range{Start: protocol.Position{Line: 3}, End: protocol.Position{Line: 4}},
	}
	middle.Children = []*Node{inner}
	outer.Children = []*Node{middle}

	var flat []flatNode
	flatten([]*Node{outer}, 0, &flat)

	point := protocol.Position{Line: 3, Character: 5}
	var best *flatNode
	for i := range flat {
		f := &flat[i]
		if !f.node.Range.ContainsPosition(point) {
			continue
		}
		if best == nil || smaller(f, best) {
			best = f
		}
	}
	if best == nil || best.node.Name != "Inner" {
		t.Fatalf("expected Inner to win the tie-break, got %+v", best)
	}
}
