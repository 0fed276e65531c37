package symbols

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/thanhtunguet/serena/internal/ignore"
	"github.com/thanhtunguet/serena/internal/protocol"
)

// Caller is the subset of the JSON-RPC engine the symbol service needs.
type Caller interface {
	Call(ctx context.Context, method string, params, result any) error
}

// Opener is the subset of the document session the symbol service needs.
type Opener interface {
	EnsureOpen(ctx context.Context, path string) error
	URIFor(path string) string
}

// Service implements documentSymbols, fullSymbolTree, dirOverview,
// documentOverview, and containingSymbol (spec.md §4.7).
type Service struct {
	engine Caller
	docs   Opener
	root   string
	walker *ignore.Walker
}

// New builds a Service rooted at root, post-filtering full-tree/dir-overview
// results through walker.
func New(engine Caller, docs Opener, root string, walker *ignore.Walker) *Service {
	return &Service{engine: engine, docs: docs, root: root, walker: walker}
}

// DocumentSymbols returns every node in path's symbol forest (pre-order) and
// the top-level root nodes separately. A null/absent server result is
// treated as an empty forest.
func (s *Service) DocumentSymbols(ctx context.Context, path string, withBody bool) (all []*Node, roots []*Node, err error) {
	if err := s.docs.EnsureOpen(ctx, path); err != nil {
		return nil, nil, err
	}

	var raw json.RawMessage
	if err := s.engine.Call(ctx, "textDocument/documentSymbol", protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: s.docs.URIFor(path)},
	}, &raw); err != nil {
		return nil, nil, fmt.Errorf("symbols: documentSymbol %s: %w", path, err)
	}

	roots, err = decodeSymbolResult(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("symbols: decode response for %s: %w", path, err)
	}

	if withBody {
		if text, rerr := os.ReadFile(path); rerr == nil {
			attachBodies(roots, string(text))
		}
	}

	var flat []flatNode
	flatten(roots, 0, &flat)
	all = make([]*Node, len(flat))
	for i, f := range flat {
		all[i] = f.node
	}
	return all, roots, nil
}

func attachBodies(nodes []*Node, text string) {
	for _, n := range nodes {
		body := sliceUTF16(text, n.Range)
		n.Body = &body
		attachBodies(n.Children, text)
	}
}

// decodeSymbolResult handles both the hierarchical DocumentSymbol[] shape
// and the flat SymbolInformation[] shape a server may return, plus a
// null/absent result, uniformly as an empty forest.
func decodeSymbolResult(raw json.RawMessage) ([]*Node, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return []*Node{}, nil
	}

	var probes []json.RawMessage
	if err := json.Unmarshal(raw, &probes); err != nil {
		return nil, err
	}
	if len(probes) == 0 {
		return []*Node{}, nil
	}

	var shapeProbe struct {
		Location json.RawMessage `json:"location"`
	}
	if err := json.Unmarshal(probes[0], &shapeProbe); err == nil && shapeProbe.Location != nil {
		var flatSyms []protocol.SymbolInformation
		if err := json.Unmarshal(raw, &flatSyms); err != nil {
			return nil, err
		}
		return fromSymbolInformation(flatSyms), nil
	}

	var hierSyms []protocol.DocumentSymbol
	if err := json.Unmarshal(raw, &hierSyms); err != nil {
		return nil, err
	}
	return fromDocumentSymbols(hierSyms), nil
}

func fromDocumentSymbols(syms []protocol.DocumentSymbol) []*Node {
	nodes := make([]*Node, len(syms))
	for i, sym := range syms {
		nodes[i] = &Node{
			Name:           sym.Name,
			Kind:           sym.Kind,
			Range:          sym.Range,
			SelectionRange: sym.SelectionRange,
			Children:       fromDocumentSymbols(sym.Children),
		}
	}
	return nodes
}

func fromSymbolInformation(syms []protocol.SymbolInformation) []*Node {
	nodes := make([]*Node, len(syms))
	for i, sym := range syms {
		nodes[i] = &Node{
			Name:           sym.Name,
			Kind:           sym.Kind,
			Range:          sym.Location.Range,
			SelectionRange: sym.Location.Range,
		}
	}
	return nodes
}

// DocumentOverview returns only the top-level symbols for path.
func (s *Service) DocumentOverview(ctx context.Context, path string) ([]*Node, error) {
	_, roots, err := s.DocumentSymbols(ctx, path, false)
	return roots, err
}

// DirOverview returns a map from file path (relative to root) to its
// top-level symbol list, for every non-ignored file under relDir.
func (s *Service) DirOverview(ctx context.Context, relDir string) (map[string][]*Node, error) {
	dir := filepath.Join(s.root, relDir)
	out := make(map[string][]*Node)
	err := s.walker.Walk(dir, func(path string, _ fs.DirEntry) error {
		roots, err := s.DocumentOverview(ctx, path)
		if err != nil {
			return nil // best-effort: skip files a server can't answer for
		}
		rel, _ := filepath.Rel(s.root, path)
		out[filepath.ToSlash(rel)] = roots
		return nil
	})
	return out, err
}

// FullTree walks the whole workspace honoring the Ignore Filter and composes
// a directory forest whose file nodes carry their per-file symbol forest as
// children. File node names use the extension-stripped basename (decided in
// DESIGN.md's Open Question resolution).
func (s *Service) FullTree(ctx context.Context) ([]*Node, error) {
	type fileEntry struct {
		relDir  string
		node    *Node
	}
	var files []fileEntry

	err := s.walker.Walk(s.root, func(path string, _ fs.DirEntry) error {
		_, roots, err := s.DocumentSymbols(ctx, path, false)
		if err != nil {
			return nil // best-effort: some files aren't handled by any server
		}
		rel, _ := filepath.Rel(s.root, path)
		rel = filepath.ToSlash(rel)
		base := filepath.Base(rel)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		files = append(files, fileEntry{
			relDir: filepath.ToSlash(filepath.Dir(rel)),
			node: &Node{
				Name:         base,
				Kind:         protocol.SymbolKindFile,
				RelativePath: rel,
				Children:     roots,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].node.RelativePath < files[j].node.RelativePath })

	dirNodes := map[string]*Node{".": {Name: filepath.Base(s.root), Kind: protocol.SymbolKindModule}}
	ensureDir := func(dir string) *Node {
		if n, ok := dirNodes[dir]; ok {
			return n
		}
		n := &Node{Name: filepath.Base(dir), Kind: protocol.SymbolKindModule}
		dirNodes[dir] = n
		parent := ensureDirParent(dir, dirNodes)
		parent.Children = append(parent.Children, n)
		return n
	}

	for _, f := range files {
		parent := ensureDir(f.relDir)
		parent.Children = append(parent.Children, f.node)
	}

	return dirNodes["."].Children, nil
}

func ensureDirParent(dir string, dirNodes map[string]*Node) *Node {
	parent := filepath.ToSlash(filepath.Dir(dir))
	if n, ok := dirNodes[parent]; ok {
		return n
	}
	if parent == "." || parent == dir {
		return dirNodes["."]
	}
	n := &Node{Name: filepath.Base(parent), Kind: protocol.SymbolKindModule}
	dirNodes[parent] = n
	grandparent := ensureDirParent(parent, dirNodes)
	grandparent.Children = append(grandparent.Children, n)
	return n
}

// ContainingSymbol returns the innermost symbol whose range contains
// (line, col), tie-broken by smallest range then deepest depth, or nil if
// unsupported or no symbol matches — never an error for that case.
func (s *Service) ContainingSymbol(ctx context.Context, path string, line, col int) (*Node, error) {
	_, roots, err := s.DocumentSymbols(ctx, path, false)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, nil
	}

	var flat []flatNode
	flatten(roots, 0, &flat)

	point := protocol.Position{Line: line, Character: col}
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
	if best == nil {
		return nil, nil
	}
	return best.node, nil
}

func smaller(a, b *flatNode) bool {
	as := rangeSize(a.node.Range)
	bs := rangeSize(b.node.Range)
	if as != bs {
		return as < bs
	}
	return a.depth > b.depth
}

func rangeSize(r protocol.Range) int {
	lines := r.End.Line - r.Start.Line
	if lines == 0 {
		return r.End.Character - r.Start.Character
	}
	return lines*1_000_000 + r.End.Character
}
