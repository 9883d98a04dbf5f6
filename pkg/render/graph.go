package render

import (
	"encoding/json"
	"strings"

	"github.com/docyard/docyard/pkg/core/index"
	"github.com/docyard/docyard/pkg/errors"
)

// Node is one package in a dependency graph. Unresolved nodes keep the raw
// requirement in Version so the graph still shows what was asked for.
type Node struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Resolved bool   `json:"resolved"`
}

// ID returns the node's graph identity: "{name}-{version}" for resolved
// nodes, "{name} {req}" for unresolved ones so the two never collide.
func (n Node) ID() string {
	if n.Resolved {
		return n.Name + "-" + n.Version
	}
	return n.Name + " " + n.Version
}

// Edge is one dependency arrow between node IDs.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is a dependency graph rooted at one package version. Nodes and
// edges keep discovery order, so output is deterministic for a given index.
type Graph struct {
	Root  string
	nodes []Node
	edges []Edge

	nodeSeen map[string]bool
	edgeSeen map[Edge]bool
}

// Nodes returns the graph's nodes in discovery order.
func (g *Graph) Nodes() []Node { return g.nodes }

// Edges returns the graph's edges in discovery order.
func (g *Graph) Edges() []Edge { return g.edges }

func (g *Graph) add(n Node) bool {
	if g.nodeSeen[n.ID()] {
		return false
	}
	g.nodeSeen[n.ID()] = true
	g.nodes = append(g.nodes, n)
	return true
}

func (g *Graph) link(from, to string) {
	e := Edge{From: from, To: to}
	if g.edgeSeen[e] {
		return
	}
	g.edgeSeen[e] = true
	g.edges = append(g.edges, e)
}

// FromIndex builds the dependency graph of one package version by breadth-
// first traversal of index dep entries. Each requirement is prefix-matched
// against the dependency's own index record; dependencies that cannot be
// resolved (no index file, no matching version) become unresolved leaf
// nodes instead of failing the traversal. maxDepth bounds the traversal
// depth; zero or negative means unbounded.
func FromIndex(root, name, version string, maxDepth int) (*Graph, error) {
	rec, vi, err := resolve(root, name, version)
	if err != nil {
		return nil, err
	}

	g := &Graph{
		Root:     rec.CanonicalName(vi),
		nodeSeen: map[string]bool{},
		edgeSeen: map[Edge]bool{},
	}
	g.add(Node{Name: rec.Name, Version: rec.Versions[vi], Resolved: true})

	type item struct {
		rec     *index.Record
		version string
		depth   int
	}
	queue := []item{{rec, rec.Versions[vi], 0}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		if maxDepth > 0 && it.depth >= maxDepth {
			continue
		}
		from := it.rec.Name + "-" + it.version

		for _, dep := range it.rec.Dependencies(it.version) {
			depRec, depVi, err := resolveReq(root, dep.Name, dep.Req)
			if err != nil {
				leaf := Node{Name: dep.Name, Version: dep.Req}
				g.add(leaf)
				g.link(from, leaf.ID())
				continue
			}
			child := Node{Name: depRec.Name, Version: depRec.Versions[depVi], Resolved: true}
			fresh := g.add(child)
			g.link(from, child.ID())
			if fresh {
				queue = append(queue, item{depRec, depRec.Versions[depVi], it.depth + 1})
			}
		}
	}
	return g, nil
}

// resolve finds a package's record and picks the newest version matching
// the requirement. An empty requirement means latest.
func resolve(root, name, req string) (*index.Record, int, error) {
	file, err := index.Find(name, root)
	if err != nil {
		return nil, 0, err
	}
	rec, err := index.Load(file)
	if err != nil {
		return nil, 0, err
	}
	if req == "" {
		req = "*"
	}
	vi, ok := rec.VersionWithPrefix(req)
	if !ok {
		return nil, 0, errors.New(errors.ErrCodeVersionNotFound,
			"no published version of %s matches %q", name, req)
	}
	return rec, vi, nil
}

// resolveReq resolves an index requirement string, shaving a single
// leading ^, ~, or = so the remainder works as a version prefix. Anything
// more exotic (ranges, wildcards beyond "*") fails resolution and the
// caller keeps the dependency as an unresolved leaf.
func resolveReq(root, name, req string) (*index.Record, int, error) {
	req = strings.TrimSpace(req)
	if req != "" && req != "*" {
		req = strings.TrimLeft(req, "^~=")
		req = strings.TrimSpace(req)
		if req == "" || req[0] < '0' || req[0] > '9' {
			return nil, 0, errors.New(errors.ErrCodeVersionNotFound,
				"requirement %q for %s is not a version prefix", req, name)
		}
	}
	return resolve(root, name, req)
}

// ToJSON encodes the graph as an indented JSON document with root, nodes,
// and edges.
func ToJSON(g *Graph) ([]byte, error) {
	doc := struct {
		Root  string `json:"root"`
		Nodes []Node `json:"nodes"`
		Edges []Edge `json:"edges"`
	}{g.Root, g.nodes, g.edges}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncoding, err, "encode graph")
	}
	return out, nil
}
