// Package plan models the declaration set of a deployment as a resource
// dependency graph. Every declared cloud resource becomes a node and every
// reference expression ("A reads B's identifier") becomes an edge, so the
// properties the orchestration engine relies on (no dangling references, no
// cycles, a well-defined creation order) can be checked in CI before an
// apply ever reaches the provider.
//
// Creation order follows TopoOrder (dependencies first); deletion order is
// its reverse.
package plan

import (
	"fmt"
	"strings"
)

// Node identifies a single declared resource by kind and name.
type Node struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// Ref builds a node reference without declaring it. Edges built from Ref
// against an undeclared node surface as DanglingReferenceError during
// Validate, mirroring an unresolved reference expression.
func Ref(kind, name string) Node {
	return Node{Kind: kind, Name: name}
}

// ID returns the canonical "kind/name" identifier.
func (n Node) ID() string {
	return n.Kind + "/" + n.Name
}

// Edge means "From references To": To must exist before From is created,
// and From must be gone before To is deleted.
type Edge struct {
	From Node `json:"from"`
	To   Node `json:"to"`
}

// Graph is a declaration-set dependency graph under construction.
type Graph struct {
	nodes      map[string]Node
	order      []Node
	edges      []Edge
	duplicates []Node
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]Node),
	}
}

// AddNode declares a resource node and returns it for reference wiring.
// Declaring the same kind/name twice is recorded and reported by Validate.
func (g *Graph) AddNode(kind, name string) Node {
	node := Node{Kind: kind, Name: name}
	key := node.ID()
	if _, exists := g.nodes[key]; exists {
		g.duplicates = append(g.duplicates, node)
		return node
	}
	g.nodes[key] = node
	g.order = append(g.order, node)
	return node
}

// AddEdge records that from references to.
func (g *Graph) AddEdge(from, to Node) {
	g.edges = append(g.edges, Edge{From: from, To: to})
}

// Nodes returns the declared nodes in declaration order.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, len(g.order))
	copy(nodes, g.order)
	return nodes
}

// Edges returns the recorded reference edges in declaration order.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// Validate checks the structural invariants of the declaration set:
// no duplicate declarations, every reference edge resolves to a declared
// node, and the reference graph is acyclic.
func (g *Graph) Validate() error {
	if len(g.duplicates) > 0 {
		return DuplicateNodeError{Node: g.duplicates[0]}
	}
	for _, edge := range g.edges {
		if _, ok := g.nodes[edge.From.ID()]; !ok {
			return DanglingReferenceError{From: edge.From, To: edge.To}
		}
		if _, ok := g.nodes[edge.To.ID()]; !ok {
			return DanglingReferenceError{From: edge.From, To: edge.To}
		}
	}
	_, err := g.TopoOrder()
	return err
}

// TopoOrder returns a creation order: every node appears after all nodes it
// references. Deletion order is the reverse. Returns CycleError when the
// reference edges form a cycle.
func (g *Graph) TopoOrder() ([]Node, error) {
	deps := make(map[string][]Node, len(g.nodes))
	for _, edge := range g.edges {
		deps[edge.From.ID()] = append(deps[edge.From.ID()], edge.To)
	}

	const (
		stateNew uint8 = iota
		stateVisiting
		stateDone
	)

	state := make(map[string]uint8, len(g.nodes))
	stack := make([]Node, 0, len(g.nodes))
	stackPos := make(map[string]int, len(g.nodes))
	topo := make([]Node, 0, len(g.nodes))

	var visit func(node Node) error
	visit = func(node Node) error {
		key := node.ID()
		switch state[key] {
		case stateDone:
			return nil
		case stateVisiting:
			pos := stackPos[key]
			cycle := append([]Node(nil), stack[pos:]...)
			cycle = append(cycle, node)
			return CycleError{Path: cycle}
		}

		state[key] = stateVisiting
		stackPos[key] = len(stack)
		stack = append(stack, node)

		for _, dep := range deps[key] {
			if _, declared := g.nodes[dep.ID()]; !declared {
				return DanglingReferenceError{From: node, To: dep}
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		delete(stackPos, key)
		state[key] = stateDone
		topo = append(topo, node)
		return nil
	}

	for _, node := range g.order {
		if state[node.ID()] == stateDone {
			continue
		}
		if err := visit(node); err != nil {
			return nil, err
		}
	}
	return topo, nil
}

// DOT exports Graphviz DOT text, edges pointing at the referenced resource.
func (g *Graph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph plan {\n")
	b.WriteString("  rankdir=LR;\n")

	aliases := make(map[string]string, len(g.order))
	for i, n := range g.order {
		alias := fmt.Sprintf("n%d", i)
		aliases[n.ID()] = alias
		b.WriteString(fmt.Sprintf("  %s [label=\"%s\"];\n", alias, escapeLabel(n.ID())))
	}
	for _, e := range g.edges {
		from, okFrom := aliases[e.From.ID()]
		to, okTo := aliases[e.To.ID()]
		if !okFrom || !okTo {
			continue
		}
		b.WriteString(fmt.Sprintf("  %s -> %s;\n", from, to))
	}
	b.WriteString("}\n")
	return b.String()
}

// Mermaid exports Mermaid graph text.
func (g *Graph) Mermaid() string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	aliases := make(map[string]string, len(g.order))
	for i, n := range g.order {
		alias := fmt.Sprintf("n%d", i)
		aliases[n.ID()] = alias
		b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", alias, escapeLabel(n.ID())))
	}
	for _, e := range g.edges {
		from, okFrom := aliases[e.From.ID()]
		to, okTo := aliases[e.To.ID()]
		if !okFrom || !okTo {
			continue
		}
		b.WriteString(fmt.Sprintf("    %s --> %s\n", from, to))
	}
	return b.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}
