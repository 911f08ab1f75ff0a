package plan

import (
	"fmt"
	"strings"
)

// DuplicateNodeError means the same kind/name was declared more than once.
type DuplicateNodeError struct {
	Node Node
}

func (e DuplicateNodeError) Error() string {
	return fmt.Sprintf("duplicate resource declaration: %s", e.Node.ID())
}

// DanglingReferenceError means a reference edge points at a resource that is
// not declared in the same configuration.
type DanglingReferenceError struct {
	From Node
	To   Node
}

func (e DanglingReferenceError) Error() string {
	return fmt.Sprintf("dangling reference: %s -> %s", e.From.ID(), e.To.ID())
}

// CycleError means the reference edges form a dependency cycle, so no
// creation order exists.
type CycleError struct {
	Path []Node
}

func (e CycleError) Error() string {
	if len(e.Path) == 0 {
		return "resource dependency cycle detected"
	}
	parts := make([]string, len(e.Path))
	for i := range e.Path {
		parts[i] = e.Path[i].ID()
	}
	return "resource dependency cycle detected: " + strings.Join(parts, " -> ")
}
