// Package dag implements a small insertion-ordered directed acyclic graph.
// Edges that would close a cycle are rejected with a *CycleError carrying the cycle path.
package dag

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
)

var (
	ErrEdgeAlreadyExists = errors.New("edge already exists")
	ErrCycleDetected     = errors.New("cycle detected")
	ErrVertexNotFound    = errors.New("vertex not found")
)

// CycleError is returned by AddEdge when the edge would close a cycle.
// Path starts and ends with the source of the rejected edge.
type CycleError[ID comparable] struct {
	Path []ID
}

func (e *CycleError[ID]) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("%s: %s", ErrCycleDetected, strings.Join(parts, " -> "))
}

func (e *CycleError[ID]) Unwrap() error {
	return ErrCycleDetected
}

type DAG[ID comparable, T any] struct {
	vertices map[ID]T
	order    []ID
	edges    map[ID][]ID // adjacency list in insertion order: source -> targets
	inDegree map[ID]int
}

func New[ID comparable, T any]() *DAG[ID, T] {
	return &DAG[ID, T]{
		vertices: make(map[ID]T),
		edges:    make(map[ID][]ID),
		inDegree: make(map[ID]int),
	}
}

// VertexCount returns the total number of vertices in the DAG
func (d *DAG[ID, T]) VertexCount() int {
	return len(d.vertices)
}

// EdgeCount returns the total number of edges in the DAG
func (d *DAG[ID, T]) EdgeCount() int {
	count := 0
	for _, targets := range d.edges {
		count += len(targets)
	}
	return count
}

// VertexExists checks if a vertex with the given ID exists
func (d *DAG[ID, T]) VertexExists(id ID) bool {
	_, exists := d.vertices[id]
	return exists
}

// EdgeExists checks if an edge from source to target exists
func (d *DAG[ID, T]) EdgeExists(source, target ID) bool {
	return slices.Contains(d.edges[source], target)
}

// GetVertex returns the vertex data for the given ID and whether it exists
func (d *DAG[ID, T]) GetVertex(id ID) (T, bool) {
	val, exists := d.vertices[id]
	return val, exists
}

// Vertices iterates over all vertices in insertion order.
func (d *DAG[ID, T]) Vertices() iter.Seq2[ID, T] {
	return func(yield func(ID, T) bool) {
		for _, id := range d.order {
			if !yield(id, d.vertices[id]) {
				return
			}
		}
	}
}

// OutEdges returns the targets of the edges leaving id.
func (d *DAG[ID, T]) OutEdges(id ID) []ID {
	return slices.Clone(d.edges[id])
}

// InEdges returns the sources of the edges entering id.
func (d *DAG[ID, T]) InEdges(id ID) []ID {
	var sources []ID
	for _, source := range d.order {
		if slices.Contains(d.edges[source], id) {
			sources = append(sources, source)
		}
	}
	return sources
}

// GetInDegree returns the in-degree (number of incoming edges) for a vertex
func (d *DAG[ID, T]) GetInDegree(id ID) int {
	return d.inDegree[id]
}

// GetOutDegree returns the out-degree (number of outgoing edges) for a vertex
func (d *DAG[ID, T]) GetOutDegree(id ID) int {
	return len(d.edges[id])
}

func (d *DAG[ID, T]) AddVertexIfNotExist(id ID, v T) {
	if _, exists := d.vertices[id]; exists {
		return
	}

	d.vertices[id] = v
	d.order = append(d.order, id)
	d.inDegree[id] = 0
}

func (d *DAG[ID, T]) AddEdge(source, target ID) error {
	if !d.VertexExists(source) || !d.VertexExists(target) {
		return ErrVertexNotFound
	}

	if d.EdgeExists(source, target) {
		return ErrEdgeAlreadyExists
	}

	if source == target {
		return &CycleError[ID]{Path: []ID{source, source}}
	}

	// The edge closes a cycle iff source is already reachable from target.
	if path := d.Path(target, source); path != nil {
		return &CycleError[ID]{Path: append([]ID{source}, path...)}
	}

	d.edges[source] = append(d.edges[source], target)
	d.inDegree[target]++

	return nil
}

// Path returns a path of vertices from -> ... -> to, or nil if to is not reachable.
func (d *DAG[ID, T]) Path(from, to ID) []ID {
	visited := make(map[ID]bool)

	var dfs func(ID) []ID
	dfs = func(vertex ID) []ID {
		if vertex == to {
			return []ID{vertex}
		}
		if visited[vertex] {
			return nil
		}
		visited[vertex] = true

		for _, neighbor := range d.edges[vertex] {
			if rest := dfs(neighbor); rest != nil {
				return append([]ID{vertex}, rest...)
			}
		}
		return nil
	}

	if !d.VertexExists(from) || !d.VertexExists(to) {
		return nil
	}

	return dfs(from)
}

// TopologicalOrder iterates sources before targets. Ties are broken by insertion order.
func (d *DAG[ID, T]) TopologicalOrder() iter.Seq2[ID, T] {
	return func(yield func(ID, T) bool) {
		inDegree := make(map[ID]int, len(d.inDegree))
		var queue []ID

		// Kahn's algorithm seeded in insertion order
		for _, id := range d.order {
			inDegree[id] = d.inDegree[id]
			if inDegree[id] == 0 {
				queue = append(queue, id)
			}
		}

		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			if !yield(current, d.vertices[current]) {
				return
			}

			for _, neighbor := range d.edges[current] {
				inDegree[neighbor]--
				if inDegree[neighbor] == 0 {
					queue = append(queue, neighbor)
				}
			}
		}
	}
}

// ReverseTopologicalOrder iterates targets before sources.
func (d *DAG[ID, T]) ReverseTopologicalOrder() iter.Seq2[ID, T] {
	var result []ID
	for id := range d.TopologicalOrder() {
		result = append(result, id)
	}
	slices.Reverse(result)

	return func(yield func(ID, T) bool) {
		for _, id := range result {
			if !yield(id, d.vertices[id]) {
				return
			}
		}
	}
}
