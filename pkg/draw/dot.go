package draw

import (
	"fmt"
	"strings"

	"github.com/zhulik/iocraft"
	"github.com/zhulik/iocraft/pkg/dag"
)

type dotRenderer struct {
	*strings.Builder

	graph  *dag.DAG[iocraft.Token, *iocraft.Descriptor]
	cycles []iocraft.Edge
}

func (r *dotRenderer) Render() []byte {
	r.WriteString(`digraph DependencyGraph {
	graph [size="15,30"];
	fontname="Helvetica,Arial,sans-serif"
	node [fontname="Helvetica,Arial,sans-serif"]
	edge [fontname="Helvetica,Arial,sans-serif"]
`)

	for token, vertex := range r.graph.TopologicalOrder() {
		r.renderVertex(token, vertex)
	}

	for token, vertex := range r.graph.TopologicalOrder() {
		for _, edge := range r.graph.OutEdges(token) {
			edgeVertex, _ := r.graph.GetVertex(edge)
			r.renderEdge(vertex, edgeVertex, "solid")
		}
	}

	// edges closing a cycle were resolved with lazy handles
	for _, edge := range r.cycles {
		r.renderEdge(edge.From, edge.To, "dashed")
	}

	r.WriteString("}\n")

	return []byte(r.String())
}

func (r *dotRenderer) vertexShape(token iocraft.Token, vertex *iocraft.Descriptor) string {
	// raw services are handed out without a facade
	if !vertex.UsesFacade {
		return "box"
	}

	if len(r.graph.OutEdges(token)) == 0 {
		return "house"
	}

	return "ellipse"
}

func (r *dotRenderer) vertexColor(token iocraft.Token) string {
	for _, edge := range r.cycles {
		if edge.From.Token == token || edge.To.Token == token {
			return "gold"
		}
	}

	if len(r.graph.InEdges(token)) == 0 {
		return "indianred1"
	}

	return "transparent"
}

func (r *dotRenderer) renderVertex(token iocraft.Token, vertex *iocraft.Descriptor) {
	fmt.Fprintf(r, `	%s [label="%s", tooltip="%s", shape="%s", fillcolor="%s", style="filled"]`,
		sanitizeID(vertex.Name), simplifyName(vertex.Name), vertex.Name, r.vertexShape(token, vertex), r.vertexColor(token),
	)
	r.WriteRune('\n')
}

func (r *dotRenderer) renderEdge(source, target *iocraft.Descriptor, style string) {
	fmt.Fprintf(r, `	%s -> %s [style="%s"]`, sanitizeID(source.Name), sanitizeID(target.Name), style)
	r.WriteRune('\n')
}

// RenderDOT renders a dependency graph recorded by a container in the graphviz DOT format.
// Cycle edges are drawn dashed.
func RenderDOT(graph *dag.DAG[iocraft.Token, *iocraft.Descriptor], cycles []iocraft.Edge) []byte {
	renderer := &dotRenderer{Builder: &strings.Builder{}, graph: graph, cycles: cycles}

	return renderer.Render()
}

// RenderContainer renders the dependency graph of c.
func RenderContainer(c *iocraft.Container) []byte {
	return RenderDOT(c.Graph(), c.Cycles())
}

func sanitizeID(id string) string {
	return strings.NewReplacer("*", "", ".", "_", "/", "_", "-", "_", "[", "_", "]", "_", " ", "_").Replace(id)
}

func simplifyName(name string) string {
	parts := strings.Split(name, "/")
	last := parts[len(parts)-1]
	if strings.HasPrefix(name, "*") && !strings.HasPrefix(last, "*") {
		return "*" + last
	}
	return last
}
