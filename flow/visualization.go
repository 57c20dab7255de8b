package flow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Exporter renders a meta-graph in different formats for diagnostics and
// external visualizers.
type Exporter struct {
	meta *MetaGraph
}

// NewExporter creates an exporter for the given meta-graph.
func NewExporter(meta *MetaGraph) *Exporter {
	return &Exporter{meta: meta}
}

// MermaidOptions defines configuration for Mermaid diagram generation
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR")
	Direction string
}

func nodeLabel(m *MetaGraph, idx int) string {
	n := m.Nodes[idx]
	if n.Value.Handoff {
		if name, ok := m.NodeVarnames[fmt.Sprint(idx)]; ok && name != "" {
			return name
		}
		return fmt.Sprintf("handoff_%d", idx)
	}
	return n.Value.Operator
}

// DrawMermaid generates a Mermaid diagram of the meta-graph, clustering
// operator nodes by subgraph.
func (e *Exporter) DrawMermaid() string {
	return e.DrawMermaidWithOptions(MermaidOptions{Direction: "TD"})
}

// DrawMermaidWithOptions generates a Mermaid diagram with custom options
func (e *Exporter) DrawMermaidWithOptions(opts MermaidOptions) string {
	var sb strings.Builder

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}
	sb.WriteString(fmt.Sprintf("flowchart %s\n", direction))

	// Cluster operator nodes by subgraph, sorted for stable output.
	sgKeys := make([]string, 0, len(e.meta.SubgraphNodes))
	for k := range e.meta.SubgraphNodes {
		sgKeys = append(sgKeys, k)
	}
	sort.Strings(sgKeys)

	clustered := make(map[int]bool)
	for _, k := range sgKeys {
		stratum := e.meta.SubgraphStratum[k]
		sb.WriteString(fmt.Sprintf("    subgraph sg%s[\"subgraph %s (stratum %d)\"]\n", k, k, stratum))
		for _, node := range e.meta.SubgraphNodes[k] {
			sb.WriteString(fmt.Sprintf("        n%d[\"%s\"]\n", node.Idx, nodeLabel(e.meta, node.Idx)))
			clustered[node.Idx] = true
		}
		sb.WriteString("    end\n")
	}

	// Handoffs and any unclustered nodes.
	for i, n := range e.meta.Nodes {
		if clustered[i] {
			continue
		}
		if n.Value.Handoff {
			sb.WriteString(fmt.Sprintf("    n%d[/\"%s\"/]\n", i, nodeLabel(e.meta, i)))
		} else {
			sb.WriteString(fmt.Sprintf("    n%d[\"%s\"]\n", i, nodeLabel(e.meta, i)))
		}
	}

	for _, edge := range e.meta.Graph {
		sb.WriteString(fmt.Sprintf("    n%d --> n%d\n", edge.Src.Idx, edge.Dst.Idx))
	}

	return sb.String()
}

// DrawDOT generates a DOT (Graphviz) representation of the meta-graph
func (e *Exporter) DrawDOT() string {
	var sb strings.Builder

	sb.WriteString("digraph G {\n")
	sb.WriteString("    rankdir=TD;\n")
	sb.WriteString("    node [shape=box];\n")

	for i, n := range e.meta.Nodes {
		if n.Value.Handoff {
			sb.WriteString(fmt.Sprintf("    n%d [label=\"%s\", shape=parallelogram, style=filled, fillcolor=lightyellow];\n", i, nodeLabel(e.meta, i)))
		} else {
			sb.WriteString(fmt.Sprintf("    n%d [label=\"%s\"];\n", i, nodeLabel(e.meta, i)))
		}
	}

	for _, edge := range e.meta.Graph {
		sb.WriteString(fmt.Sprintf("    n%d -> n%d;\n", edge.Src.Idx, edge.Dst.Idx))
	}

	sb.WriteString("}\n")
	return sb.String()
}

// DrawASCII generates an ASCII tree of the meta-graph, following edges
// from the nodes that have no inbound edge.
func (e *Exporter) DrawASCII() string {
	var sb strings.Builder
	sb.WriteString("Dataflow:\n")

	hasInbound := make(map[int]bool)
	for _, edge := range e.meta.Graph {
		hasInbound[edge.Dst.Idx] = true
	}

	visited := make(map[int]bool)
	roots := 0
	for i := range e.meta.Nodes {
		if !hasInbound[i] {
			e.drawASCIINode(i, "", true, visited, &sb)
			roots++
		}
	}
	if roots == 0 && len(e.meta.Nodes) > 0 {
		e.drawASCIINode(0, "", true, visited, &sb)
	}
	return sb.String()
}

func (e *Exporter) drawASCIINode(idx int, prefix string, isLast bool, visited map[int]bool, sb *strings.Builder) {
	connector := "├──"
	nextPrefix := prefix + "│   "
	if isLast {
		connector = "└──"
		nextPrefix = prefix + "    "
	}

	if visited[idx] {
		sb.WriteString(fmt.Sprintf("%s%s %s (cycle)\n", prefix, connector, nodeLabel(e.meta, idx)))
		return
	}
	visited[idx] = true

	sb.WriteString(fmt.Sprintf("%s%s %s\n", prefix, connector, nodeLabel(e.meta, idx)))

	var targets []int
	for _, edge := range e.meta.Graph {
		if edge.Src.Idx == idx {
			targets = append(targets, edge.Dst.Idx)
		}
	}
	sort.Ints(targets)

	for i, t := range targets {
		e.drawASCIINode(t, nextPrefix, i == len(targets)-1, visited, sb)
	}
}

var (
	styledOperator = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	styledHandoff  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styledHeader   = lipgloss.NewStyle().Foreground(lipgloss.Color("105")).Bold(true).Underline(true)
	styledMeta     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// DrawStyled renders the meta-graph as a terminal tree with lipgloss
// styling: operators bold, handoffs highlighted, stratum info dimmed.
func (e *Exporter) DrawStyled() string {
	var sb strings.Builder
	sb.WriteString(styledHeader.Render("Dataflow") + "\n")

	sgKeys := make([]string, 0, len(e.meta.SubgraphNodes))
	for k := range e.meta.SubgraphNodes {
		sgKeys = append(sgKeys, k)
	}
	sort.Strings(sgKeys)

	for _, k := range sgKeys {
		stratum := e.meta.SubgraphStratum[k]
		lazy := e.meta.SubgraphLaziness[k]
		meta := fmt.Sprintf("stratum %d", stratum)
		if lazy {
			meta += ", lazy"
		}
		sb.WriteString(fmt.Sprintf("%s %s\n",
			styledOperator.Render("subgraph "+k),
			styledMeta.Render("("+meta+")")))
		for _, node := range e.meta.SubgraphNodes[k] {
			sb.WriteString("  " + styledOperator.Render(nodeLabel(e.meta, node.Idx)))
			if loop, ok := e.meta.NodeLoops[fmt.Sprint(node.Idx)]; ok {
				sb.WriteString(" " + styledMeta.Render(fmt.Sprintf("[loop %d]", loop.Idx)))
			}
			sb.WriteString("\n")
		}
	}

	for i, n := range e.meta.Nodes {
		if n.Value.Handoff {
			sb.WriteString(styledHandoff.Render("⇄ "+nodeLabel(e.meta, i)) + "\n")
		}
	}
	return sb.String()
}
