package flow

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// visualizerURLEnv overrides the external visualizer endpoint. It is the
// only environment variable recognized at the system boundary and does
// not affect execution.
const visualizerURLEnv = "TICKFLOW_VISUALIZER_URL"

const defaultVisualizerURL = "https://tickflow.dev/playground"

// VisualizerURL returns the external visualizer endpoint, honoring the
// environment override.
func VisualizerURL() string {
	if u := os.Getenv(visualizerURLEnv); u != "" {
		return u
	}
	return defaultVisualizerURL
}

// ReportMarkdown renders a markdown diagnostics report for the runtime:
// topology summary, per-subgraph table, loop tree and the Mermaid diagram
// of the meta-graph.
func (r *Runtime) ReportMarkdown() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Runtime %s\n\n", r.name)
	fmt.Fprintf(&sb, "- id: `%s`\n", r.id)
	fmt.Fprintf(&sb, "- tick: %d\n", r.tick)
	fmt.Fprintf(&sb, "- subgraphs: %d, handoffs: %d, loops: %d\n\n",
		len(r.subgraphs), len(r.handoffs), len(r.loops.loops))

	sb.WriteString("## Subgraphs\n\n")
	sb.WriteString("| id | name | stratum | loop | lazy |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, sg := range r.subgraphs {
		loop := "-"
		if sg.loop != NoLoop {
			loop = fmt.Sprint(sg.loop)
		}
		fmt.Fprintf(&sb, "| %d | %s | %d | %s | %v |\n", sg.id, sg.name, sg.stratum, loop, sg.lazy)
	}
	sb.WriteString("\n")

	sb.WriteString("## Handoffs\n\n")
	for _, rec := range r.handoffs {
		producer := "external"
		if rec.producer >= 0 {
			producer = r.subgraphs[rec.producer].name
		}
		consumer := "-"
		if rec.consumer >= 0 {
			consumer = r.subgraphs[rec.consumer].name
		}
		fmt.Fprintf(&sb, "- `%s`: %s → %s\n", rec.name, producer, consumer)
	}
	sb.WriteString("\n")

	if len(r.loops.loops) > 0 {
		sb.WriteString("## Loops\n\n")
		var roots []LoopID
		for i, l := range r.loops.loops {
			if l.parent == NoLoop {
				roots = append(roots, LoopID(i))
			}
		}
		sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
		for _, id := range roots {
			r.writeLoopTree(&sb, id, 0)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Graph\n\n")
	sb.WriteString("```mermaid\n")
	sb.WriteString(NewExporter(r.BuildMetaGraph()).DrawMermaid())
	sb.WriteString("```\n")

	fmt.Fprintf(&sb, "\nVisualizer: %s\n", VisualizerURL())
	return sb.String()
}

func (r *Runtime) writeLoopTree(sb *strings.Builder, id LoopID, depth int) {
	l := r.loops.loops[id]
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(sb, "%s- loop %d (%d subgraphs)\n", indent, id, len(l.subgraphs))
	for _, c := range l.children {
		r.writeLoopTree(sb, c, depth+1)
	}
}

// ReportHTML renders the markdown report as sanitized HTML.
func (r *Runtime) ReportHTML() string {
	md := r.ReportMarkdown()

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	raw := markdown.Render(doc, renderer)

	return bluemonday.UGCPolicy().Sanitize(string(raw))
}
