package flow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildVizRuntime(t *testing.T) *Runtime {
	t.Helper()
	b := NewBuilder()
	send, recv := AddHandoff[int](b, "numbers")
	loop := b.AddLoop()
	b.AddSubgraph("generator", 0, nil, []SendRef{send}, func(ctx *Context) {})
	b.AddSubgraph("collector", 1, []RecvRef{recv}, nil, func(ctx *Context) { recv.Take() }, InLoop(loop))
	rt, err := b.Finalize()
	require.NoError(t, err)
	return rt
}

func TestDrawMermaid(t *testing.T) {
	rt := buildVizRuntime(t)
	out := NewExporter(rt.BuildMetaGraph()).DrawMermaid()

	assert.True(t, strings.HasPrefix(out, "flowchart TD"))
	assert.Contains(t, out, "generator")
	assert.Contains(t, out, "collector")
	assert.Contains(t, out, "numbers")
	assert.Contains(t, out, "-->")
	assert.Contains(t, out, "stratum 1")
}

func TestDrawMermaidDirection(t *testing.T) {
	rt := buildVizRuntime(t)
	out := NewExporter(rt.BuildMetaGraph()).DrawMermaidWithOptions(MermaidOptions{Direction: "LR"})
	assert.True(t, strings.HasPrefix(out, "flowchart LR"))
}

func TestDrawDOT(t *testing.T) {
	rt := buildVizRuntime(t)
	out := NewExporter(rt.BuildMetaGraph()).DrawDOT()

	assert.True(t, strings.HasPrefix(out, "digraph G {"))
	assert.Contains(t, out, "generator")
	assert.Contains(t, out, "parallelogram")
	assert.Contains(t, out, "->")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "}"))
}

func TestDrawASCII(t *testing.T) {
	rt := buildVizRuntime(t)
	out := NewExporter(rt.BuildMetaGraph()).DrawASCII()

	assert.Contains(t, out, "Dataflow:")
	assert.Contains(t, out, "generator")
	assert.Contains(t, out, "└──")
}

func TestDrawStyled(t *testing.T) {
	rt := buildVizRuntime(t)
	out := NewExporter(rt.BuildMetaGraph()).DrawStyled()

	assert.Contains(t, out, "generator")
	assert.Contains(t, out, "collector")
	assert.Contains(t, out, "numbers")
	assert.Contains(t, out, "loop 0")
}
