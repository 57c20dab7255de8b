package flow

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportMarkdown(t *testing.T) {
	b := NewBuilder()
	b.SetName("report-test")
	send, recv := AddHandoff[int](b, "wire")
	b.AddSubgraph("src", 0, nil, []SendRef{send}, func(ctx *Context) {})
	b.AddSubgraph("dst", 0, []RecvRef{recv}, nil, func(ctx *Context) { recv.Take() })

	rt, err := b.Finalize()
	require.NoError(t, err)

	md := rt.ReportMarkdown()
	assert.Contains(t, md, "# Runtime report-test")
	assert.Contains(t, md, "| 0 | src | 0 |")
	assert.Contains(t, md, "`wire`: src → dst")
	assert.Contains(t, md, "```mermaid")
	assert.Contains(t, md, "Visualizer: ")
}

func TestReportHTMLSanitized(t *testing.T) {
	b := NewBuilder()
	b.SetName("html-test")
	// Hostile subgraph name must not survive sanitization as markup.
	b.AddSubgraph("<script>alert(1)</script>", 0, nil, nil, func(ctx *Context) {})

	rt, err := b.Finalize()
	require.NoError(t, err)

	htmlOut := rt.ReportHTML()
	assert.NotContains(t, htmlOut, "<script>")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlOut))
	require.NoError(t, err)

	// The heading and the subgraph table come through as real HTML.
	assert.Equal(t, 1, doc.Find("h1").Length())
	assert.GreaterOrEqual(t, doc.Find("table").Length(), 1)
	assert.Contains(t, doc.Find("h1").Text(), "html-test")
}

func TestVisualizerURLOverride(t *testing.T) {
	assert.Equal(t, defaultVisualizerURL, VisualizerURL())

	t.Setenv(visualizerURLEnv, "https://viz.example.com")
	assert.Equal(t, "https://viz.example.com", VisualizerURL())
}
