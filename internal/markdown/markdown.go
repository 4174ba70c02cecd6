// Package markdown parses note content once into a goldmark tree and renders
// it for three surfaces: the preview pane, the pulpit presenter and the
// rich-text editor. HTMLToMarkdown converts editor HTML back.
package markdown

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	rhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var (
	previewMD = goldmark.New(
		goldmark.WithExtensions(&wikiLinks{tag: "a"}),
		goldmark.WithRendererOptions(rhtml.WithHardWraps()),
	)
	editorMD = goldmark.New(
		goldmark.WithExtensions(&wikiLinks{tag: "a"}),
		goldmark.WithRendererOptions(
			rhtml.WithHardWraps(),
			renderer.WithNodeRenderers(util.Prioritized(&editorRenderer{}, 100)),
		),
	)

	pulpitMu sync.Mutex
	pulpitMD = map[int]goldmark.Markdown{}
)

// Parse returns the document tree of src.
func Parse(src []byte) ast.Node {
	return previewMD.Parser().Parse(text.NewReader(src))
}

// WikiLinks returns every wiki link in src, in order. Brackets inside code
// spans and fenced blocks are not links.
func WikiLinks(src []byte) []*WikiLink {
	var out []*WikiLink
	_ = ast.Walk(Parse(src), func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if l, ok := n.(*WikiLink); ok && entering {
			out = append(out, l)
		}
		return ast.WalkContinue, nil
	})
	return out
}

// RenderPreview renders src for the read-only preview pane. Raw HTML in
// the source is omitted.
func RenderPreview(src []byte) (string, error) {
	return convert(previewMD, src)
}

// RenderEditor renders src with the plain tags a contenteditable surface
// produces: b, i, h1-h6, blockquote and br.
func RenderEditor(src []byte) (string, error) {
	return convert(editorMD, src)
}

// RenderPulpit renders src at fontSize pixels: paragraphs at the base size,
// h1, h2 and h3 at +24, +16 and +8.
func RenderPulpit(src []byte, fontSize int) (string, error) {
	return convert(pulpitFor(fontSize), src)
}

func pulpitFor(size int) goldmark.Markdown {
	pulpitMu.Lock()
	defer pulpitMu.Unlock()
	if md, ok := pulpitMD[size]; ok {
		return md
	}
	md := goldmark.New(
		goldmark.WithExtensions(&wikiLinks{tag: "span"}),
		goldmark.WithRendererOptions(
			rhtml.WithHardWraps(),
			renderer.WithNodeRenderers(util.Prioritized(&pulpitRenderer{base: size}, 100)),
		),
	)
	pulpitMD[size] = md
	return md
}

func convert(md goldmark.Markdown, src []byte) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("markdown: render: %w", err)
	}
	return buf.String(), nil
}

type pulpitRenderer struct {
	base int
}

func (r *pulpitRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindHeading, r.renderHeading)
	reg.Register(ast.KindParagraph, r.renderParagraph)
}

// HeadingBoost is the size added to the base font for a heading level.
func HeadingBoost(level int) int {
	switch level {
	case 1:
		return 24
	case 2:
		return 16
	case 3:
		return 8
	default:
		return 0
	}
}

func (r *pulpitRenderer) renderHeading(
	w util.BufWriter, source []byte, node ast.Node, entering bool,
) (ast.WalkStatus, error) {
	n := node.(*ast.Heading)
	if entering {
		fmt.Fprintf(w, `<h%d class="pulpit-heading" style="font-size: %dpx;">`, n.Level, r.base+HeadingBoost(n.Level))
	} else {
		fmt.Fprintf(w, "</h%d>\n", n.Level)
	}
	return ast.WalkContinue, nil
}

func (r *pulpitRenderer) renderParagraph(
	w util.BufWriter, source []byte, node ast.Node, entering bool,
) (ast.WalkStatus, error) {
	if entering {
		fmt.Fprintf(w, `<p style="font-size: %dpx; line-height: 1.8;">`, r.base)
	} else {
		_, _ = w.WriteString("</p>\n")
	}
	return ast.WalkContinue, nil
}

type editorRenderer struct{}

func (r *editorRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindEmphasis, r.renderEmphasis)
}

func (r *editorRenderer) renderEmphasis(
	w util.BufWriter, source []byte, node ast.Node, entering bool,
) (ast.WalkStatus, error) {
	tag := "i"
	if node.(*ast.Emphasis).Level == 2 {
		tag = "b"
	}
	if entering {
		_, _ = w.WriteString("<" + tag + ">")
	} else {
		_, _ = w.WriteString("</" + tag + ">")
	}
	return ast.WalkContinue, nil
}

// VerseQuote is the Markdown inserted when a verse is dropped on the editor.
func VerseQuote(ref, text string) string {
	return "> **" + ref + "**\n> " + text + "\n\n"
}
