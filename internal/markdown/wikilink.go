package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/net/html"
)

// KindWikiLink is the node kind of a [[Target|Alias]] span.
var KindWikiLink = ast.NewNodeKind("WikiLink")

// WikiLink is an inline reference to another note by title or path.
type WikiLink struct {
	ast.BaseInline
	Target string
	Alias  string
}

func (n *WikiLink) Kind() ast.NodeKind {
	return KindWikiLink
}

func (n *WikiLink) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Target": n.Target,
		"Alias":  n.Alias,
	}, nil)
}

// Label is the text shown for the link.
func (n *WikiLink) Label() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Target
}

// wikiLinkParser runs ahead of the standard link parser (priority 200) so
// "[[" is never read as a link label.
type wikiLinkParser struct{}

func (p *wikiLinkParser) Trigger() []byte {
	return []byte{'['}
}

func (p *wikiLinkParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if !bytes.HasPrefix(line, []byte("[[")) {
		return nil
	}
	end := bytes.Index(line[2:], []byte("]]"))
	if end < 0 {
		return nil
	}
	inner := line[2 : 2+end]
	if bytes.ContainsAny(inner, "[]") {
		return nil
	}
	target, alias, _ := bytes.Cut(inner, []byte("|"))
	target = bytes.TrimSpace(target)
	if len(target) == 0 {
		return nil
	}
	block.Advance(end + 4)
	return &WikiLink{Target: string(target), Alias: string(bytes.TrimSpace(alias))}
}

type wikiLinkRenderer struct {
	tag string
}

func (r *wikiLinkRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindWikiLink, r.render)
}

func (r *wikiLinkRenderer) render(
	w util.BufWriter, source []byte, node ast.Node, entering bool,
) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*WikiLink)
	_, _ = w.WriteString(`<` + r.tag + ` class="wikilink" data-link="`)
	_, _ = w.WriteString(html.EscapeString(n.Target))
	_, _ = w.WriteString(`">`)
	_, _ = w.WriteString(html.EscapeString(n.Label()))
	_, _ = w.WriteString(`</` + r.tag + `>`)
	return ast.WalkSkipChildren, nil
}

// wikiLinks is the goldmark extension shared by every surface. Tag is the
// element wiki links render as.
type wikiLinks struct {
	tag string
}

func (e *wikiLinks) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&wikiLinkParser{}, 199),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&wikiLinkRenderer{tag: e.tag}, 500),
	))
}
