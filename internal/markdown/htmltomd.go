package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var multiNewlineRe = regexp.MustCompile(`\n{3,}`)

// HTMLToMarkdown converts rich-text editor HTML back into note Markdown.
// It understands headings, bold, italic, blockquotes, line breaks,
// paragraphs, list items and wiki-link anchors; other elements keep only
// their text.
func HTMLToMarkdown(src string) (string, error) {
	nodes, err := html.ParseFragment(strings.NewReader(src), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return "", fmt.Errorf("markdown: parse html: %w", err)
	}
	var sb strings.Builder
	for _, n := range nodes {
		writeNode(&sb, n, 0)
	}
	return cleanMarkdown(sb.String()), nil
}

func writeChildren(sb *strings.Builder, n *html.Node, depth int) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(sb, c, depth+1)
	}
}

func writeNode(sb *strings.Builder, n *html.Node, depth int) {
	if depth > 100 {
		return
	}
	switch n.Type {
	case html.TextNode:
		data := n.Data
		if prev := n.PrevSibling; prev != nil && prev.Type == html.ElementNode && prev.Data == "br" {
			data = strings.TrimPrefix(data, "\n")
		}
		sb.WriteString(strings.ReplaceAll(data, "\u00a0", " "))
		return
	case html.ElementNode:
	default:
		writeChildren(sb, n, depth)
		return
	}

	switch n.Data {
	case "script", "style":
		return
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		sb.WriteString("\n" + strings.Repeat("#", level) + " ")
		writeChildren(sb, n, depth)
		sb.WriteString("\n\n")
	case "strong", "b":
		sb.WriteString("**")
		writeChildren(sb, n, depth)
		sb.WriteString("**")
	case "em", "i":
		sb.WriteString("*")
		writeChildren(sb, n, depth)
		sb.WriteString("*")
	case "br":
		sb.WriteString("\n")
	case "p":
		writeChildren(sb, n, depth)
		sb.WriteString("\n\n")
	case "div":
		sb.WriteString("\n")
		writeChildren(sb, n, depth)
	case "li":
		sb.WriteString("\n- ")
		writeChildren(sb, n, depth)
	case "blockquote":
		var inner strings.Builder
		writeChildren(&inner, n, depth)
		text := strings.Trim(inner.String(), "\n")
		sb.WriteString("\n")
		for _, line := range strings.Split(text, "\n") {
			sb.WriteString(strings.TrimRight("> "+line, " ") + "\n")
		}
		sb.WriteString("\n")
	case "a", "span", "button":
		if target := attr(n, "data-link"); target != "" {
			label := strings.TrimSpace(textOf(n))
			if label == "" || label == target {
				sb.WriteString("[[" + target + "]]")
			} else {
				sb.WriteString("[[" + target + "|" + label + "]]")
			}
			return
		}
		writeChildren(sb, n, depth)
	default:
		writeChildren(sb, n, depth)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func cleanMarkdown(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	s = strings.Join(lines, "\n")
	s = multiNewlineRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
