// Package parser extracts front matter, wiki-link occurrences, tags and a
// title from note content.
package parser

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/pulpitgraph/internal/markdown"
)

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// Link is one [[Target|Alias]] occurrence.
type Link struct {
	Target string
	Alias  string
}

// Result holds the output of parsing note content.
type Result struct {
	FrontMatter map[string]any
	Body        string
	// Occurrences lists every wiki link in order, repeats included.
	Occurrences []Link
	// Links lists distinct targets in first-seen order.
	Links []string
	Tags  []string
	Title string
}

// Parse never fails: malformed front matter is left in the body.
func Parse(content string) Result {
	fm, body := splitFrontMatter(content)
	occ := extractOccurrences(body)
	return Result{
		FrontMatter: fm,
		Body:        body,
		Occurrences: occ,
		Links:       distinctTargets(occ),
		Tags:        extractTags(body, fm),
		Title:       deriveTitle(fm, body),
	}
}

// splitFrontMatter separates a leading YAML block delimited by --- lines.
func splitFrontMatter(content string) (map[string]any, string) {
	const delim = "---"
	trimmed := strings.TrimLeft(content, "\n\r")
	if !strings.HasPrefix(trimmed, delim+"\n") && !strings.HasPrefix(trimmed, delim+"\r\n") {
		return nil, content
	}

	rest := trimmed[len(delim):]
	idx := strings.Index(rest, "\n"+delim)
	if idx < 0 {
		return nil, content
	}
	block := rest[:idx]
	body := strings.TrimLeft(rest[idx+1+len(delim):], "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return nil, content
	}
	return fm, body
}

// extractOccurrences reads links from the Markdown tree, so brackets in
// code are skipped.
func extractOccurrences(body string) []Link {
	nodes := markdown.WikiLinks([]byte(body))
	out := make([]Link, len(nodes))
	for i, n := range nodes {
		out[i] = Link{Target: n.Target, Alias: n.Alias}
	}
	return out
}

func distinctTargets(occ []Link) []string {
	seen := make(map[string]struct{}, len(occ))
	var out []string
	for _, l := range occ {
		if _, ok := seen[l.Target]; ok {
			continue
		}
		seen[l.Target] = struct{}{}
		out = append(out, l.Target)
	}
	return out
}

// extractTags collects front matter tags (list or comma string) then inline #tags.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "#"))
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	switch v := fm["tags"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			add(s)
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// deriveTitle prefers a front matter title, then the first level-one heading.
func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
