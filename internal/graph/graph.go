// Package graph builds the read-only knowledge graph of notes joined by
// wiki links and lays it out with a small force simulation.
package graph

import (
	"math"
	"sort"
	"strings"

	"github.com/starford/pulpitgraph/internal/models"
	"github.com/starford/pulpitgraph/internal/parser"
)

// Doc is the part of a note the graph needs. Path is the note's folder
// path plus title, e.g. "Sermons/Advent/Hope".
type Doc struct {
	ID      string
	Title   string
	Path    string
	Content string
}

// Docs converts notes, using path to compute each note's folder path.
func Docs(notes []models.Note, path func(models.Note) string) []Doc {
	out := make([]Doc, len(notes))
	for i, n := range notes {
		out[i] = Doc{ID: n.ID, Title: n.Title, Path: path(n), Content: n.Content}
	}
	return out
}

// Node is one note in the graph.
type Node struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Path  string  `json:"path"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Edge is one resolved wiki-link occurrence. Repeated links produce
// repeated edges.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is a snapshot; rebuilding from the notes is the only way to update it.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Build creates one node per doc and one edge per wiki link that resolves
// to another doc. Self links and unresolved links are dropped.
func Build(docs []Doc) Graph {
	r := NewResolver(docs)
	g := Graph{Nodes: make([]Node, 0, len(docs)), Edges: []Edge{}}
	for _, d := range docs {
		g.Nodes = append(g.Nodes, Node{ID: d.ID, Title: d.Title, Path: d.Path})
	}
	for _, d := range docs {
		for _, l := range parser.Parse(d.Content).Occurrences {
			id, ok := r.Resolve(l.Target)
			if !ok || id == d.ID {
				continue
			}
			g.Edges = append(g.Edges, Edge{Source: d.ID, Target: id})
		}
	}
	return g
}

// Backlinks returns the distinct ids of nodes linking to id.
func (g Graph) Backlinks(id string) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range g.Edges {
		if e.Target == id && !seen[e.Source] {
			seen[e.Source] = true
			out = append(out, e.Source)
		}
	}
	return out
}

// NodeAt returns the node whose centre lies within radius of (x, y),
// nearest first. It backs click-to-navigate.
func (g Graph) NodeAt(x, y, radius float64) (Node, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, n := range g.Nodes {
		d := math.Hypot(n.X-x, n.Y-y)
		if d <= radius && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Node{}, false
	}
	return g.Nodes[best], true
}

// Resolver maps wiki-link targets to note ids.
type Resolver struct {
	byPath map[string]string
	byName map[string][]string
	paths  []pathEntry
}

type pathEntry struct {
	path string
	id   string
}

// NewResolver indexes docs by full path and by file name.
func NewResolver(docs []Doc) *Resolver {
	r := &Resolver{byPath: map[string]string{}, byName: map[string][]string{}}
	for _, d := range docs {
		p := normalize(d.Path)
		if p == "" {
			p = normalize(d.Title)
		}
		if _, dup := r.byPath[p]; !dup {
			r.byPath[p] = d.ID
		}
		r.paths = append(r.paths, pathEntry{path: p, id: d.ID})

		names := map[string]struct{}{normalize(d.Title): {}}
		if i := strings.LastIndex(p, "/"); i >= 0 {
			names[p[i+1:]] = struct{}{}
		} else {
			names[p] = struct{}{}
		}
		for name := range names {
			if name != "" {
				r.byName[name] = append(r.byName[name], d.ID)
			}
		}
	}
	sort.SliceStable(r.paths, func(i, j int) bool { return r.paths[i].path < r.paths[j].path })
	return r
}

// Resolve tries an exact path match, then a file name carried by exactly
// one note, then the first path ending in "/"+target.
func (r *Resolver) Resolve(target string) (string, bool) {
	t := normalize(target)
	if t == "" {
		return "", false
	}
	if id, ok := r.byPath[t]; ok {
		return id, true
	}
	if ids := r.byName[t]; len(ids) == 1 {
		return ids[0], true
	}
	suffix := "/" + t
	for _, e := range r.paths {
		if strings.HasSuffix(e.path, suffix) {
			return e.id, true
		}
	}
	return "", false
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, ".md")
	return strings.Trim(s, "/")
}
