package diagram

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/starford/pulpitgraph/internal/apperr"
)

// StartShapeID is the id of the start shape seeded into a new diagram.
const StartShapeID = "start-1"

// Graph is one note's diagram. It is not safe for concurrent use; Session
// adds locking for editors.
type Graph struct {
	Shapes      []Shape      `json:"shapes"`
	Connections []Connection `json:"connections"`
}

// NewDefaultGraph returns the graph a note starts with: a single start shape.
func NewDefaultGraph() Graph {
	return Graph{
		Shapes: []Shape{{
			ID:       StartShapeID,
			Kind:     KindStart,
			Position: Point{X: 250, Y: 50},
			Data:     Data{Label: "Start Sermon"},
		}},
		Connections: []Connection{},
	}
}

// Clone returns a deep copy of g.
func (g Graph) Clone() Graph {
	out := Graph{
		Shapes:      make([]Shape, len(g.Shapes)),
		Connections: make([]Connection, len(g.Connections)),
	}
	for i, s := range g.Shapes {
		s.Style = StylePatch{}.Merge(s.Style)
		out.Shapes[i] = s
	}
	copy(out.Connections, g.Connections)
	return out
}

func (g *Graph) indexOf(id string) int {
	for i := range g.Shapes {
		if g.Shapes[i].ID == id {
			return i
		}
	}
	return -1
}

// Shape returns the shape with id.
func (g *Graph) Shape(id string) (Shape, bool) {
	i := g.indexOf(id)
	if i < 0 {
		return Shape{}, false
	}
	return g.Shapes[i], true
}

func (g *Graph) mustIndex(id string) (int, error) {
	i := g.indexOf(id)
	if i < 0 {
		return -1, fmt.Errorf("diagram: shape %s: %w", id, apperr.ErrNotFound)
	}
	return i, nil
}

// AddShape appends a new shape of kind at pos with the kind's default style.
// A nil data gets the kind's default label.
func (g *Graph) AddShape(kind Kind, pos Point, data *Data) Shape {
	s := Shape{
		ID:       uuid.NewString(),
		Kind:     kind,
		Position: pos,
		Data:     Data{Label: kind.DefaultLabel()},
	}
	if data != nil {
		s.Data = *data
	}
	g.Shapes = append(g.Shapes, s)
	return s
}

// Connect adds a directed connection from source to target. Self and
// duplicate connections are silent no-ops reported with created=false.
func (g *Graph) Connect(source, target string) (Connection, bool, error) {
	if source == target {
		return Connection{}, false, nil
	}
	if _, err := g.mustIndex(source); err != nil {
		return Connection{}, false, err
	}
	if _, err := g.mustIndex(target); err != nil {
		return Connection{}, false, err
	}
	for _, c := range g.Connections {
		if c.Source == source && c.Target == target {
			return c, false, nil
		}
	}
	c := Connection{ID: uuid.NewString(), Source: source, Target: target}
	g.Connections = append(g.Connections, c)
	return c, true, nil
}

// Disconnect removes a connection by id.
func (g *Graph) Disconnect(id string) error {
	for i, c := range g.Connections {
		if c.ID == id {
			g.Connections = append(g.Connections[:i], g.Connections[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("diagram: connection %s: %w", id, apperr.ErrNotFound)
}

// RestyleShape shallow-merges patch over the shape's current style override.
func (g *Graph) RestyleShape(id string, patch StylePatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	i, err := g.mustIndex(id)
	if err != nil {
		return err
	}
	g.Shapes[i].Style = g.Shapes[i].Style.Merge(patch)
	return nil
}

// DeleteShape removes a shape and every connection touching it.
func (g *Graph) DeleteShape(id string) error {
	i, err := g.mustIndex(id)
	if err != nil {
		return err
	}
	g.Shapes = append(g.Shapes[:i], g.Shapes[i+1:]...)
	kept := g.Connections[:0]
	for _, c := range g.Connections {
		if c.Source != id && c.Target != id {
			kept = append(kept, c)
		}
	}
	g.Connections = kept
	return nil
}

// ShapeEdit changes several parts of one shape at once. Nil fields are
// left untouched. Positions are taken as given, with no snapping.
type ShapeEdit struct {
	Position *Point
	Label    *string
	Ref      *string
	Text     *string
	Style    *StylePatch
}

// EditShape applies every part of e to shape id, or nothing when any part
// is invalid. Ref and text are only accepted on verse shapes.
func (g *Graph) EditShape(id string, e ShapeEdit) error {
	i, err := g.mustIndex(id)
	if err != nil {
		return err
	}
	s := g.Shapes[i]
	if e.Style != nil {
		if err := e.Style.Validate(); err != nil {
			return err
		}
	}
	if (e.Ref != nil || e.Text != nil) && s.Kind != KindVerse {
		return fmt.Errorf("diagram: ref and text not valid for %s shape: %w", s.Kind, apperr.ErrValidation)
	}

	if e.Position != nil {
		s.Position = *e.Position
	}
	if e.Label != nil {
		s.Data.Label = *e.Label
	}
	if e.Ref != nil {
		s.Data.Ref = *e.Ref
	}
	if e.Text != nil {
		s.Data.Text = *e.Text
	}
	if e.Style != nil {
		s.Style = s.Style.Merge(*e.Style)
	}
	g.Shapes[i] = s
	return nil
}

// Validate rejects shapes of unknown kind or with an undrawable style.
func (g *Graph) Validate() error {
	for _, s := range g.Shapes {
		if _, err := ParseKind(string(s.Kind)); err != nil {
			return fmt.Errorf("diagram: shape %s: %w", s.ID, err)
		}
		if err := s.Style.Validate(); err != nil {
			return fmt.Errorf("diagram: shape %s: %w", s.ID, err)
		}
	}
	return nil
}

// normalize repairs a graph read from disk or supplied whole by a client.
// Nil slices become empty, shapes without an id get one and repeated shape
// ids keep their first shape. Connections that dangle, loop back to their
// source or repeat an earlier source and target pair are dropped, and
// missing or repeated connection ids are replaced.
func (g *Graph) normalize() {
	ids := make(map[string]struct{}, len(g.Shapes))
	shapes := make([]Shape, 0, len(g.Shapes))
	for _, s := range g.Shapes {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if _, dup := ids[s.ID]; dup {
			continue
		}
		ids[s.ID] = struct{}{}
		shapes = append(shapes, s)
	}
	g.Shapes = shapes

	type pair struct{ source, target string }
	pairs := make(map[pair]struct{}, len(g.Connections))
	connIDs := make(map[string]struct{}, len(g.Connections))
	kept := make([]Connection, 0, len(g.Connections))
	for _, c := range g.Connections {
		_, okS := ids[c.Source]
		_, okT := ids[c.Target]
		if !okS || !okT || c.Source == c.Target {
			continue
		}
		p := pair{c.Source, c.Target}
		if _, dup := pairs[p]; dup {
			continue
		}
		pairs[p] = struct{}{}
		if _, dup := connIDs[c.ID]; c.ID == "" || dup {
			c.ID = uuid.NewString()
		}
		connIDs[c.ID] = struct{}{}
		kept = append(kept, c)
	}
	g.Connections = kept
}
