package diagram

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/pulpitgraph/internal/apperr"
	"github.com/starford/pulpitgraph/internal/storage"
)

const keyPrefix = "diagrams/"

// Key returns the storage key of a note's diagram.
func Key(noteID string) string {
	return keyPrefix + noteID
}

// Repository persists one diagram document per note.
type Repository struct {
	store  storage.Store
	logger *slog.Logger
}

// NewRepository returns a Repository over store. A nil logger uses slog.Default.
func NewRepository(store storage.Store, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{store: store, logger: logger}
}

// Load returns the note's diagram. It never fails: a missing, unreadable or
// corrupt document yields the default graph.
func (r *Repository) Load(noteID string) Graph {
	raw, err := r.store.Get(Key(noteID))
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			r.logger.Warn("diagram: load failed",
				slog.String("note_id", noteID),
				slog.String("error", err.Error()))
		}
		return NewDefaultGraph()
	}
	g, err := decode(raw)
	if err != nil {
		r.logger.Warn("diagram: corrupt document, using default",
			slog.String("note_id", noteID),
			slog.String("error", err.Error()))
		return NewDefaultGraph()
	}
	return g
}

// Save overwrites the note's diagram document.
func (r *Repository) Save(noteID string, g Graph) error {
	g = g.Clone()
	g.normalize()
	raw, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("diagram: encode: %w", err)
	}
	if err := r.store.Set(Key(noteID), raw); err != nil {
		return fmt.Errorf("diagram: save %s: %w", noteID, err)
	}
	return nil
}

// Delete discards the note's diagram document.
func (r *Repository) Delete(noteID string) error {
	if err := r.store.Delete(Key(noteID)); err != nil {
		return fmt.Errorf("diagram: delete %s: %w", noteID, err)
	}
	return nil
}

// document accepts the current layout and both layouts written by earlier
// front-ends, which stored shapes under "nodes" and connections under "edges".
type document struct {
	Shapes      []Shape      `json:"shapes"`
	Connections []Connection `json:"connections"`
	Nodes       []legacyNode `json:"nodes"`
	Edges       []Connection `json:"edges"`
}

// legacyNode covers the widget layout {id,type,position,data} and the
// canvas layout {id,type,x,y,text}.
type legacyNode struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Position *Point  `json:"position"`
	Data     *Data   `json:"data"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Text     string  `json:"text"`
}

func decode(raw []byte) (Graph, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Graph{}, err
	}
	var g Graph
	switch {
	case doc.Shapes != nil:
		g = Graph{Shapes: doc.Shapes, Connections: doc.Connections}
	case doc.Nodes != nil:
		g = Graph{Connections: doc.Edges}
		for _, n := range doc.Nodes {
			g.Shapes = append(g.Shapes, n.shape())
		}
	default:
		return Graph{}, errors.New("no shapes")
	}
	for i := range g.Shapes {
		if _, err := ParseKind(string(g.Shapes[i].Kind)); err != nil {
			g.Shapes[i].Kind = KindProcess
		}
		if g.Shapes[i].Style.Validate() != nil {
			g.Shapes[i].Style = StylePatch{}
		}
	}
	g.normalize()
	return g, nil
}

func (n legacyNode) shape() Shape {
	kind, err := ParseKind(n.Type)
	if err != nil {
		// "default", "illustration" and untyped nodes were plain points.
		kind = KindProcess
	}
	s := Shape{ID: n.ID, Kind: kind}
	if n.Position != nil {
		s.Position = *n.Position
	} else {
		s.Position = Point{X: n.X, Y: n.Y}
	}
	if n.Data != nil {
		s.Data = *n.Data
		if s.Data.Label == "" {
			s.Data.Label = s.Data.Ref
		}
		return s
	}
	s.Data.Label = n.Text
	if kind == KindVerse {
		ref, text, _ := strings.Cut(n.Text, "\n")
		s.Data = Data{Label: ref, Ref: ref, Text: strings.TrimSpace(text)}
	}
	return s
}
