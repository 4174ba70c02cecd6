// Package diagram implements the sermon-map model: positioned, styled shapes
// joined by directed connections, persisted as one JSON document per note.
//
// The model knows nothing about rendering. A canvas front-end and an
// off-the-shelf diagram widget both drive the same Graph operations.
package diagram

import (
	"fmt"

	"github.com/starford/pulpitgraph/internal/apperr"
)

// Kind is the shape type.
type Kind string

const (
	KindStart    Kind = "start"
	KindProcess  Kind = "process"
	KindDecision Kind = "decision"
	KindVerse    Kind = "verse"
)

// Kinds lists every shape kind in palette order.
var Kinds = []Kind{KindStart, KindProcess, KindDecision, KindVerse}

// ParseKind validates s as a shape kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("diagram: unknown shape kind %q: %w", s, apperr.ErrValidation)
}

// DefaultLabel is the label a palette drop starts with.
func (k Kind) DefaultLabel() string {
	switch k {
	case KindStart:
		return "Start"
	case KindDecision:
		return "Question?"
	default:
		return "New Point"
	}
}

// Point is a position in diagram coordinates. No canvas bound is enforced.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Data holds the content fields of a shape. Label is used by every kind;
// Ref and Text are meaningful for verse shapes.
type Data struct {
	Label string `json:"label"`
	Ref   string `json:"ref,omitempty"`
	Text  string `json:"text,omitempty"`
}

// Shape is a node of the diagram. Style holds only the fields overridden
// for this shape; ResolvedStyle merges them over the kind's defaults.
type Shape struct {
	ID       string     `json:"id"`
	Kind     Kind       `json:"type"`
	Position Point      `json:"position"`
	Data     Data       `json:"data"`
	Style    StylePatch `json:"style,omitzero"`
}

// ResolvedStyle returns the complete style of the shape.
func (s Shape) ResolvedStyle() Style {
	return DefaultStyle(s.Kind).Apply(s.Style)
}

// Connection is a directed edge between two shapes.
type Connection struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Style is a fully resolved visual style.
type Style struct {
	FontFamily string  `json:"fontFamily"`
	FontWeight string  `json:"fontWeight"`
	FontSize   int     `json:"fontSize"`
	TextColor  string  `json:"textColor"`
	CardColor  string  `json:"cardColor"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// StylePatch is a partial style. Nil fields are left untouched when applied.
type StylePatch struct {
	FontFamily *string  `json:"fontFamily,omitempty"`
	FontWeight *string  `json:"fontWeight,omitempty"`
	FontSize   *int     `json:"fontSize,omitempty"`
	TextColor  *string  `json:"textColor,omitempty"`
	CardColor  *string  `json:"cardColor,omitempty"`
	Width      *float64 `json:"width,omitempty"`
	Height     *float64 `json:"height,omitempty"`
}

// IsZero reports whether the patch sets no field.
func (p StylePatch) IsZero() bool {
	return p == StylePatch{}
}

// Merge returns p with every field set in other overriding p's.
func (p StylePatch) Merge(other StylePatch) StylePatch {
	if other.FontFamily != nil {
		p.FontFamily = ptr(*other.FontFamily)
	}
	if other.FontWeight != nil {
		p.FontWeight = ptr(*other.FontWeight)
	}
	if other.FontSize != nil {
		p.FontSize = ptr(*other.FontSize)
	}
	if other.TextColor != nil {
		p.TextColor = ptr(*other.TextColor)
	}
	if other.CardColor != nil {
		p.CardColor = ptr(*other.CardColor)
	}
	if other.Width != nil {
		p.Width = ptr(*other.Width)
	}
	if other.Height != nil {
		p.Height = ptr(*other.Height)
	}
	return p
}

// Validate rejects sizes that cannot be drawn.
func (p StylePatch) Validate() error {
	if p.FontSize != nil && *p.FontSize <= 0 {
		return fmt.Errorf("diagram: font size must be positive: %w", apperr.ErrValidation)
	}
	if (p.Width != nil && *p.Width <= 0) || (p.Height != nil && *p.Height <= 0) {
		return fmt.Errorf("diagram: width and height must be positive: %w", apperr.ErrValidation)
	}
	return nil
}

// Apply returns s with the fields set in p overridden.
func (s Style) Apply(p StylePatch) Style {
	if p.FontFamily != nil {
		s.FontFamily = *p.FontFamily
	}
	if p.FontWeight != nil {
		s.FontWeight = *p.FontWeight
	}
	if p.FontSize != nil {
		s.FontSize = *p.FontSize
	}
	if p.TextColor != nil {
		s.TextColor = *p.TextColor
	}
	if p.CardColor != nil {
		s.CardColor = *p.CardColor
	}
	if p.Width != nil {
		s.Width = *p.Width
	}
	if p.Height != nil {
		s.Height = *p.Height
	}
	return s
}

var defaultStyles = map[Kind]Style{
	KindStart: {
		FontFamily: "serif", FontWeight: "bold", FontSize: 12,
		TextColor: "#166534", CardColor: "#dcfce7", Width: 80, Height: 80,
	},
	KindProcess: {
		FontFamily: "serif", FontWeight: "500", FontSize: 14,
		TextColor: "#334155", CardColor: "#ffffff", Width: 180, Height: 80,
	},
	KindDecision: {
		FontFamily: "serif", FontWeight: "bold", FontSize: 12,
		TextColor: "#1e40af", CardColor: "#eff6ff", Width: 144, Height: 144,
	},
	KindVerse: {
		FontFamily: "serif", FontWeight: "normal", FontSize: 12,
		TextColor: "#475569", CardColor: "#fffdf5", Width: 288, Height: 120,
	},
}

// DefaultStyle returns the style every shape of kind starts with.
func DefaultStyle(k Kind) Style {
	if s, ok := defaultStyles[k]; ok {
		return s
	}
	return defaultStyles[KindProcess]
}

func ptr[T any](v T) *T {
	return &v
}
