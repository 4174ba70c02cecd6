package diagram

import (
	"encoding/json"
	"strings"
)

// Drag carriers, named after the browser DataTransfer types the front-end sets.
const (
	CarrierJSON    = "application/json"
	CarrierPalette = "application/reactflow/type"
	CarrierText    = "text/plain"
)

// DragData is the payload of a drag operation keyed by carrier type.
type DragData map[string]string

// VerseDrag is the JSON body carried by a verse drag.
type VerseDrag struct {
	ID    string `json:"id"`
	Ref   string `json:"ref"`
	Text  string `json:"text"`
	Theme string `json:"theme,omitempty"`
}

// Verse decodes the verse carried by the payload, if any.
func (d DragData) Verse() (VerseDrag, bool) {
	raw, ok := d[CarrierJSON]
	if !ok || strings.TrimSpace(raw) == "" {
		return VerseDrag{}, false
	}
	var v VerseDrag
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return VerseDrag{}, false
	}
	if v.Ref == "" {
		return VerseDrag{}, false
	}
	return v, true
}

// Viewport maps screen coordinates of the diagram surface to diagram
// coordinates: diagram = (screen - offset) / zoom.
type Viewport struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Zoom    float64 `json:"zoom"`
}

// Project converts a screen point. A zero zoom is treated as 1.
func (v Viewport) Project(screen Point) Point {
	z := v.Zoom
	if z == 0 {
		z = 1
	}
	return Point{X: (screen.X - v.OffsetX) / z, Y: (screen.Y - v.OffsetY) / z}
}

// Drop applies a drag payload at pos. A verse payload wins over a palette
// token. Payloads that carry neither are ignored and report false.
func Drop(g *Graph, data DragData, pos Point) (Shape, bool) {
	if v, ok := data.Verse(); ok {
		return g.AddShape(KindVerse, pos, &Data{Label: v.Ref, Ref: v.Ref, Text: v.Text}), true
	}
	token, ok := data[CarrierPalette]
	if !ok {
		return Shape{}, false
	}
	kind, err := ParseKind(strings.TrimSpace(token))
	if err != nil {
		return Shape{}, false
	}
	return g.AddShape(kind, pos, nil), true
}
