// Package verses is the static scripture catalog browsed from the side
// panel and dragged onto notes and sermon maps.
package verses

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/starford/pulpitgraph/internal/apperr"
	"github.com/starford/pulpitgraph/internal/diagram"
	"github.com/starford/pulpitgraph/internal/models"
)

// Themes returns the theme names in browsing order.
func Themes() []string {
	return slices.Clone(themeOrder)
}

// ByTheme returns the verses of one theme, each tagged with the theme.
func ByTheme(theme string) []models.Verse {
	vs := catalog[theme]
	out := make([]models.Verse, len(vs))
	for i, v := range vs {
		v.Theme = theme
		out[i] = v
	}
	return out
}

// All returns every verse in catalog order.
func All() []models.Verse {
	var out []models.Verse
	for _, theme := range themeOrder {
		out = append(out, ByTheme(theme)...)
	}
	return out
}

// Get returns the verse with id.
func Get(id string) (models.Verse, error) {
	for _, v := range All() {
		if v.ID == id {
			return v, nil
		}
	}
	return models.Verse{}, fmt.Errorf("verses: %s: %w", id, apperr.ErrNotFound)
}

// Search matches q case-insensitively against references and text. An
// empty query matches nothing.
func Search(q string) []models.Verse {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil
	}
	var out []models.Verse
	for _, v := range All() {
		if strings.Contains(strings.ToLower(v.Ref), q) || strings.Contains(strings.ToLower(v.Text), q) {
			out = append(out, v)
		}
	}
	return out
}

// Suggest ranks references by fuzzy match against q, best first, for
// reference autocompletion. A non-positive limit returns every match.
func Suggest(q string, limit int) []models.Verse {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	all := All()
	refs := make([]string, len(all))
	for i, v := range all {
		refs[i] = v.Ref
	}
	matches := fuzzy.Find(q, refs)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]models.Verse, 0, len(matches))
	for _, m := range matches {
		out = append(out, all[m.Index])
	}
	return out
}

// Payload is the drag payload for v: the verse as JSON plus a plain-text
// "<ref>: <text>" fallback.
func Payload(v models.Verse) diagram.DragData {
	raw, _ := json.Marshal(diagram.VerseDrag{ID: v.ID, Ref: v.Ref, Text: v.Text, Theme: v.Theme})
	return diagram.DragData{
		diagram.CarrierJSON: string(raw),
		diagram.CarrierText: v.Ref + ": " + v.Text,
	}
}

// Pins is the set of verses pinned in the side panel.
type Pins struct {
	mu  sync.Mutex
	ids []string
}

// Toggle pins or unpins id and reports whether it is now pinned.
func (p *Pins) Toggle(id string) (bool, error) {
	if _, err := Get(id); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if i := slices.Index(p.ids, id); i >= 0 {
		p.ids = slices.Delete(p.ids, i, i+1)
		return false, nil
	}
	p.ids = append(p.ids, id)
	return true, nil
}

// List returns the pinned verses in pin order.
func (p *Pins) List() []models.Verse {
	p.mu.Lock()
	ids := slices.Clone(p.ids)
	p.mu.Unlock()
	out := make([]models.Verse, 0, len(ids))
	for _, id := range ids {
		if v, err := Get(id); err == nil {
			out = append(out, v)
		}
	}
	return out
}
