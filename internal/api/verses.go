package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pulpitgraph/internal/models"
	"github.com/starford/pulpitgraph/internal/verses"
)

// ListVerses handles GET /api/verses?theme=&q=.
func (h *Handler) ListVerses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var out []models.Verse
	switch {
	case strings.TrimSpace(q.Get("q")) != "":
		out = verses.Search(q.Get("q"))
	case q.Get("theme") != "":
		out = verses.ByTheme(q.Get("theme"))
	default:
		out = verses.All()
	}
	if out == nil {
		out = []models.Verse{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"verses": out})
}

// VerseThemes handles GET /api/verses/themes.
func (h *Handler) VerseThemes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"themes": verses.Themes()})
}

// SuggestVerses handles GET /api/verses/suggest?q=&limit=.
func (h *Handler) SuggestVerses(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out := verses.Suggest(r.URL.Query().Get("q"), limit)
	if out == nil {
		out = []models.Verse{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"verses": out})
}

// VersePayload handles GET /api/verses/{verseID}/payload: the drag data a
// front-end attaches when a verse card is dragged.
func (h *Handler) VersePayload(w http.ResponseWriter, r *http.Request) {
	v, err := verses.Get(chi.URLParam(r, "verseID"))
	if err != nil {
		writeError(w, "verse payload", err)
		return
	}
	writeJSON(w, http.StatusOK, verses.Payload(v))
}

// ListPins handles GET /api/verses/pins.
func (h *Handler) ListPins(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"verses": h.ws.Pins().List()})
}

// TogglePin handles POST /api/verses/{verseID}/pin.
func (h *Handler) TogglePin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "verseID")
	pinned, err := h.ws.Pins().Toggle(id)
	if err != nil {
		writeError(w, "toggle pin", err)
		return
	}
	writeJSON(w, http.StatusOK, PinResponse{ID: id, Pinned: pinned})
}
