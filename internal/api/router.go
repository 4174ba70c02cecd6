package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pulpitgraph/internal/noteservice"
	"github.com/starford/pulpitgraph/internal/workspace"
)

// Deps are the components the API serves.
type Deps struct {
	Service   *noteservice.Service
	Workspace *workspace.Workspace
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
	// Publisher receives diagram saves; nil disables them.
	Publisher Publisher
}

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(d Deps, authEnabled bool, token string) chi.Router {
	h := NewHandler(d.Service, d.Workspace, d.Publisher)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Post("/capture", h.Capture)
	r.Route("/notes/{id}", func(r chi.Router) {
		r.Get("/", h.GetNote)
		r.Put("/", h.UpdateNote)
		r.Delete("/", h.DeleteNote)
		r.Get("/preview", h.Preview)
		r.Get("/editor", h.Editor)
		r.Get("/backlinks", h.Backlinks)
		r.Get("/pulpit", h.Pulpit)

		// Sermon map.
		r.Route("/diagram", func(r chi.Router) {
			r.Get("/", h.GetDiagram)
			r.Put("/", h.ReplaceDiagram)
			r.Post("/shapes", h.AddShape)
			r.Patch("/shapes/{shapeID}", h.UpdateShape)
			r.Delete("/shapes/{shapeID}", h.DeleteShape)
			r.Post("/connections", h.Connect)
			r.Delete("/connections/{connID}", h.Disconnect)
			r.Post("/drop", h.Drop)
			r.Post("/select", h.SelectShape)
			r.Post("/style", h.RestyleSelected)
			r.Post("/save", h.SaveDiagram)
		})
	})

	// Folders.
	r.Get("/folders", h.ListFolders)
	r.Post("/folders", h.CreateFolder)
	r.Get("/folders/{id}", h.GetFolder)
	r.Patch("/folders/{id}", h.UpdateFolder)
	r.Post("/folders/{id}/move", h.MoveFolder)
	r.Delete("/folders/{id}", h.DeleteFolder)

	// Search and graph.
	r.Get("/search", h.Search)
	r.Get("/graph", h.Graph)
	r.Get("/graph/node", h.GraphNode)

	// Verses.
	r.Get("/verses", h.ListVerses)
	r.Get("/verses/themes", h.VerseThemes)
	r.Get("/verses/suggest", h.SuggestVerses)
	r.Get("/verses/pins", h.ListPins)
	r.Get("/verses/{verseID}/payload", h.VersePayload)
	r.Post("/verses/{verseID}/pin", h.TogglePin)

	// Workspace shell.
	r.Get("/workspace", h.GetWorkspace)
	r.Post("/workspace/select", h.SelectNote)
	r.Post("/workspace/view", h.Navigate)
	r.Put("/workspace/content", h.EditContent)
	r.Post("/workspace/verse", h.InsertVerse)
	r.Post("/workspace/flush", h.Flush)

	// SSE endpoint (protected by same auth middleware).
	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}
