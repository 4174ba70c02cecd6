package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/pulpitgraph/internal/diagram"
	"github.com/starford/pulpitgraph/internal/library"
	"github.com/starford/pulpitgraph/internal/models"
	"github.com/starford/pulpitgraph/internal/noteservice"
	"github.com/starford/pulpitgraph/internal/storage"
	"github.com/starford/pulpitgraph/internal/testutil"
	"github.com/starford/pulpitgraph/internal/verses"
	"github.com/starford/pulpitgraph/internal/workspace"
)

type recordingPublisher struct{ events []string }

func (p *recordingPublisher) PublishChange(entity, kind, id string) {
	p.events = append(p.events, entity+"."+kind+":"+id)
}

type env struct {
	svc    *noteservice.Service
	ws     *workspace.Workspace
	repo   *diagram.Repository
	pub    *recordingPublisher
	router http.Handler
}

// testEnv wires an in-memory library, a temp index and a workspace behind
// the router. An empty authToken means auth is disabled.
func testEnv(t *testing.T, authToken string) env {
	t.Helper()
	return testEnvWithEvents(t, authToken, nil)
}

func testEnvWithEvents(t *testing.T, authToken string, events http.Handler) env {
	t.Helper()
	st := storage.NewMemory()
	repo := diagram.NewRepository(st, testutil.Logger())
	lib, err := library.New(st, testutil.Logger(), library.WithDiagrams(repo))
	if err != nil {
		t.Fatal(err)
	}
	svc, err := noteservice.NewService(lib, testutil.TestDB(t), testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}
	ws := workspace.New(lib, repo, testutil.Logger(), workspace.Options{ContentDelay: time.Hour, DiagramDelay: time.Hour})
	t.Cleanup(ws.Close)

	pub := &recordingPublisher{}
	router := NewRouter(Deps{Service: svc, Workspace: ws, Events: events, Publisher: pub}, authToken != "", authToken)
	return env{svc: svc, ws: ws, repo: repo, pub: pub, router: router}
}

func (e env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func (e env) createNote(t *testing.T, title, content, folder string) NoteDetail {
	t.Helper()
	w := e.do(t, http.MethodPost, "/notes", CreateNoteRequest{Title: title, Content: content, FolderID: folder})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	return decode[NoteDetail](t, w)
}

func TestCreateAndGetNote(t *testing.T) {
	e := testEnv(t, "")
	created := e.createNote(t, "Hello", "# Hello\nWorld", "")

	w := e.do(t, http.MethodGet, "/notes/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("missing ETag header")
	}
	note := decode[NoteDetail](t, w)
	if note.Title != "Hello" || note.Path != "Hello" {
		t.Errorf("note = %+v", note)
	}
}

func TestCreateNote_UnknownFolder(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodPost, "/notes", CreateNoteRequest{Title: "x", FolderID: "nope"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	e := testEnv(t, "")
	created := e.createNote(t, "Lock", "v1", "")

	body, _ := json.Marshal(map[string]string{"content": "v2"})
	req := httptest.NewRequest(http.MethodPut, "/notes/"+created.ID, bytes.NewReader(body))
	req.Header.Set("If-Match", created.Checksum)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update with correct checksum = %d, body = %s", w.Code, w.Body.String())
	}

	// Stale checksum → 409.
	req = httptest.NewRequest(http.MethodPut, "/notes/"+created.ID, bytes.NewReader(body))
	req.Header.Set("If-Match", created.Checksum)
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("stale update = %d, want 409", w.Code)
	}
}

func TestUpdateWithoutIfMatch(t *testing.T) {
	e := testEnv(t, "")
	created := e.createNote(t, "Free", "v1", "")
	w := e.do(t, http.MethodPut, "/notes/"+created.ID, map[string]string{"title": "Renamed"})
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d", w.Code)
	}
	if got := decode[NoteDetail](t, w); got.Title != "Renamed" || got.Content != "v1" {
		t.Errorf("updated = %+v", got)
	}

	w = e.do(t, http.MethodPut, "/notes/"+created.ID, map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty update = %d, want 400", w.Code)
	}
}

func TestUpdateNote_NotFound(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodPut, "/notes/missing", map[string]string{"content": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeleteNote_NeedsConfirmation(t *testing.T) {
	e := testEnv(t, "")
	created := e.createNote(t, "Doomed", "", "")

	w := e.do(t, http.MethodDelete, "/notes/"+created.ID, nil)
	if w.Code != http.StatusPreconditionRequired {
		t.Fatalf("unconfirmed delete = %d, want 428", w.Code)
	}
	w = e.do(t, http.MethodDelete, "/notes/"+created.ID+"?confirm=true", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("confirmed delete = %d", w.Code)
	}
	w = e.do(t, http.MethodGet, "/notes/"+created.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestListNotes(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodPost, "/folders", CreateFolderRequest{Name: "Sermons"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create folder = %d", w.Code)
	}
	folder := decode[models.Folder](t, w)
	e.createNote(t, "A", "#grace", folder.ID)
	e.createNote(t, "B", "", "")

	w = e.do(t, http.MethodGet, "/notes", nil)
	if got := decode[NoteListResponse](t, w); got.Total != 2 {
		t.Errorf("total = %d, want 2", got.Total)
	}
	w = e.do(t, http.MethodGet, "/notes?folder="+folder.ID, nil)
	got := decode[NoteListResponse](t, w)
	if got.Total != 1 || got.Notes[0].Path != "Sermons/A" {
		t.Errorf("folder listing = %+v", got)
	}
	w = e.do(t, http.MethodGet, "/notes?tag=grace", nil)
	if got := decode[NoteListResponse](t, w); got.Total != 1 {
		t.Errorf("tag listing total = %d", got.Total)
	}
}

func TestCapture(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodPost, "/capture", CaptureRequest{Title: "  ", Content: "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank title = %d, want 400", w.Code)
	}
	w = e.do(t, http.MethodPost, "/capture", CaptureRequest{Title: "Idea", FolderID: "none"})
	if w.Code != http.StatusCreated {
		t.Fatalf("capture = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[NoteDetail](t, w); got.Content != "# Idea\n\n" || got.FolderID != nil {
		t.Errorf("captured = %+v", got)
	}
}

func TestFolderLifecycle(t *testing.T) {
	e := testEnv(t, "")
	parent := decode[models.Folder](t, e.do(t, http.MethodPost, "/folders", CreateFolderRequest{Name: "Sermons"}))
	child := decode[models.Folder](t, e.do(t, http.MethodPost, "/folders", CreateFolderRequest{Name: "Advent", ParentID: parent.ID}))
	note := e.createNote(t, "Hope", "", child.ID)

	name := "Christmas"
	w := e.do(t, http.MethodPatch, "/folders/"+child.ID, UpdateFolderRequest{Name: &name})
	if w.Code != http.StatusOK || decode[models.Folder](t, w).Name != "Christmas" {
		t.Fatalf("rename = %d %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/folders/"+parent.ID+"/move", MoveFolderRequest{ParentID: child.ID})
	if w.Code != http.StatusConflict {
		t.Errorf("cycle move = %d, want 409", w.Code)
	}

	w = e.do(t, http.MethodDelete, "/folders/"+parent.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete folder = %d", w.Code)
	}
	w = e.do(t, http.MethodGet, "/notes/"+note.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("note in deleted subtree = %d, want 404", w.Code)
	}
	w = e.do(t, http.MethodGet, "/folders", nil)
	if got := decode[map[string][]models.Folder](t, w); len(got["folders"]) != 0 {
		t.Errorf("folders left = %+v", got)
	}
}

func TestDiagramEditing(t *testing.T) {
	e := testEnv(t, "")
	note := e.createNote(t, "Mapped", "", "")
	base := "/notes/" + note.ID + "/diagram"

	w := e.do(t, http.MethodGet, base, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get diagram = %d", w.Code)
	}
	d := decode[DiagramResponse](t, w)
	if len(d.Shapes) != 1 || d.Shapes[0].ID != diagram.StartShapeID {
		t.Fatalf("default diagram = %+v", d)
	}

	w = e.do(t, http.MethodPost, base+"/shapes", AddShapeRequest{Type: "decision", Position: diagram.Point{X: 10, Y: 20}})
	if w.Code != http.StatusCreated {
		t.Fatalf("add shape = %d %s", w.Code, w.Body.String())
	}
	shape := decode[diagram.Shape](t, w)
	if shape.Data.Label != "Question?" {
		t.Errorf("label = %q", shape.Data.Label)
	}

	w = e.do(t, http.MethodPost, base+"/shapes", AddShapeRequest{Type: "hexagon"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown kind = %d, want 400", w.Code)
	}

	label := "Why grace?"
	w = e.do(t, http.MethodPatch, base+"/shapes/"+shape.ID, UpdateShapeRequest{
		Position: &diagram.Point{X: 5, Y: 6},
		Data:     &ShapeContentPatch{Label: &label},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("patch shape = %d %s", w.Code, w.Body.String())
	}
	if got := decode[diagram.Shape](t, w); got.Data.Label != label || got.Position.X != 5 {
		t.Errorf("patched = %+v", got)
	}

	ref := "John 1:1"
	w = e.do(t, http.MethodPatch, base+"/shapes/"+shape.ID, UpdateShapeRequest{Data: &ShapeContentPatch{Ref: &ref}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("ref on decision = %d, want 400", w.Code)
	}

	w = e.do(t, http.MethodPost, base+"/connections", ConnectRequest{Source: diagram.StartShapeID, Target: shape.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("connect = %d", w.Code)
	}
	w = e.do(t, http.MethodPost, base+"/connections", ConnectRequest{Source: diagram.StartShapeID, Target: shape.ID})
	if w.Code != http.StatusOK || decode[ConnectResponse](t, w).Created {
		t.Errorf("duplicate connect = %d %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodDelete, base+"/shapes/"+shape.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete shape = %d", w.Code)
	}

	w = e.do(t, http.MethodPost, base+"/save", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("save = %d", w.Code)
	}
	saved := e.repo.Load(note.ID)
	if len(saved.Shapes) != 1 || len(saved.Connections) != 0 {
		t.Errorf("persisted = %+v", saved)
	}
	if len(e.pub.events) != 1 || e.pub.events[0] != "diagram.saved:"+note.ID {
		t.Errorf("events = %v", e.pub.events)
	}
}

func TestReplaceDiagram(t *testing.T) {
	e := testEnv(t, "")
	note := e.createNote(t, "Whole", "", "")
	base := "/notes/" + note.ID + "/diagram"

	g := diagram.Graph{
		Shapes: []diagram.Shape{
			{ID: diagram.StartShapeID, Kind: diagram.KindStart},
			{ID: "b", Kind: diagram.KindProcess},
		},
		Connections: []diagram.Connection{
			{ID: "self", Source: diagram.StartShapeID, Target: diagram.StartShapeID},
			{ID: "e1", Source: diagram.StartShapeID, Target: "b"},
			{ID: "e2", Source: diagram.StartShapeID, Target: "b"},
		},
	}
	w := e.do(t, http.MethodPut, base, g)
	if w.Code != http.StatusOK {
		t.Fatalf("replace = %d %s", w.Code, w.Body.String())
	}
	if d := decode[DiagramResponse](t, w); len(d.Connections) != 1 || d.Connections[0].ID != "e1" {
		t.Errorf("connections = %+v", d.Connections)
	}

	g.Shapes[1].Kind = "bogus"
	w = e.do(t, http.MethodPut, base, g)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown kind = %d, want 400", w.Code)
	}
	w = e.do(t, http.MethodPut, base, map[string]any{
		"shapes": []map[string]any{{"id": "b", "type": "process", "style": map[string]any{"fontSize": 0}}},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("zero font size = %d, want 400", w.Code)
	}
}

func TestUpdateShape_RejectedEditChangesNothing(t *testing.T) {
	e := testEnv(t, "")
	note := e.createNote(t, "Atomic", "", "")
	base := "/notes/" + note.ID + "/diagram"

	shape := decode[diagram.Shape](t, e.do(t, http.MethodPost, base+"/shapes", AddShapeRequest{Type: "process", Position: diagram.Point{X: 10, Y: 20}}))
	ref, label := "Rom 8:28", "moved"
	w := e.do(t, http.MethodPatch, base+"/shapes/"+shape.ID, UpdateShapeRequest{
		Position: &diagram.Point{X: 99, Y: 99},
		Data:     &ShapeContentPatch{Label: &label, Ref: &ref},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("ref on process = %d, want 400", w.Code)
	}

	d := decode[DiagramResponse](t, e.do(t, http.MethodGet, base, nil))
	for _, s := range d.Shapes {
		if s.ID == shape.ID && (s.Position != (diagram.Point{X: 10, Y: 20}) || s.Data.Label != "New Point") {
			t.Errorf("shape changed by a rejected edit: %+v", s)
		}
	}
}

func TestDiagramDrop(t *testing.T) {
	e := testEnv(t, "")
	note := e.createNote(t, "Dropped", "", "")
	base := "/notes/" + note.ID + "/diagram"

	v, err := verses.Get("v14")
	if err != nil {
		t.Fatal(err)
	}
	w := e.do(t, http.MethodPost, base+"/drop", DropRequest{
		Data:     verses.Payload(v),
		Position: diagram.Point{X: 120, Y: 80},
		Viewport: diagram.Viewport{OffsetX: 20, OffsetY: 0, Zoom: 2},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("drop = %d %s", w.Code, w.Body.String())
	}
	shape := decode[diagram.Shape](t, w)
	if shape.Kind != diagram.KindVerse || shape.Data.Ref != "John 3:16" {
		t.Errorf("dropped = %+v", shape)
	}
	if shape.Position != (diagram.Point{X: 50, Y: 40}) {
		t.Errorf("position = %+v, want projected {50 40}", shape.Position)
	}

	w = e.do(t, http.MethodPost, base+"/drop", DropRequest{Data: diagram.DragData{"text/plain": "hello"}})
	if w.Code != http.StatusNoContent {
		t.Errorf("empty payload drop = %d, want 204", w.Code)
	}
}

func TestDiagramSelectionAndStyle(t *testing.T) {
	e := testEnv(t, "")
	note := e.createNote(t, "Styled", "", "")
	base := "/notes/" + note.ID + "/diagram"

	w := e.do(t, http.MethodPost, base+"/select", SelectShapeRequest{ShapeID: diagram.StartShapeID})
	if w.Code != http.StatusOK || decode[DiagramResponse](t, w).Selected != diagram.StartShapeID {
		t.Fatalf("select = %d %s", w.Code, w.Body.String())
	}
	w = e.do(t, http.MethodPost, base+"/style", map[string]any{"cardColor": "#ffeeaa"})
	if w.Code != http.StatusOK {
		t.Fatalf("restyle = %d %s", w.Code, w.Body.String())
	}
	d := decode[DiagramResponse](t, w)
	if c := d.Shapes[0].Style.CardColor; c == nil || *c != "#ffeeaa" {
		t.Errorf("style = %+v", d.Shapes[0].Style)
	}
	if !d.Dirty {
		t.Error("diagram should be dirty after restyle")
	}

	w = e.do(t, http.MethodPost, base+"/select", SelectShapeRequest{ShapeID: "ghost"})
	if w.Code != http.StatusNotFound {
		t.Errorf("select ghost = %d, want 404", w.Code)
	}
}

func TestDiagram_UnknownNote(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodGet, "/notes/missing/diagram", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestPreviewAndPulpit(t *testing.T) {
	e := testEnv(t, "")
	note := e.createNote(t, "Grace", "# Intro\nWelcome\n# Point One\nSee [[Hope]]", "")

	w := e.do(t, http.MethodGet, "/notes/"+note.ID+"/preview", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("preview = %d", w.Code)
	}
	if html := decode[PreviewResponse](t, w).HTML; !strings.Contains(html, `data-link="Hope"`) {
		t.Errorf("preview html = %q", html)
	}

	w = e.do(t, http.MethodGet, "/notes/"+note.ID+"/pulpit?section=1&font=99", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("pulpit = %d", w.Code)
	}
	p := decode[PulpitResponse](t, w)
	if p.Total != 2 || p.Index != 1 || p.Position != "2 / 2" || p.FontSize != 48 {
		t.Errorf("pulpit = %+v", p)
	}
	if !strings.HasPrefix(p.Markdown, "# Point One") {
		t.Errorf("section = %q", p.Markdown)
	}
}

func TestSearchEndpoint(t *testing.T) {
	e := testEnv(t, "")
	e.createNote(t, "Mercy", "New every morning", "")

	w := e.do(t, http.MethodGet, "/search?q=morning", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}
	if got := decode[SearchResponse](t, w); len(got.Results) != 1 || got.Results[0].Title != "Mercy" {
		t.Errorf("results = %+v", got)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodGet, "/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGraphEndpoint(t *testing.T) {
	e := testEnv(t, "")
	a := e.createNote(t, "A", "links to [[B]]", "")
	b := e.createNote(t, "B", "", "")

	w := e.do(t, http.MethodGet, "/graph", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("graph = %d", w.Code)
	}
	var g struct {
		Nodes []struct{ ID string } `json:"nodes"`
		Edges []struct {
			Source string `json:"source"`
			Target string `json:"target"`
		} `json:"edges"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &g); err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 2 || len(g.Edges) != 1 {
		t.Fatalf("graph = %+v", g)
	}
	if g.Edges[0].Source != a.ID || g.Edges[0].Target != b.ID {
		t.Errorf("edge = %+v", g.Edges[0])
	}

	w = e.do(t, http.MethodGet, "/notes/"+b.ID+"/backlinks", nil)
	if got := decode[NoteListResponse](t, w); got.Total != 1 || got.Notes[0].ID != a.ID {
		t.Errorf("backlinks = %+v", got)
	}
}

func TestGraphNodeSelectsNote(t *testing.T) {
	e := testEnv(t, "")
	a := e.createNote(t, "A", "links to [[B]]", "")
	e.createNote(t, "B", "", "")

	g := decode[struct {
		Nodes []struct {
			ID string  `json:"id"`
			X  float64 `json:"x"`
			Y  float64 `json:"y"`
		} `json:"nodes"`
	}](t, e.do(t, http.MethodGet, "/graph", nil))
	var x, y float64
	for _, n := range g.Nodes {
		if n.ID == a.ID {
			x, y = n.X, n.Y
		}
	}

	w := e.do(t, http.MethodGet, fmt.Sprintf("/graph/node?x=%g&y=%g&radius=1", x, y), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("graph node = %d %s", w.Code, w.Body.String())
	}
	got := decode[GraphNodeResponse](t, w)
	if got.Node.ID != a.ID || got.State.SelectedID != a.ID || got.State.View != workspace.ViewEditor {
		t.Errorf("graph node = %+v", got)
	}

	w = e.do(t, http.MethodGet, "/graph/node?x=100000&y=100000", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("empty point = %d, want 404", w.Code)
	}
	w = e.do(t, http.MethodGet, "/graph/node?x=abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad coordinates = %d, want 400", w.Code)
	}
}

func TestEditorHTML(t *testing.T) {
	e := testEnv(t, "")
	note := e.createNote(t, "Bold", "**strong** and *soft* [[Hope]]", "")

	w := e.do(t, http.MethodGet, "/notes/"+note.ID+"/editor", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("editor = %d", w.Code)
	}
	html := decode[PreviewResponse](t, w).HTML
	if !strings.Contains(html, "<b>strong</b>") || !strings.Contains(html, "<i>soft</i>") {
		t.Errorf("editor html = %q", html)
	}

	e.do(t, http.MethodPost, "/workspace/select", SelectNoteRequest{NoteID: note.ID})
	draft := "*draft*"
	e.do(t, http.MethodPut, "/workspace/content", ContentRequest{Content: &draft})
	w = e.do(t, http.MethodGet, "/notes/"+note.ID+"/editor", nil)
	if html := decode[PreviewResponse](t, w).HTML; !strings.Contains(html, "<i>draft</i>") {
		t.Errorf("editor ignored the pending draft: %q", html)
	}

	if w := e.do(t, http.MethodGet, "/notes/missing/editor", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing note = %d, want 404", w.Code)
	}
}

func TestGetFolder(t *testing.T) {
	e := testEnv(t, "")
	parent := decode[models.Folder](t, e.do(t, http.MethodPost, "/folders", CreateFolderRequest{Name: "Sermons"}))
	child := decode[models.Folder](t, e.do(t, http.MethodPost, "/folders", CreateFolderRequest{Name: "Advent", ParentID: parent.ID}))
	e.createNote(t, "Hope", "", child.ID)

	w := e.do(t, http.MethodGet, "/folders/"+child.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get folder = %d", w.Code)
	}
	got := decode[FolderDetail](t, w)
	if got.Root || len(got.Notes) != 1 || got.Notes[0].Title != "Hope" {
		t.Errorf("child = %+v", got)
	}
	if want := []string{"Sermons", "Advent"}; strings.Join(got.Path, "/") != strings.Join(want, "/") {
		t.Errorf("path = %v, want %v", got.Path, want)
	}

	if got := decode[FolderDetail](t, e.do(t, http.MethodGet, "/folders/"+parent.ID, nil)); !got.Root {
		t.Errorf("parent not reported as root: %+v", got)
	}
	if w := e.do(t, http.MethodGet, "/folders/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing folder = %d, want 404", w.Code)
	}
}

func TestVerseEndpoints(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodGet, "/verses/themes", nil)
	if got := decode[map[string][]string](t, w); len(got["themes"]) != 5 {
		t.Errorf("themes = %v", got)
	}
	w = e.do(t, http.MethodGet, "/verses?q=shepherd", nil)
	if got := decode[map[string][]models.Verse](t, w); len(got["verses"]) != 1 {
		t.Errorf("search = %v", got)
	}
	w = e.do(t, http.MethodGet, "/verses?theme=Faith%20%26%20Trust", nil)
	if got := decode[map[string][]models.Verse](t, w); len(got["verses"]) != 5 {
		t.Errorf("theme = %d verses", len(got["verses"]))
	}
	w = e.do(t, http.MethodGet, "/verses/suggest?q=jn316&limit=1", nil)
	if got := decode[map[string][]models.Verse](t, w); len(got["verses"]) != 1 || got["verses"][0].ID != "v14" {
		t.Errorf("suggest = %v", got)
	}

	w = e.do(t, http.MethodPost, "/verses/v3/pin", nil)
	if got := decode[PinResponse](t, w); !got.Pinned {
		t.Errorf("pin = %+v", got)
	}
	w = e.do(t, http.MethodGet, "/verses/pins", nil)
	if got := decode[map[string][]models.Verse](t, w); len(got["verses"]) != 1 || got["verses"][0].ID != "v3" {
		t.Errorf("pins = %v", got)
	}
	w = e.do(t, http.MethodPost, "/verses/v999/pin", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("pin unknown = %d, want 404", w.Code)
	}

	w = e.do(t, http.MethodGet, "/verses/v1/payload", nil)
	if got := decode[map[string]string](t, w); !strings.HasPrefix(got[diagram.CarrierText], "Psalm 23:1-3: ") {
		t.Errorf("payload = %v", got)
	}
}

func TestWorkspaceFlow(t *testing.T) {
	e := testEnv(t, "")
	note := e.createNote(t, "Draft", "old", "")

	w := e.do(t, http.MethodPost, "/workspace/view", ViewRequest{View: "pulpit"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("pulpit without selection = %d, want 400", w.Code)
	}
	w = e.do(t, http.MethodPost, "/workspace/view", ViewRequest{View: "attic"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown view = %d, want 400", w.Code)
	}

	w = e.do(t, http.MethodPost, "/workspace/select", SelectNoteRequest{NoteID: note.ID})
	if st := decode[workspace.State](t, w); st.View != workspace.ViewEditor || st.SelectedID != note.ID {
		t.Fatalf("select state = %+v", st)
	}

	content := "new body"
	w = e.do(t, http.MethodPut, "/workspace/content", ContentRequest{Content: &content})
	if w.Code != http.StatusOK {
		t.Fatalf("edit = %d %s", w.Code, w.Body.String())
	}
	stored, _ := e.svc.Library().GetNote(context.Background(), note.ID)
	if stored.Content != "old" {
		t.Errorf("content saved before the debounce elapsed: %q", stored.Content)
	}

	w = e.do(t, http.MethodPost, "/workspace/view", ViewRequest{View: "sermonMap"})
	if w.Code != http.StatusOK {
		t.Fatalf("navigate = %d", w.Code)
	}
	stored, _ = e.svc.Library().GetNote(context.Background(), note.ID)
	if stored.Content != "new body" {
		t.Errorf("navigation did not flush, content = %q", stored.Content)
	}

	html := "<h1>Title</h1><p>Hello <b>bold</b></p>"
	w = e.do(t, http.MethodPut, "/workspace/content", ContentRequest{HTML: &html})
	if got := decode[models.Note](t, w); got.Content != "# Title\n\nHello **bold**" {
		t.Errorf("html content = %q", got.Content)
	}

	w = e.do(t, http.MethodPost, "/workspace/verse", InsertVerseRequest{VerseID: "v8"})
	if got := decode[models.Note](t, w); !strings.Contains(got.Content, "> **Hebrews 11:1**") {
		t.Errorf("verse not inserted: %q", got.Content)
	}

	w = e.do(t, http.MethodPost, "/workspace/flush", nil)
	if st := decode[workspace.State](t, w); st.ContentDirty {
		t.Errorf("dirty after flush: %+v", st)
	}
}

func TestWorkspaceContent_TitleWithHTML(t *testing.T) {
	e := testEnv(t, "")
	note := e.createNote(t, "Draft", "old", "")
	e.do(t, http.MethodPost, "/workspace/select", SelectNoteRequest{NoteID: note.ID})

	title, html := "Renamed", "<p>fresh</p>"
	w := e.do(t, http.MethodPut, "/workspace/content", ContentRequest{Title: &title, HTML: &html})
	if w.Code != http.StatusOK {
		t.Fatalf("edit = %d %s", w.Code, w.Body.String())
	}
	if got := decode[models.Note](t, w); got.Title != title || got.Content != "fresh" {
		t.Errorf("note = %q / %q", got.Title, got.Content)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := testEnv(t, "secret123")
	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	e := testEnv(t, "secret123")
	w := e.do(t, http.MethodGet, "/notes", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	e := testEnv(t, "secret123")
	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

// blockingEvents writes SSE headers and blocks until the request ends.
var blockingEvents = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	e := testEnvWithEvents(t, "secret", blockingEvents)
	w := e.do(t, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	e := testEnvWithEvents(t, "tok", blockingEvents)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

func TestAuthMiddleware_Variants(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		header string
		want   int
	}{
		{"lowercase scheme", http.MethodGet, "/notes", "bearer secret123", http.StatusOK},
		{"basic scheme", http.MethodGet, "/notes", "Basic secret123", http.StatusUnauthorized},
		{"empty bearer", http.MethodGet, "/notes", "Bearer ", http.StatusUnauthorized},
		{"query token on GET", http.MethodGet, "/notes?access_token=secret123", "", http.StatusOK},
		{"query token on POST", http.MethodPost, "/capture?access_token=secret123", "", http.StatusUnauthorized},
		{"wrong query token", http.MethodGet, "/notes?access_token=nope", "", http.StatusUnauthorized},
	}
	e := testEnv(t, "secret123")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			e.router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if w.Code == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") == "" {
				t.Error("401 should carry WWW-Authenticate")
			}
		})
	}
}

func TestSSEEvents_QueryToken(t *testing.T) {
	e := testEnvWithEvents(t, "tok", blockingEvents)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events?access_token=tok", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with query token = %d, want 200", w.Code)
	}
}
