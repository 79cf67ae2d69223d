package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/schematiq/schematiq/pkg/cache"
	"github.com/schematiq/schematiq/pkg/config"
	"github.com/schematiq/schematiq/pkg/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	return New(Options{
		Config: config.Default(),
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
		Cache:  c,
		Store:  store.NewMemoryStore(),
	})
}

// do runs one request against the handler and decodes a JSON response
// into out when it is non-nil.
func do(t *testing.T, s *Server, method, path string, body, out any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if out != nil && rr.Code < 300 {
		if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s %s response: %v\n%s", method, path, err, rr.Body.String())
		}
	}
	return rr
}

func createSession(t *testing.T, s *Server) string {
	t.Helper()
	var resp sessionResponse
	rr := do(t, s, http.MethodPost, "/api/sessions", nil, &resp)
	if rr.Code != http.StatusCreated || resp.ID == "" {
		t.Fatalf("create session: %d %s", rr.Code, rr.Body.String())
	}
	return resp.ID
}

func renderRecords(t *testing.T, s *Server, sid string) map[string]any {
	t.Helper()
	var handle map[string]any
	rr := do(t, s, http.MethodPost, "/api/sessions/"+sid+"/render", map[string]any{
		"records": []map[string]any{
			{"group": "Power", "node": "PSU", "id": "Power/PSU", "linked_id": "Control/MCU"},
			{"group": "Control", "node": "MCU", "id": "Control/MCU"},
		},
	}, &handle)
	if rr.Code != http.StatusOK {
		t.Fatalf("render: %d %s", rr.Code, rr.Body.String())
	}
	return handle
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	var resp map[string]string
	rr := do(t, s, http.MethodGet, "/healthz", nil, &resp)
	if rr.Code != http.StatusOK || resp["status"] != "ok" {
		t.Errorf("health: %d %v", rr.Code, resp)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	sid := createSession(t, s)

	var info map[string]any
	if rr := do(t, s, http.MethodGet, "/api/sessions/"+sid, nil, &info); rr.Code != http.StatusOK {
		t.Fatalf("get session: %d", rr.Code)
	}
	if info["id"] != sid || info["zoom"].(float64) != 100 {
		t.Errorf("session info = %v", info)
	}

	if rr := do(t, s, http.MethodDelete, "/api/sessions/"+sid, nil, nil); rr.Code != http.StatusNoContent {
		t.Errorf("delete: %d", rr.Code)
	}
	if rr := do(t, s, http.MethodGet, "/api/sessions/"+sid, nil, nil); rr.Code != http.StatusNotFound {
		t.Errorf("get after delete: %d", rr.Code)
	}
	if rr := do(t, s, http.MethodDelete, "/api/sessions/"+sid, nil, nil); rr.Code != http.StatusNotFound {
		t.Errorf("double delete: %d", rr.Code)
	}
}

func TestRenderAndQueries(t *testing.T) {
	s := newTestServer(t)
	sid := createSession(t, s)

	handle := renderRecords(t, s, sid)
	if handle["fresh"] != true {
		t.Errorf("handle = %v", handle)
	}
	if handle["element_count"].(float64) == 0 || handle["edge_count"].(float64) != 1 {
		t.Errorf("counts = %v", handle)
	}

	var pos map[string]map[string]float64
	do(t, s, http.MethodGet, "/api/sessions/"+sid+"/positions", nil, &pos)
	if _, ok := pos["Power/PSU"]; !ok {
		t.Errorf("positions = %v", pos)
	}

	var nodes map[string][]string
	do(t, s, http.MethodGet, "/api/sessions/"+sid+"/nodes", nil, &nodes)
	if len(nodes["nodes"]) != 2 {
		t.Errorf("nodes = %v", nodes)
	}

	rr := do(t, s, http.MethodGet, "/api/sessions/"+sid+"/svg", nil, nil)
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "image/svg+xml" {
		t.Fatalf("svg: %d %s", rr.Code, rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Body.String(), ">PSU</text>") {
		t.Error("svg should contain the scene")
	}
}

func TestSVGBeforeRender(t *testing.T) {
	s := newTestServer(t)
	sid := createSession(t, s)
	if rr := do(t, s, http.MethodGet, "/api/sessions/"+sid+"/svg", nil, nil); rr.Code != http.StatusNotFound {
		t.Errorf("svg before render: %d", rr.Code)
	}
}

func TestRenderRestoresCachedLayout(t *testing.T) {
	s := newTestServer(t)

	first := createSession(t, s)
	if handle := renderRecords(t, s, first); handle["fresh"] != true {
		t.Fatalf("first render: %v", handle)
	}
	var wantPos map[string]map[string]float64
	do(t, s, http.MethodGet, "/api/sessions/"+first+"/positions", nil, &wantPos)

	// A second session rendering identical input restores the cached
	// layout instead of solving again, so the render is incremental.
	second := createSession(t, s)
	if handle := renderRecords(t, s, second); handle["fresh"] != false {
		t.Fatalf("cached render: %v", handle)
	}
	var gotPos map[string]map[string]float64
	do(t, s, http.MethodGet, "/api/sessions/"+second+"/positions", nil, &gotPos)
	for id, want := range wantPos {
		if got := gotPos[id]; got["x"] != want["x"] || got["y"] != want["y"] {
			t.Errorf("%s = %v, want %v", id, got, want)
		}
	}
}

func TestLayoutOperations(t *testing.T) {
	s := newTestServer(t)
	sid := createSession(t, s)
	renderRecords(t, s, sid)

	var pos map[string]map[string]float64
	rr := do(t, s, http.MethodPost, "/api/sessions/"+sid+"/layout/auto", nil, &pos)
	if rr.Code != http.StatusOK || len(pos) == 0 {
		t.Errorf("auto layout: %d %v", rr.Code, pos)
	}
	for _, variant := range []string{"compact-vertical", "compact-horizontal"} {
		if rr := do(t, s, http.MethodPost, "/api/sessions/"+sid+"/layout/"+variant, nil, nil); rr.Code != http.StatusOK {
			t.Errorf("%s: %d", variant, rr.Code)
		}
	}

	if rr := do(t, s, http.MethodPost, "/api/sessions/"+sid+"/layout/spiral", nil, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("unknown operation: %d", rr.Code)
	}
	if rr := do(t, s, http.MethodPost, "/api/sessions/"+sid+"/layout/auto?direction=XX", nil, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("bad direction: %d", rr.Code)
	}
}

func TestSpacing(t *testing.T) {
	s := newTestServer(t)
	sid := createSession(t, s)

	if rr := do(t, s, http.MethodPost, "/api/sessions/"+sid+"/spacing", spacingRequest{Value: 150}, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("out of range: %d", rr.Code)
	}
	if rr := do(t, s, http.MethodPost, "/api/sessions/"+sid+"/spacing", spacingRequest{Value: 40}, nil); rr.Code != http.StatusNoContent {
		t.Errorf("valid: %d", rr.Code)
	}
}

func TestDragEndpoints(t *testing.T) {
	s := newTestServer(t)
	sid := createSession(t, s)
	renderRecords(t, s, sid)

	if rr := do(t, s, http.MethodPost, "/api/sessions/"+sid+"/drag/step", dragRequest{X: 1}, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("missing id: %d", rr.Code)
	}

	var pos map[string]map[string]float64
	rr := do(t, s, http.MethodPost, "/api/sessions/"+sid+"/drag/step",
		dragRequest{ID: "Power/PSU", X: 400, Y: 250}, &pos)
	if rr.Code != http.StatusOK {
		t.Fatalf("drag step: %d %s", rr.Code, rr.Body.String())
	}
	if p := pos["Power/PSU"]; p["x"] != 400 || p["y"] != 250 {
		t.Errorf("dragged position = %v", p)
	}

	rr = do(t, s, http.MethodPost, "/api/sessions/"+sid+"/drag/end",
		dragRequest{ID: "Power/PSU", X: 410, Y: 260}, &pos)
	if rr.Code != http.StatusOK || pos["Power/PSU"]["x"] != 410 {
		t.Errorf("drag end: %d %v", rr.Code, pos["Power/PSU"])
	}
}

func TestCameraEndpoints(t *testing.T) {
	s := newTestServer(t)
	sid := createSession(t, s)
	renderRecords(t, s, sid)

	var cam map[string]any
	rr := do(t, s, http.MethodPost, "/api/sessions/"+sid+"/camera/zoom", zoomRequest{Percent: 250}, &cam)
	if rr.Code != http.StatusOK || cam["zoom"].(float64) != 250 {
		t.Errorf("zoom: %d %v", rr.Code, cam)
	}
	if rr := do(t, s, http.MethodPost, "/api/sessions/"+sid+"/camera/zoom", zoomRequest{Percent: 5}, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("zoom bound: %d", rr.Code)
	}

	if rr := do(t, s, http.MethodPost, "/api/sessions/"+sid+"/camera/pan", panRequest{DX: 30, DY: -10}, &cam); rr.Code != http.StatusOK {
		t.Errorf("pan: %d", rr.Code)
	}
	if rr := do(t, s, http.MethodPost, "/api/sessions/"+sid+"/camera/fit", nil, &cam); rr.Code != http.StatusOK {
		t.Errorf("fit: %d", rr.Code)
	}

	do(t, s, http.MethodPost, "/api/sessions/"+sid+"/camera/reset", nil, &cam)
	if cam["zoom"].(float64) != 100 {
		t.Errorf("reset camera = %v", cam)
	}
}

func TestClearPositionsForcesFreshRender(t *testing.T) {
	s := newTestServer(t)
	sid := createSession(t, s)
	renderRecords(t, s, sid)

	if rr := do(t, s, http.MethodDelete, "/api/sessions/"+sid+"/positions", nil, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("clear: %d", rr.Code)
	}
	// The cache still holds this layout, so the next render restores it
	// incrementally rather than re-solving.
	if handle := renderRecords(t, s, sid); handle["fresh"] != false {
		t.Errorf("render after clear: %v", handle)
	}
}

func TestDiagramCRUD(t *testing.T) {
	s := newTestServer(t)

	var saved store.Diagram
	rr := do(t, s, http.MethodPost, "/api/diagrams", map[string]any{
		"id":   "d1",
		"name": "main board",
		"positions": map[string]map[string]float64{
			"A/x": {"x": 1, "y": 2},
		},
	}, &saved)
	if rr.Code != http.StatusCreated || saved.UpdatedAt.IsZero() {
		t.Fatalf("save: %d %s", rr.Code, rr.Body.String())
	}

	var list []store.Diagram
	do(t, s, http.MethodGet, "/api/diagrams", nil, &list)
	if len(list) != 1 || list[0].ID != "d1" || list[0].Positions != nil {
		t.Errorf("list = %+v", list)
	}

	var got store.Diagram
	do(t, s, http.MethodGet, "/api/diagrams/d1", nil, &got)
	if got.Name != "main board" || got.Positions["A/x"].X != 1 {
		t.Errorf("load = %+v", got)
	}

	if rr := do(t, s, http.MethodDelete, "/api/diagrams/d1", nil, nil); rr.Code != http.StatusNoContent {
		t.Errorf("delete: %d", rr.Code)
	}
	if rr := do(t, s, http.MethodGet, "/api/diagrams/d1", nil, nil); rr.Code != http.StatusNotFound {
		t.Errorf("load after delete: %d", rr.Code)
	}
}

func TestDiagramsWithoutStore(t *testing.T) {
	s := New(Options{
		Config: config.Default(),
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
	})
	if rr := do(t, s, http.MethodGet, "/api/diagrams", nil, nil); rr.Code != http.StatusNotImplemented {
		t.Errorf("diagrams without store: %d", rr.Code)
	}
}

func TestUnknownSession(t *testing.T) {
	s := newTestServer(t)
	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/api/sessions/nope"},
		{http.MethodPost, "/api/sessions/nope/layout/auto"},
		{http.MethodGet, "/api/sessions/nope/positions"},
	} {
		if rr := do(t, s, req.method, req.path, nil, nil); rr.Code != http.StatusNotFound {
			t.Errorf("%s %s: %d", req.method, req.path, rr.Code)
		}
	}
}

func TestEvictIdle(t *testing.T) {
	cfg := config.Default()
	cfg.Server.SessionTTL = config.Duration{} // zero disables eviction
	s := New(Options{Config: cfg, Logger: log.NewWithOptions(io.Discard, log.Options{})})
	sid := createSession(t, s)
	if n := s.EvictIdle(); n != 0 {
		t.Errorf("evicted %d with eviction disabled", n)
	}

	// A 1ns TTL makes every session immediately stale.
	s.cfg.Server.SessionTTL = config.Duration{Duration: 1}
	if n := s.EvictIdle(); n != 1 {
		t.Errorf("evicted %d, want 1", n)
	}
	if rr := do(t, s, http.MethodGet, "/api/sessions/"+sid, nil, nil); rr.Code != http.StatusNotFound {
		t.Errorf("session survived eviction: %d", rr.Code)
	}
}

func TestRenderHidesLinkLabels(t *testing.T) {
	s := newTestServer(t)
	sid := createSession(t, s)

	rr := do(t, s, http.MethodPost, "/api/sessions/"+sid+"/render", map[string]any{
		"records": []map[string]any{
			{"group": "Power", "node": "PSU", "id": "Power/PSU", "linked_id": "Control/MCU", "link_label": "5V"},
			{"group": "Control", "node": "MCU", "id": "Control/MCU"},
		},
		"hide_link_labels": true,
	}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("render: %d %s", rr.Code, rr.Body.String())
	}

	svg := do(t, s, http.MethodGet, "/api/sessions/"+sid+"/svg", nil, nil)
	if svg.Code != http.StatusOK {
		t.Fatalf("svg: %d", svg.Code)
	}
	out := svg.Body.String()
	if strings.Contains(out, ">5V</text>") {
		t.Error("link label should be suppressed")
	}
	if !strings.Contains(out, "<path") {
		t.Error("edge should still draw")
	}
}

func TestListenAndServeStopsOnContextCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:0"
	s := New(Options{
		Config: cfg,
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.ListenAndServe(ctx); err != nil {
		t.Errorf("canceled context should shut down cleanly, got %v", err)
	}
}
