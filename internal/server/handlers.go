package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/schematiq/schematiq/pkg/engine"
	"github.com/schematiq/schematiq/pkg/errors"
	"github.com/schematiq/schematiq/pkg/geom"
	"github.com/schematiq/schematiq/pkg/layout"
	"github.com/schematiq/schematiq/pkg/layout/solver"
	"github.com/schematiq/schematiq/pkg/render"
	"github.com/schematiq/schematiq/pkg/store"
)

// The surface handle every server session renders into.
const serverContainer = "canvas"

// Default off-screen viewport for sessions that don't specify one.
const (
	defaultViewportW = 1600.0
	defaultViewportH = 1000.0
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ============================================================================
// Sessions
// ============================================================================

type createSessionRequest struct {
	ViewportWidth  float64 `json:"viewport_width,omitempty"`
	ViewportHeight float64 `json:"viewport_height,omitempty"`
}

type sessionResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
			return
		}
	}
	if req.ViewportWidth <= 0 {
		req.ViewportWidth = defaultViewportW
	}
	if req.ViewportHeight <= 0 {
		req.ViewportHeight = defaultViewportH
	}

	surface := render.NewSurface(serverContainer, req.ViewportWidth, req.ViewportHeight)
	sess := engine.NewSession(surface, engine.Options{Logger: s.logger})
	if s.cfg.Engine.ExtraSpacing > 0 {
		_ = sess.SetNodeSpacing(s.cfg.Engine.ExtraSpacing)
	}

	s.mu.Lock()
	s.sessions[sess.ID()] = &sessionEntry{
		session:  sess,
		surface:  surface,
		spacing:  s.cfg.Engine.ExtraSpacing,
		lastUsed: now(),
	}
	s.mu.Unlock()

	respondJSON(w, http.StatusCreated, sessionResponse{ID: sess.ID()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, errors.New(errors.ErrCodeSessionNotFound, "session not found"))
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	resp := map[string]any{
		"id":   e.session.ID(),
		"zoom": e.session.GetZoom(),
	}
	if g := e.session.Scene(); g != nil {
		resp["element_count"] = g.ElementCount()
		resp["edge_count"] = g.EdgeCount()
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		respondError(w, errors.New(errors.ErrCodeSessionNotFound, "session not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// Render and layout
// ============================================================================

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, errors.New(errors.ErrCodeSessionNotFound, "session not found"))
		return
	}
	var in engine.RenderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode render input"))
		return
	}
	if in.Container == "" {
		in.Container = serverContainer
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s.restoreCachedLayout(r, e, &in)

	handle, err := e.session.Render(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	if handle.Fresh {
		s.storeCachedLayout(r, e, &in)
	}
	respondJSON(w, http.StatusOK, handle)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, errors.New(errors.ErrCodeSessionNotFound, "session not found"))
		return
	}
	dir := layout.Direction(r.URL.Query().Get("direction"))
	if dir == "" {
		dir = layout.DirectionTB
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ctx := r.Context()
	var err error
	switch op := chi.URLParam(r, "operation"); op {
	case "auto":
		err = e.session.RunAutoLayout(ctx, dir)
	case "hierarchical":
		err = e.session.RunHierarchicalLayout(ctx, dir)
	case "force":
		err = e.session.RunForceDirectedLayout(ctx, solver.ForceOptions{})
	case "compact-vertical":
		err = e.session.RunCompactVerticalLayout(ctx)
	case "compact-horizontal":
		err = e.session.RunCompactHorizontalLayout(ctx)
	default:
		err = errors.New(errors.ErrCodeInvalidLayout, "unknown layout operation %q", op)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, e.session.Positions())
}

type spacingRequest struct {
	Value int `json:"value"`
}

func (s *Server) handleSpacing(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, errors.New(errors.ErrCodeSessionNotFound, "session not found"))
		return
	}
	var req spacingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.session.SetNodeSpacing(req.Value); err != nil {
		respondError(w, err)
		return
	}
	e.spacing = req.Value
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// Drag
// ============================================================================

type dragRequest struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

func (s *Server) handleDragStep(w http.ResponseWriter, r *http.Request) {
	s.handleDrag(w, r, func(e *sessionEntry, req dragRequest) error {
		return e.session.DragStep(r.Context(), req.ID, geom.Point{X: req.X, Y: req.Y})
	})
}

func (s *Server) handleDragEnd(w http.ResponseWriter, r *http.Request) {
	s.handleDrag(w, r, func(e *sessionEntry, req dragRequest) error {
		return e.session.DragEnd(r.Context(), req.ID, geom.Point{X: req.X, Y: req.Y})
	})
}

func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request, fn func(*sessionEntry, dragRequest) error) {
	e, ok := s.entry(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, errors.New(errors.ErrCodeSessionNotFound, "session not found"))
		return
	}
	var req dragRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode drag event"))
		return
	}
	if req.ID == "" {
		respondError(w, errors.New(errors.ErrCodeInvalidInput, "drag event missing element id"))
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := fn(e, req); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, e.session.Positions())
}

// ============================================================================
// State queries
// ============================================================================

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, errors.New(errors.ErrCodeSessionNotFound, "session not found"))
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	respondJSON(w, http.StatusOK, e.session.Positions())
}

func (s *Server) handleClearPositions(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, errors.New(errors.ErrCodeSessionNotFound, "session not found"))
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.ClearPositions()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, errors.New(errors.ErrCodeSessionNotFound, "session not found"))
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := e.session.VisibleNodeIDs()
	if ids == nil {
		ids = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"nodes": ids})
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, errors.New(errors.ErrCodeSessionNotFound, "session not found"))
		return
	}
	e.mu.Lock()
	data := e.surface.Latest()
	e.mu.Unlock()
	if data == nil {
		respondError(w, errors.New(errors.ErrCodeNotFound, "no rendered scene"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(data)
}

// ============================================================================
// Camera
// ============================================================================

type zoomRequest struct {
	Percent float64 `json:"percent"`
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, errors.New(errors.ErrCodeSessionNotFound, "session not found"))
		return
	}
	var req zoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.session.SetZoom(req.Percent); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, e.session.Camera())
}

type panRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

func (s *Server) handlePan(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, errors.New(errors.ErrCodeSessionNotFound, "session not found"))
		return
	}
	var req panRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.session.Pan(req.DX, req.DY); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, e.session.Camera())
}

func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, errors.New(errors.ErrCodeSessionNotFound, "session not found"))
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.FitToScreen(engine.DefaultFitPadding)
	respondJSON(w, http.StatusOK, e.session.Camera())
}

func (s *Server) handleResetView(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, errors.New(errors.ErrCodeSessionNotFound, "session not found"))
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.session.ResetView(); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, e.session.Camera())
}

// ============================================================================
// Diagrams
// ============================================================================

func (s *Server) handleSaveDiagram(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, errors.New(errors.ErrCodeUnsupported, "diagram store not configured"))
		return
	}
	var d store.Diagram
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode diagram"))
		return
	}
	if err := s.store.Save(r.Context(), &d); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

func (s *Server) handleListDiagrams(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, errors.New(errors.ErrCodeUnsupported, "diagram store not configured"))
		return
	}
	list, err := s.store.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if list == nil {
		list = []*store.Diagram{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleLoadDiagram(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, errors.New(errors.ErrCodeUnsupported, "diagram store not configured"))
		return
	}
	d, err := s.store.Load(r.Context(), chi.URLParam(r, "diagramID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteDiagram(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, errors.New(errors.ErrCodeUnsupported, "diagram store not configured"))
		return
	}
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "diagramID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
