package engine

import (
	"github.com/schematiq/schematiq/pkg/errors"
	"github.com/schematiq/schematiq/pkg/geom"
)

// Zoom bounds in percent.
const (
	MinZoom     = 10.0
	MaxZoom     = 500.0
	DefaultZoom = 100.0
)

// Camera is the view transform the renderer applies: a zoom factor in
// percent and the canvas point shown at the viewport center.
type Camera struct {
	Zoom   float64    `json:"zoom"`
	Center geom.Point `json:"center"`
}

// NewCamera returns the identity view.
func NewCamera() Camera {
	return Camera{Zoom: DefaultZoom}
}

// Scale returns the zoom as a multiplier.
func (c Camera) Scale() float64 { return c.Zoom / 100 }

// Camera returns the session's current view transform.
func (s *Session) Camera() Camera { return s.camera }

// GetZoom returns the current zoom percentage.
func (s *Session) GetZoom() float64 { return s.camera.Zoom }

// SetZoom sets the zoom percentage and repaints.
func (s *Session) SetZoom(percent float64) error {
	if percent < MinZoom || percent > MaxZoom {
		return errors.New(errors.ErrCodeInvalidZoom,
			"zoom %.0f%% out of range %.0f-%.0f", percent, MinZoom, MaxZoom)
	}
	s.camera.Zoom = percent
	if s.graph != nil {
		return s.apply()
	}
	return nil
}

// Pan shifts the view by a screen-space delta. The canvas moves with
// the pointer, so the center moves against it, scaled by zoom.
func (s *Session) Pan(dx, dy float64) error {
	scale := s.camera.Scale()
	if scale <= 0 {
		scale = 1
	}
	s.camera.Center = s.camera.Center.Add(-dx/scale, -dy/scale)
	if s.graph != nil {
		return s.apply()
	}
	return nil
}

// ResetView restores the identity camera.
func (s *Session) ResetView() error {
	s.camera = NewCamera()
	if s.graph != nil {
		return s.apply()
	}
	return nil
}

// FitToScreen centers the camera on the scene's bounding box and picks
// the largest zoom, within bounds, that shows all content with the
// given margin on every side. A session without content keeps its
// current view.
func (s *Session) FitToScreen(padding float64) {
	if s.graph == nil || s.renderer == nil {
		return
	}
	box, ok := s.layout.Metrics().SceneBox(s.graph, s.store.All())
	if !ok {
		return
	}
	s.camera.Center = box.Center

	vw, vh := s.renderer.Viewport()
	needW := box.Width + 2*padding
	needH := box.Height + 2*padding
	if vw <= 0 || vh <= 0 || needW <= 0 || needH <= 0 {
		return
	}
	zoom := min(vw/needW, vh/needH) * 100
	s.camera.Zoom = min(max(zoom, MinZoom), MaxZoom)
}
