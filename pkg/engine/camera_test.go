package engine

import (
	"testing"

	"github.com/schematiq/schematiq/pkg/errors"
	"github.com/schematiq/schematiq/pkg/scene"
)

func TestSetZoomBounds(t *testing.T) {
	s, _ := newTestSession(Options{})
	for _, bad := range []float64{0, 9.9, 501} {
		if err := s.SetZoom(bad); !errors.Is(err, errors.ErrCodeInvalidZoom) {
			t.Errorf("zoom %v: %v", bad, err)
		}
	}
	if err := s.SetZoom(250); err != nil {
		t.Fatalf("SetZoom: %v", err)
	}
	if s.GetZoom() != 250 {
		t.Errorf("zoom = %v", s.GetZoom())
	}
}

func TestSetZoomRepaints(t *testing.T) {
	s, r := newTestSession(Options{})
	render(t, s, []scene.Record{rec("A", "x")})
	applies := r.applies

	if err := s.SetZoom(50); err != nil {
		t.Fatalf("SetZoom: %v", err)
	}
	if r.applies != applies+1 {
		t.Errorf("applies = %d, want %d", r.applies, applies+1)
	}
	if r.lastCam.Zoom != 50 {
		t.Errorf("painted zoom = %v", r.lastCam.Zoom)
	}
}

func TestPanMovesCenterAgainstPointer(t *testing.T) {
	s, _ := newTestSession(Options{})

	// At 100% a 30px drag right shows content 30 points further left.
	if err := s.Pan(30, -10); err != nil {
		t.Fatalf("Pan: %v", err)
	}
	c := s.Camera().Center
	if !almostEqual(c.X, -30) || !almostEqual(c.Y, 10) {
		t.Errorf("center = %+v, want (-30, 10)", c)
	}

	// Zoomed in, the same screen delta covers fewer canvas points.
	if err := s.SetZoom(200); err != nil {
		t.Fatalf("SetZoom: %v", err)
	}
	if err := s.Pan(30, -10); err != nil {
		t.Fatalf("Pan: %v", err)
	}
	c = s.Camera().Center
	if !almostEqual(c.X, -45) || !almostEqual(c.Y, 15) {
		t.Errorf("center = %+v, want (-45, 15)", c)
	}
}

func TestResetView(t *testing.T) {
	s, _ := newTestSession(Options{})
	_ = s.SetZoom(300)
	_ = s.Pan(100, 100)

	if err := s.ResetView(); err != nil {
		t.Fatalf("ResetView: %v", err)
	}
	cam := s.Camera()
	if cam.Zoom != DefaultZoom || cam.Center.X != 0 || cam.Center.Y != 0 {
		t.Errorf("camera = %+v", cam)
	}
}

func TestFitToScreenWithoutContent(t *testing.T) {
	s, _ := newTestSession(Options{})
	before := s.Camera()
	s.FitToScreen(DefaultFitPadding)
	if s.Camera() != before {
		t.Errorf("camera changed with no scene: %+v", s.Camera())
	}
}
