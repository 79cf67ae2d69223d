package render

import (
	"sync"

	"github.com/schematiq/schematiq/pkg/engine"
	"github.com/schematiq/schematiq/pkg/geom"
	"github.com/schematiq/schematiq/pkg/scene"
)

// Surface is an off-screen render target backed by the SVG sink. The
// server binds one per session: every Apply replaces the retained
// artifact, and Latest hands it out to HTTP clients.
type Surface struct {
	container string
	width     float64
	height    float64
	opts      []SVGOption

	mu     sync.Mutex
	latest []byte
}

// NewSurface creates a surface with the given container handle and
// viewport size.
func NewSurface(container string, width, height float64, opts ...SVGOption) *Surface {
	return &Surface{container: container, width: width, height: height, opts: opts}
}

// HasContainer reports whether the named render surface exists.
func (s *Surface) HasContainer(handle string) bool { return handle == s.container }

// Viewport returns the drawable area in canvas points.
func (s *Surface) Viewport() (width, height float64) { return s.width, s.height }

// Apply renders the scene to SVG and retains the result.
func (s *Surface) Apply(g *scene.Graph, pos map[string]geom.Point, cam engine.Camera) error {
	out := RenderSVG(g, pos, s.opts...)
	s.mu.Lock()
	s.latest = out
	s.mu.Unlock()
	return nil
}

// Latest returns the most recent artifact, or nil before the first
// Apply.
func (s *Surface) Latest() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Ensure Surface implements the engine's renderer contract.
var _ engine.Renderer = (*Surface)(nil)
