package server

import (
	"encoding/json"
	"net/http"

	"github.com/schematiq/schematiq/pkg/cache"
	"github.com/schematiq/schematiq/pkg/engine"
	"github.com/schematiq/schematiq/pkg/geom"
	"github.com/schematiq/schematiq/pkg/observability"
)

// layoutCacheKey derives the cache key for one render input. The key
// covers the records and everything that changes the computed layout.
func (s *Server) layoutCacheKey(e *sessionEntry, in *engine.RenderInput) (string, bool) {
	data, err := json.Marshal(in.Records)
	if err != nil {
		return "", false
	}
	recordsHash := s.keyer.RecordsKey(data)
	key := s.keyer.LayoutKey(recordsHash, cache.LayoutKeyOpts{
		Algorithm:    string(in.Settings.Layout),
		Direction:    string(in.Settings.Direction),
		ExtraSpacing: float64(e.spacing),
		LinksHidden:  in.HideLinks,
	})
	return key, true
}

// restoreCachedLayout seeds the session's positions from a previously
// computed layout, so the render runs incrementally instead of paying
// for a fresh solve. Only applies when the session holds no positions
// of its own.
func (s *Server) restoreCachedLayout(r *http.Request, e *sessionEntry, in *engine.RenderInput) {
	if s.cache == nil || len(e.session.Positions()) > 0 {
		return
	}
	key, ok := s.layoutCacheKey(e, in)
	if !ok {
		return
	}
	data, hit, err := s.cache.Get(r.Context(), key)
	if err != nil {
		s.logger.Warn("layout cache get failed", "err", err)
		return
	}
	if !hit {
		observability.Cache().OnCacheMiss(r.Context(), "layout")
		return
	}
	var pos map[string]geom.Point
	if err := json.Unmarshal(data, &pos); err != nil {
		s.logger.Warn("discarding corrupt layout cache entry", "key", key)
		_ = s.cache.Delete(r.Context(), key)
		return
	}
	observability.Cache().OnCacheHit(r.Context(), "layout")
	e.session.ImportPositions(pos)
}

// storeCachedLayout saves the positions of a freshly computed layout.
func (s *Server) storeCachedLayout(r *http.Request, e *sessionEntry, in *engine.RenderInput) {
	if s.cache == nil {
		return
	}
	key, ok := s.layoutCacheKey(e, in)
	if !ok {
		return
	}
	data, err := json.Marshal(e.session.Positions())
	if err != nil {
		return
	}
	if err := s.cache.Set(r.Context(), key, data, s.cfg.Cache.TTL.Duration); err != nil {
		s.logger.Warn("layout cache set failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(r.Context(), "layout", len(data))
}
