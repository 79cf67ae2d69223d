package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/schematiq/schematiq/pkg/cache"
	"github.com/schematiq/schematiq/pkg/config"
	"github.com/schematiq/schematiq/pkg/engine"
	"github.com/schematiq/schematiq/pkg/geom"
	"github.com/schematiq/schematiq/pkg/layout"
	"github.com/schematiq/schematiq/pkg/render"
	"github.com/schematiq/schematiq/pkg/scene"
)

const (
	defaultWidth  = 1600 // default viewport width in canvas points
	defaultHeight = 1000 // default viewport height
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output       string  // output SVG path
	layoutKind   string  // layout for the fresh render
	direction    string  // TB or LR
	curve        string  // edge curve style
	spacing      int     // extra spacing 0-100
	width        float64 // viewport width
	height       float64 // viewport height
	hideLinks      bool
	hideLinkLabels bool
	hideUnlinked   bool
	hideLinked     bool
	hideGroups     string
	noCache        bool // bypass the layout cache
}

// newRenderCmd creates the render command for generating SVG diagrams.
// Computed layouts are cached in the user cache directory, so re-rendering
// the same records with the same settings skips the layout entirely.
func newRenderCmd() *cobra.Command {
	opts := renderOpts{
		layoutKind: string(engine.LayoutCompactTB),
		direction:  string(layout.DirectionTB),
		curve:      string(engine.CurveLinear),
		width:      defaultWidth,
		height:     defaultHeight,
	}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a record table as an SVG diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRenderCmd(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "diagram.svg", "output SVG file")
	cmd.Flags().StringVarP(&opts.layoutKind, "layout", "l", opts.layoutKind,
		"layout: compact-TB, compact-LR, hierarchical-TB, hierarchical-LR, force-directed")
	cmd.Flags().StringVarP(&opts.direction, "direction", "d", opts.direction, "layout direction: TB or LR")
	cmd.Flags().StringVar(&opts.curve, "curve", opts.curve, "edge style: linear, basis, step")
	cmd.Flags().IntVar(&opts.spacing, "spacing", 0, "extra node spacing, 0-100")
	cmd.Flags().Float64Var(&opts.width, "width", opts.width, "viewport width")
	cmd.Flags().Float64Var(&opts.height, "height", opts.height, "viewport height")
	cmd.Flags().BoolVar(&opts.hideLinks, "hide-links", false, "drop links from the scene")
	cmd.Flags().BoolVar(&opts.hideLinkLabels, "hide-link-labels", false, "keep links but drop their labels")
	cmd.Flags().BoolVar(&opts.hideUnlinked, "hide-unlinked", false, "hide nodes without links")
	cmd.Flags().BoolVar(&opts.hideLinked, "hide-linked", false, "hide nodes with links")
	cmd.Flags().StringVar(&opts.hideGroups, "hide-groups", "", "comma-separated group names to hide")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the layout cache")

	return cmd
}

func runRenderCmd(ctx context.Context, path string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	records, err := scene.ReadRecordsFile(path)
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}

	surface := render.NewSurface("canvas", opts.width, opts.height,
		render.WithCurve(opts.curve))
	sess := engine.NewSession(surface, engine.Options{Logger: logger})
	if err := sess.SetNodeSpacing(opts.spacing); err != nil {
		return err
	}

	layoutCache, keyer := openLayoutCache(opts.noCache, logger)
	defer layoutCache.Close()

	in := engine.RenderInput{
		Records: records,
		Settings: engine.Settings{
			Layout:    engine.LayoutKind(opts.layoutKind),
			Direction: layout.Direction(opts.direction),
			Curve:     engine.Curve(opts.curve),
		},
		Container: "canvas",
	}
	bopts := buildOptions(opts.hideGroups, opts.hideUnlinked, opts.hideLinked, opts.hideLinks)
	in.HiddenGroups = bopts.HiddenGroups
	in.HideUnlinkedNodes = bopts.HideUnlinked
	in.HideLinkedNodes = bopts.HideLinked
	in.HideLinks = bopts.HideLinks
	in.HideLinkLabels = opts.hideLinkLabels

	// A finished SVG for this exact input may already exist; reuse it
	// without building the scene at all.
	akey := artifactKeyFor(keyer, &in, opts.spacing, opts.curve)
	if blob := restoreArtifact(ctx, layoutCache, akey); blob != nil {
		if err := writeOutput(opts.output, blob); err != nil {
			return err
		}
		prog.done("Diagram reused")
		printSuccess("Reused cached diagram")
		printFile(opts.output)
		return nil
	}

	key, cached := restoreLayout(ctx, layoutCache, keyer, sess, &in, opts.spacing)

	spin := newSpinnerWithContext(ctx, "Rendering diagram...")
	spin.Start()
	handle, err := sess.Render(ctx, in)
	if err != nil {
		spin.StopWithError("Render failed")
		return err
	}
	spin.Stop()
	if handle.Fresh {
		saveLayout(ctx, layoutCache, key, sess)
	}
	saveArtifact(ctx, layoutCache, akey, surface.Latest())

	if err := writeOutput(opts.output, surface.Latest()); err != nil {
		return err
	}

	prog.done("Diagram rendered")
	printSuccess("Rendered %d elements", handle.ElementCount)
	printStats(handle.ElementCount, handle.EdgeCount, cached)
	printFile(opts.output)
	return nil
}

// openLayoutCache opens the configured file cache, or a null cache when
// caching is disabled or the directory cannot be created.
func openLayoutCache(noCache bool, logger *log.Logger) (cache.Cache, cache.Keyer) {
	keyer := cache.NewDefaultKeyer()
	if noCache {
		return cache.NewNullCache(), keyer
	}
	cfg := config.Default()
	c, err := cache.NewFileCache(cfg.Cache.Dir)
	if err != nil {
		logger.Warn("layout cache unavailable", "err", err)
		return cache.NewNullCache(), keyer
	}
	return c, keyer
}

// restoreLayout seeds the session from a cached layout. It returns the
// cache key for a later save, and whether positions were restored.
func restoreLayout(ctx context.Context, c cache.Cache, keyer cache.Keyer, sess *engine.Session, in *engine.RenderInput, spacing int) (string, bool) {
	data, err := json.Marshal(in.Records)
	if err != nil {
		return "", false
	}
	key := keyer.LayoutKey(keyer.RecordsKey(data), cache.LayoutKeyOpts{
		Algorithm:    string(in.Settings.Layout),
		Direction:    string(in.Settings.Direction),
		ExtraSpacing: float64(spacing),
		LinksHidden:  in.HideLinks,
	})
	blob, hit, err := c.Get(ctx, key)
	if err != nil || !hit {
		return key, false
	}
	var pos map[string]geom.Point
	if err := json.Unmarshal(blob, &pos); err != nil {
		_ = c.Delete(ctx, key)
		return key, false
	}
	sess.ImportPositions(pos)
	return key, true
}

// saveLayout stores the freshly computed positions under key.
func saveLayout(ctx context.Context, c cache.Cache, key string, sess *engine.Session) {
	if key == "" {
		return
	}
	data, err := json.Marshal(sess.Positions())
	if err != nil {
		return
	}
	_ = c.Set(ctx, key, data, config.Default().Cache.TTL.Duration)
}

// artifactKeyFor keys the finished SVG. The base covers the full
// render input (records, settings, every visibility filter), the
// artifact options cover what is applied on top of the layout.
func artifactKeyFor(keyer cache.Keyer, in *engine.RenderInput, spacing int, curve string) string {
	data, err := json.Marshal(in)
	if err != nil {
		return ""
	}
	base := keyer.LayoutKey(keyer.RecordsKey(data), cache.LayoutKeyOpts{
		Algorithm:    string(in.Settings.Layout),
		Direction:    string(in.Settings.Direction),
		ExtraSpacing: float64(spacing),
		LinksHidden:  in.HideLinks,
	})
	return keyer.ArtifactKey(base, cache.ArtifactKeyOpts{Format: "svg", Curve: curve})
}

// restoreArtifact returns a previously rendered SVG, or nil.
func restoreArtifact(ctx context.Context, c cache.Cache, key string) []byte {
	if key == "" {
		return nil
	}
	blob, hit, err := c.Get(ctx, key)
	if err != nil || !hit {
		return nil
	}
	return blob
}

// saveArtifact stores the rendered SVG under key.
func saveArtifact(ctx context.Context, c cache.Cache, key string, data []byte) {
	if key == "" || len(data) == 0 {
		return
	}
	_ = c.Set(ctx, key, data, config.Default().Cache.TTL.Duration)
}
