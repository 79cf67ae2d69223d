package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schematiq/schematiq/pkg/layout"
	"github.com/schematiq/schematiq/pkg/position"
	"github.com/schematiq/schematiq/pkg/scene"
)

// layoutOpts holds the command-line flags for the layout command.
type layoutOpts struct {
	output       string // output file path, "-" for stdout
	algorithm    string // layout algorithm name
	direction    string // TB or LR
	spacing      int    // extra spacing 0-100
	hideLinks    bool   // drop edges from the scene
	hideUnlinked bool   // hide nodes without links
	hideLinked   bool   // hide nodes with links
	hideGroups   string // comma-separated group names to hide
}

// newLayoutCmd creates the layout command. It builds the scene graph
// from a record table and prints the computed positions as JSON,
// without rendering anything.
func newLayoutCmd() *cobra.Command {
	opts := layoutOpts{
		algorithm: string(layout.AlgorithmCompact),
		direction: string(layout.DirectionTB),
	}

	cmd := &cobra.Command{
		Use:   "layout [file]",
		Short: "Compute element positions for a record table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVarP(&opts.algorithm, "algorithm", "a", opts.algorithm,
		"layout algorithm: compact, brick-vertical, brick-horizontal, hierarchical, force")
	cmd.Flags().StringVarP(&opts.direction, "direction", "d", opts.direction, "layout direction: TB or LR")
	cmd.Flags().IntVar(&opts.spacing, "spacing", 0, "extra node spacing, 0-100")
	cmd.Flags().BoolVar(&opts.hideLinks, "hide-links", false, "drop links from the scene")
	cmd.Flags().BoolVar(&opts.hideUnlinked, "hide-unlinked", false, "hide nodes without links")
	cmd.Flags().BoolVar(&opts.hideLinked, "hide-linked", false, "hide nodes with links")
	cmd.Flags().StringVar(&opts.hideGroups, "hide-groups", "", "comma-separated group names to hide")

	return cmd
}

func runLayout(ctx context.Context, path string, opts *layoutOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	records, err := scene.ReadRecordsFile(path)
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}
	g := scene.Build(records, buildOptions(opts.hideGroups, opts.hideUnlinked, opts.hideLinked, opts.hideLinks))
	logger.Debug("scene built", "elements", g.ElementCount(), "edges", g.EdgeCount())

	store := position.NewStore()
	eng := layout.NewEngine(store, layout.Options{Logger: logger})
	eng.SetExtraSpacing(float64(opts.spacing))
	eng.SetLinksHidden(opts.hideLinks)

	algo := layout.Algorithm(opts.algorithm)
	spin := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", algo))
	spin.Start()
	err = eng.Run(ctx, g, layout.RunOptions{
		Algorithm: algo,
		Direction: layout.Direction(opts.direction),
	})
	if err != nil {
		spin.StopWithError("Layout failed")
		return err
	}
	spin.Stop()

	pos := store.Snapshot(g)
	data, err := json.MarshalIndent(pos, "", "  ")
	if err != nil {
		return err
	}
	if err := writeOutput(opts.output, append(data, '\n')); err != nil {
		return err
	}

	prog.done(fmt.Sprintf("Laid out %d elements", len(pos)))
	if opts.output != "-" {
		printFile(opts.output)
	}
	return nil
}

// buildOptions translates CLI visibility flags into builder options.
func buildOptions(hideGroups string, hideUnlinked, hideLinked, hideLinks bool) scene.BuildOptions {
	var hidden map[string]bool
	if hideGroups != "" {
		hidden = make(map[string]bool)
		for _, g := range strings.Split(hideGroups, ",") {
			if g = strings.TrimSpace(g); g != "" {
				hidden[g] = true
			}
		}
	}
	return scene.BuildOptions{
		HiddenGroups: hidden,
		HideUnlinked: hideUnlinked,
		HideLinked:   hideLinked,
		HideLinks:    hideLinks,
	}
}

// writeOutput writes data to path, or stdout when path is "-".
func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
