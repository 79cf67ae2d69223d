package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/schematiq/schematiq/pkg/engine"
	"github.com/schematiq/schematiq/pkg/geom"
	"github.com/schematiq/schematiq/pkg/layout"
	"github.com/schematiq/schematiq/pkg/layout/solver"
	"github.com/schematiq/schematiq/pkg/scene"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// dragStep is how far one arrow-key press moves the selected element,
// in canvas points. Large enough that collision pushes are visible.
const dragStep = 24.0

// newTUICmd creates the tui command: an interactive terminal preview
// where elements can be dragged with the arrow keys and the collision
// resolver reacts live.
func newTUICmd() *cobra.Command {
	var spacing int

	cmd := &cobra.Command{
		Use:   "tui [file]",
		Short: "Explore and drag a diagram in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), args[0], spacing)
		},
	}

	cmd.Flags().IntVar(&spacing, "spacing", 0, "extra node spacing, 0-100")
	return cmd
}

func runTUI(ctx context.Context, path string, spacing int) error {
	records, err := scene.ReadRecordsFile(path)
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}

	surface := &tuiSurface{}
	sess := engine.NewSession(surface, engine.Options{})
	if err := sess.SetNodeSpacing(spacing); err != nil {
		return err
	}
	if _, err := sess.Render(ctx, engine.RenderInput{
		Records:   records,
		Container: "tui",
	}); err != nil {
		return err
	}

	model := newDiagramModel(ctx, sess, surface)
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

// =============================================================================
// tuiSurface - terminal render target
// =============================================================================

// tuiSurface retains the latest scene and positions for the view to
// draw. The camera is ignored; the view fits content itself.
type tuiSurface struct {
	graph *scene.Graph
	pos   map[string]geom.Point
}

func (s *tuiSurface) HasContainer(handle string) bool { return handle == "tui" }

func (s *tuiSurface) Viewport() (width, height float64) { return 1600, 1000 }

func (s *tuiSurface) Apply(g *scene.Graph, pos map[string]geom.Point, cam engine.Camera) error {
	s.graph = g
	s.pos = pos
	return nil
}

// =============================================================================
// DiagramModel - interactive diagram view
// =============================================================================

// DiagramModel is the bubbletea model for the interactive preview.
type DiagramModel struct {
	ctx     context.Context
	session *engine.Session
	surface *tuiSurface

	nodes    []string // draggable element IDs, selection order
	cursor   int
	dragging bool
	status   string

	width  int
	height int
}

func newDiagramModel(ctx context.Context, sess *engine.Session, surface *tuiSurface) DiagramModel {
	return DiagramModel{
		ctx:     ctx,
		session: sess,
		surface: surface,
		nodes:   sess.VisibleNodeIDs(),
		width:   80,
		height:  24,
		status:  "compact layout",
	}
}

func (m DiagramModel) Init() tea.Cmd {
	return nil
}

func (m DiagramModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m = m.endDrag()
			if len(m.nodes) > 0 {
				m.cursor = (m.cursor + 1) % len(m.nodes)
			}
		case "shift+tab":
			m = m.endDrag()
			if len(m.nodes) > 0 {
				m.cursor = (m.cursor + len(m.nodes) - 1) % len(m.nodes)
			}
		case "up":
			m = m.drag(0, -dragStep)
		case "down":
			m = m.drag(0, dragStep)
		case "left":
			m = m.drag(-dragStep, 0)
		case "right":
			m = m.drag(dragStep, 0)
		case "enter":
			m = m.endDrag()
		case "1":
			m = m.runLayout("compact", func(ctx context.Context) error {
				return m.session.RunAutoLayout(ctx, layout.DirectionTB)
			})
		case "2":
			m = m.runLayout("hierarchical", func(ctx context.Context) error {
				return m.session.RunHierarchicalLayout(ctx, layout.DirectionTB)
			})
		case "3":
			m = m.runLayout("force-directed", func(ctx context.Context) error {
				return m.session.RunForceDirectedLayout(ctx, solver.ForceOptions{})
			})
		case "4":
			m = m.runLayout("brick rows", m.session.RunCompactVerticalLayout)
		case "5":
			m = m.runLayout("brick columns", m.session.RunCompactHorizontalLayout)
		}
	}
	return m, nil
}

// drag moves the selected element one step and lets the resolver push
// neighbors aside.
func (m DiagramModel) drag(dx, dy float64) DiagramModel {
	if len(m.nodes) == 0 {
		return m
	}
	id := m.nodes[m.cursor]
	p, ok := m.session.Positions()[id]
	if !ok {
		return m
	}
	if err := m.session.DragStep(m.ctx, id, p.Add(dx, dy)); err != nil {
		m.status = err.Error()
		return m
	}
	m.dragging = true
	m.status = fmt.Sprintf("dragging %s", id)
	return m
}

// endDrag releases the in-progress drag, if any.
func (m DiagramModel) endDrag() DiagramModel {
	if !m.dragging || len(m.nodes) == 0 {
		return m
	}
	id := m.nodes[m.cursor]
	if p, ok := m.session.Positions()[id]; ok {
		_ = m.session.DragEnd(m.ctx, id, p)
	}
	m.dragging = false
	m.status = "drag released"
	return m
}

func (m DiagramModel) runLayout(name string, fn func(context.Context) error) DiagramModel {
	m = m.endDrag()
	if err := fn(m.ctx); err != nil {
		m.status = err.Error()
		return m
	}
	m.status = name + " layout"
	return m
}

func (m DiagramModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Schematiq"))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render("tab select · arrows drag · enter release · 1-5 layouts · q quit"))
	b.WriteString("\n")
	b.WriteString(m.renderCanvas())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(m.statusLine()))
	return b.String()
}

func (m DiagramModel) statusLine() string {
	sel := "none"
	if len(m.nodes) > 0 {
		sel = m.nodes[m.cursor]
	}
	return fmt.Sprintf("  %s · selected: %s · [%d/%d]", m.status, sel, m.cursor+1, len(m.nodes))
}

// renderCanvas projects element centers onto a character grid, fitting
// the scene bounding box to the terminal.
func (m DiagramModel) renderCanvas() string {
	rows := m.height - 4
	cols := m.width
	if rows < 5 {
		rows = 5
	}
	if cols < 20 {
		cols = 20
	}

	grid := make([][]string, rows)
	for i := range grid {
		grid[i] = make([]string, cols)
		for j := range grid[i] {
			grid[i][j] = " "
		}
	}

	g := m.surface.graph
	pos := m.surface.pos
	if g == nil || len(pos) == 0 {
		return strings.Repeat("\n", rows)
	}

	var rects []geom.Rect
	for _, p := range pos {
		rects = append(rects, geom.Rect{Center: p, Width: 1, Height: 1})
	}
	box, ok := geom.BoundingBox(rects)
	if !ok {
		return strings.Repeat("\n", rows)
	}
	scaleX := float64(cols-12) / max(box.Width, 1)
	scaleY := float64(rows-1) / max(box.Height, 1)

	selected := ""
	if len(m.nodes) > 0 {
		selected = m.nodes[m.cursor]
	}

	for _, el := range g.Positioned() {
		p, ok := pos[el.ID]
		if !ok {
			continue
		}
		col := int((p.X - box.Left()) * scaleX)
		row := int((p.Y - box.Top()) * scaleY)
		if row < 0 || row >= rows || col < 0 || col >= cols {
			continue
		}
		label := el.Label
		if len(label) > 10 {
			label = label[:10]
		}
		style := listNormalStyle
		switch {
		case el.ID == selected:
			style = listSelectedStyle
			label = "▸" + label
		case el.Kind == scene.KindGroupLabel:
			style = listDimStyle
		case el.Kind == scene.KindMuxClone:
			style = listDimStyle
		}
		placeLabel(grid[row], col, style.Render(label), len(label))
	}

	lines := make([]string, rows)
	for i, r := range grid {
		lines[i] = strings.TrimRight(strings.Join(r, ""), " ")
	}
	return strings.Join(lines, "\n")
}

// placeLabel writes a rendered label into a grid row starting at col,
// one styled cell followed by plain padding cells so column math stays
// aligned.
func placeLabel(row []string, col int, rendered string, width int) {
	if col >= len(row) {
		return
	}
	row[col] = rendered
	for i := 1; i < width && col+i < len(row); i++ {
		row[col+i] = ""
	}
}
