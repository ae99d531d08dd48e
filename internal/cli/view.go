package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/engine"
	ferrors "github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/pipeline"
	"github.com/matzehuels/flowlens/pkg/render"
	"github.com/matzehuels/flowlens/pkg/render/sink"
	"github.com/matzehuels/flowlens/pkg/render/styles"
	"github.com/matzehuels/flowlens/pkg/selection"
	"github.com/matzehuels/flowlens/pkg/viewport"
)

// panelWidth is the inspector panel width in terminal cells.
const panelWidth = 36

// Scroll deltas for one wheel notch: canvas units when panning, wheel units
// when zooming.
const (
	wheelPan  = 3 * sink.CellHeight
	wheelZoom = 100
)

// =============================================================================
// View Command
// =============================================================================

// viewFlags holds the view-only flags.
type viewFlags struct {
	watch   bool
	theme   string
	plain   bool
	noMouse bool
	logFile string
}

// viewCommand creates the interactive terminal viewer.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		lf loadFlags
		vf viewFlags
	)

	cmd := &cobra.Command{
		Use:   "view [source-file]",
		Short: "Explore a program graph interactively in the terminal",
		Long: `Open an interactive node-link view of a program graph.

Hover or click nodes to inspect their neighbors, drag the background to pan,
scroll to pan and ctrl+scroll to zoom. Control-flow graphs can be played back
step by step.

With --watch the source file is reloaded every time it is saved.`,
		Example: `  flowlens view main.py
  flowlens view main.py -k cfg --watch
  flowlens view --payload graph.json -k dfg --theme dark`,
		Args: inputArgs(&lf),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := lf.options(c, firstArg(args), cmd.InOrStdin())
			if err != nil {
				return err
			}
			if vf.watch && (firstArg(args) == "" || firstArg(args) == "-") {
				return ferrors.New(ferrors.ErrCodeInvalidInput, "--watch needs a source file")
			}
			return c.runView(cmd.Context(), opts, lf.noCache, firstArg(args), vf)
		},
	}

	lf.register(cmd)
	cmd.Flags().BoolVarP(&vf.watch, "watch", "w", false, "reload when the source file changes")
	cmd.Flags().StringVar(&vf.theme, "theme", "", "color theme: light, dark (default from config)")
	cmd.Flags().BoolVar(&vf.plain, "plain", false, "draw without colors")
	cmd.Flags().BoolVar(&vf.noMouse, "no-mouse", false, "disable mouse input")
	cmd.Flags().StringVar(&vf.logFile, "log-file", "", "write logs to a file while the viewer owns the terminal")

	return cmd
}

// runView starts the viewer and blocks until it exits.
func (c *CLI) runView(ctx context.Context, opts pipeline.Options, noCache bool, input string, vf viewFlags) error {
	themeName := vf.theme
	if themeName == "" {
		themeName = c.Config.View.Theme
	}
	th, err := styles.ByName(themeName)
	if err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInvalidTheme, err, "invalid theme")
	}

	logger, closeLog, err := viewLogger(c.Logger.GetLevel(), vf.logFile)
	if err != nil {
		return err
	}
	defer closeLog()
	opts.Logger = logger

	runner, err := c.newRunnerWithLogger(ctx, noCache, logger)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	eng := engine.New(
		engine.WithLogger(logger),
		engine.WithTheme(th),
		engine.WithKind(graph.Diagram(opts.Kind)),
		engine.WithInterval(c.Config.View.AnimationInterval.Duration),
		engine.WithAutoInspector(c.Config.View.Inspector),
	)
	m := newViewModel(ctx, runner, opts, eng, vf.plain)

	if vf.watch {
		w, err := watchSource(ctx, input, defaultDebounce, logger)
		if err != nil {
			return fmt.Errorf("watch %s: %w", input, err)
		}
		defer w.Close()
		m.path, m.changes = input, w.Changes()
	}

	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if !vf.noMouse {
		progOpts = append(progOpts, tea.WithMouseAllMotion())
	}
	if _, err := tea.NewProgram(m, progOpts...).Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("run viewer: %w", err)
	}
	return nil
}

// =============================================================================
// Messages
// =============================================================================

// loader is the part of the pipeline runner the viewer needs.
type loader interface {
	Load(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
}

type fetchDoneMsg struct {
	token  engine.Token
	result *pipeline.Result
	err    error
}

type playTickMsg struct{ gen uint64 }

type sourceChangedMsg struct {
	code string
	err  error
}

// =============================================================================
// viewModel - Interactive graph viewer
// =============================================================================

// viewModel hosts an engine in a bubbletea program. The engine does no I/O;
// loads and playback timers run as commands and come back as messages tagged
// with the generation they were started under.
type viewModel struct {
	ctx    context.Context
	loader loader
	opts   pipeline.Options
	engine *engine.Engine

	spinner spinner.Model
	help    help.Model
	keys    viewKeys
	plain   bool

	path    string
	changes <-chan struct{}

	width, height int
	cols, rows    int
	cell          graph.Point
}

func newViewModel(ctx context.Context, ld loader, opts pipeline.Options, eng *engine.Engine, plain bool) viewModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleIconSpinner

	return viewModel{
		ctx:     ctx,
		loader:  ld,
		opts:    opts,
		engine:  eng,
		spinner: sp,
		help:    help.New(),
		keys:    defaultViewKeys(),
		plain:   plain,
		cell:    graph.Point{X: sink.CellWidth, Y: sink.CellHeight},
	}
}

func (m viewModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.waitForChange())
}

// fetch starts a new load generation. The spinner is only started when no
// load was running, so overlapping loads share one tick loop.
func (m viewModel) fetch() tea.Cmd {
	opts := m.opts
	spinning := m.engine.Loading()
	tok := m.engine.BeginFetch(engine.Request{Kind: graph.Diagram(opts.Kind), Code: opts.Code})
	ctx, ld := m.ctx, m.loader
	load := func() tea.Msg {
		res, err := ld.Load(ctx, opts)
		return fetchDoneMsg{token: tok, result: res, err: err}
	}
	if spinning {
		return load
	}
	return tea.Batch(m.spinner.Tick, load)
}

// waitForChange blocks until the watched file is saved and reads it.
func (m viewModel) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch, path := m.changes, m.path
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		data, err := os.ReadFile(path)
		return sourceChangedMsg{code: string(data), err: err}
	}
}

// scheduleTick arms the playback timer for the current player generation.
func (m viewModel) scheduleTick() tea.Cmd {
	gen := m.engine.PlayerGen()
	return tea.Tick(m.engine.Interval(), func(time.Time) tea.Msg {
		return playTickMsg{gen: gen}
	})
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width

	case spinner.TickMsg:
		if m.engine.Loading() {
			m.spinner, cmd = m.spinner.Update(msg)
		}

	case fetchDoneMsg:
		m.engine.CompleteFetch(msg.token, msg.result, msg.err)

	case playTickMsg:
		if m.engine.Tick(msg.gen) && m.engine.Playing() {
			cmd = m.scheduleTick()
		}

	case sourceChangedMsg:
		if msg.err != nil {
			cmd = m.waitForChange()
			break
		}
		m.opts.Code = msg.code
		cmd = tea.Batch(m.fetch(), m.waitForChange())

	case tea.KeyMsg:
		var quit bool
		cmd, quit = m.handleKey(msg)
		if quit {
			return m, tea.Quit
		}

	case tea.MouseMsg:
		m.handleMouse(msg)
	}

	m = m.fitCanvas()
	return m, cmd
}

func (m *viewModel) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	e := m.engine
	switch {
	case key.Matches(msg, m.keys.Quit):
		return nil, true
	case key.Matches(msg, m.keys.Close):
		e.Key(msg.String())
		return nil, true
	case key.Matches(msg, m.keys.AST):
		return m.switchKind(graph.DiagramAST), false
	case key.Matches(msg, m.keys.CFG):
		return m.switchKind(graph.DiagramCFG), false
	case key.Matches(msg, m.keys.DFG):
		return m.switchKind(graph.DiagramDFG), false
	case key.Matches(msg, m.keys.Reload):
		return m.fetch(), false
	case key.Matches(msg, m.keys.Play):
		if e.TogglePlay() {
			return m.scheduleTick(), false
		}
	case key.Matches(msg, m.keys.Next):
		e.Pause()
		e.StepForward()
	case key.Matches(msg, m.keys.Prev):
		e.Pause()
		e.StepBack()
	case key.Matches(msg, m.keys.ZoomIn):
		e.ZoomIn()
	case key.Matches(msg, m.keys.ZoomOut):
		e.ZoomOut()
	case key.Matches(msg, m.keys.Reset):
		e.ResetView()
	case key.Matches(msg, m.keys.Fit):
		e.FitToView()
	case key.Matches(msg, m.keys.Inspector):
		e.ToggleInspector()
	case key.Matches(msg, m.keys.Theme):
		e.SetTheme(e.Theme().Toggle())
	case key.Matches(msg, m.keys.Up):
		e.PanBy(0, 2*m.cell.Y)
	case key.Matches(msg, m.keys.Down):
		e.PanBy(0, -2*m.cell.Y)
	case key.Matches(msg, m.keys.Left):
		e.PanBy(4*m.cell.X, 0)
	case key.Matches(msg, m.keys.Right):
		e.PanBy(-4*m.cell.X, 0)
	case key.Matches(msg, m.keys.FocusNext):
		e.FocusNext()
	case key.Matches(msg, m.keys.FocusPrev):
		e.FocusPrev()
	case key.Matches(msg, m.keys.Pin):
		e.PinFocused()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil, false
}

// switchKind changes the diagram kind and reloads.
func (m *viewModel) switchKind(k graph.Diagram) tea.Cmd {
	if !m.engine.SetKind(k) {
		return nil
	}
	m.opts.Kind = string(k)
	return m.fetch()
}

func (m viewModel) handleMouse(msg tea.MouseMsg) {
	e := m.engine
	if msg.X >= m.cols || msg.Y >= m.rows {
		e.PointerLeave()
		if msg.X >= m.cols && msg.Y < m.rows && m.panelVisible() &&
			msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if id, ok := m.panelNodeAt(msg.Y); ok {
				e.ClickNode(id)
				e.CenterOnActive()
			}
		}
		return
	}
	p := m.cellCenter(msg.X, msg.Y)

	if tea.MouseEvent(msg).IsWheel() {
		dy := wheelPan
		if msg.Ctrl {
			dy = wheelZoom
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			e.Wheel(p, 0, -dy, msg.Ctrl)
		case tea.MouseButtonWheelDown:
			e.Wheel(p, 0, dy, msg.Ctrl)
		case tea.MouseButtonWheelLeft:
			e.Wheel(p, -wheelPan, 0, false)
		case tea.MouseButtonWheelRight:
			e.Wheel(p, wheelPan, 0, false)
		}
		return
	}

	switch msg.Action {
	case tea.MouseActionPress:
		e.PointerDown(p, mouseButton(msg.Button))
	case tea.MouseActionRelease:
		e.PointerUp()
	case tea.MouseActionMotion:
		e.PointerMove(p)
	}
}

// cellCenter maps a terminal cell to the canvas point at its center.
func (m viewModel) cellCenter(col, row int) graph.Point {
	return graph.Point{
		X: (float64(col) + 0.5) * m.cell.X,
		Y: (float64(row) + 0.5) * m.cell.Y,
	}
}

func mouseButton(b tea.MouseButton) viewport.Button {
	switch b {
	case tea.MouseButtonRight:
		return viewport.ButtonSecondary
	case tea.MouseButtonMiddle:
		return viewport.ButtonMiddle
	}
	return viewport.ButtonPrimary
}

// panelVisible reports whether the inspector panel takes screen space.
func (m viewModel) panelVisible() bool {
	if !m.engine.InspectorVisible() || m.width < 2*panelWidth {
		return false
	}
	_, ok := m.engine.Inspector()
	return ok
}

// fitCanvas keeps the engine's canvas in sync with the space left by the
// chrome and the inspector panel.
func (m viewModel) fitCanvas() viewModel {
	if m.width == 0 || m.height == 0 {
		return m
	}
	// status line plus help
	cols, rows := m.width, m.height-1-lipgloss.Height(m.help.View(m.keys))
	if m.panelVisible() {
		cols -= panelWidth
	}
	cols, rows = max(cols, 1), max(rows, 1)
	if cols == m.cols && rows == m.rows {
		return m
	}
	m.cols, m.rows = cols, rows
	size := graph.Point{X: float64(cols) * m.cell.X, Y: float64(rows) * m.cell.Y}
	m.engine.Resize(size.X, size.Y)
	return m
}

// =============================================================================
// Drawing
// =============================================================================

func (m viewModel) View() string {
	if m.width == 0 {
		return ""
	}

	var opts []sink.TextOption
	if m.plain {
		opts = append(opts, sink.WithPlainText())
	}
	surface := sink.NewText(opts...)
	canvas := ""
	if err := render.Render(surface, m.engine.Scene()); err == nil {
		canvas = strings.Join(fitLines(surface.Lines(), m.cols, m.rows), "\n")
	}
	if m.panelVisible() {
		canvas = lipgloss.JoinHorizontal(lipgloss.Top, canvas, m.panelView())
	}

	return lipgloss.JoinVertical(lipgloss.Left, canvas, m.statusView(), m.help.View(m.keys))
}

// fitLines pads or crops lines to exactly rows entries.
func fitLines(lines []string, cols, rows int) []string {
	out := make([]string, rows)
	blank := strings.Repeat(" ", cols)
	for i := range out {
		out[i] = blank
		if i < len(lines) {
			out[i] = lines[i]
		}
	}
	return out
}

func (m viewModel) statusView() string {
	e := m.engine
	if err := e.Error(); err != nil {
		return styleBanner.Render(iconError + " " + ferrors.UserMessage(err))
	}

	parts := []string{styleStatusKind.Render(strings.ToUpper(string(e.Kind())))}
	if e.Loading() {
		parts = append(parts, m.spinner.View()+" "+StyleDim.Render("Loading "+e.Kind().Title()+"..."))
	}
	if !e.Graph().Empty() {
		cur, total := e.Step()
		parts = append(parts, fmt.Sprintf("Step %d / %d", cur, total))
		if e.Playing() {
			parts = append(parts, StyleHighlight.Render("playing"))
		}
		if tr := e.Trace(); tr.Fallback {
			parts = append(parts, StyleWarning.Render("raw order"))
		}
	}
	v := e.Viewport()
	parts = append(parts, fmt.Sprintf("%.0f%%", v.Zoom*100))
	if m.changes != nil {
		parts = append(parts, StyleDim.Render("watching "+m.path))
	}
	return styleStatusBar.Render(strings.Join(parts, StyleDim.Render(" · ")))
}

func (m viewModel) panelView() string {
	lines, _ := m.panelContent()
	return stylePanel.Width(panelWidth - 2).Height(max(m.rows-2, 1)).Render(strings.Join(lines, "\n"))
}

// panelContent returns the inspector lines and, for each line that lists a
// neighbor, the neighbor's node id keyed by line index. Lines are clipped to
// the panel so none of them wraps.
func (m viewModel) panelContent() ([]string, map[int]int) {
	ins, ok := m.engine.Inspector()
	if !ok {
		return nil, nil
	}
	focused, hasFocus := m.engine.Focused()
	clip := lipgloss.NewStyle().MaxWidth(panelWidth - stylePanel.GetHorizontalFrameSize())

	var lines []string
	rows := make(map[int]int)
	add := func(s string) { lines = append(lines, clip.Render(s)) }

	n := ins.Node
	add(stylePanelTitle.Render(render.TruncateLabel(n.Label)))
	meta := StyleDim.Render(fmt.Sprintf("#%d %s", n.ID, n.Kind))
	if n.HasLine() {
		meta += StyleDim.Render("  " + render.LineLabel(n.Line))
	}
	add(meta)

	section := func(title string, nbs []selection.Neighbor) {
		add("")
		add(stylePanelHeading.Render(fmt.Sprintf("%s (%d)", title, len(nbs))))
		for _, nb := range nbs {
			mark := " "
			if hasFocus && nb.Node.ID == focused {
				mark = styleFocused.Render("›")
			}
			line := fmt.Sprintf(" %s %s %s", mark, StyleNumber.Render(fmt.Sprintf("#%d", nb.Node.ID)), render.TruncateLabel(nb.Node.Label))
			if nb.Edge.Kind != "" {
				line += StyleDim.Render(" " + nb.Edge.Kind)
			}
			rows[len(lines)] = nb.Node.ID
			add(line)
		}
	}
	section("Incoming", ins.Predecessors)
	section("Outgoing", ins.Successors)
	return lines, rows
}

// panelNodeAt returns the neighbor listed on screen row y of the panel.
func (m viewModel) panelNodeAt(y int) (int, bool) {
	_, rows := m.panelContent()
	id, ok := rows[y-stylePanel.GetBorderTopSize()-stylePanel.GetPaddingTop()]
	return id, ok
}
