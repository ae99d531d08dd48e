package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

// =============================================================================
// Shared Styles
// =============================================================================

var (
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorCyan)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconOK      = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconFail    = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarn    = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(10)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleLoop        = lipgloss.NewStyle().Foreground(colorYellow)
)

const (
	iconOK    = "✓"
	iconError = "✗"
	iconWarn  = "!"
	iconNote  = "›"
	iconArrow = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// status prints the summaries batch commands show once they finish. Artifacts
// written to stdout never go through it.
type status struct{ w io.Writer }

func newStatus(w io.Writer) status { return status{w: w} }

func (s status) line(icon lipgloss.Style, mark, msg string) {
	fmt.Fprintln(s.w, icon.Render(mark)+" "+msg)
}

func (s status) success(format string, args ...any) {
	s.line(styleIconOK, iconOK, fmt.Sprintf(format, args...))
}

func (s status) failure(format string, args ...any) {
	s.line(styleIconFail, iconError, fmt.Sprintf(format, args...))
}

func (s status) warn(format string, args ...any) {
	s.line(styleIconWarn, iconWarn, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func (s status) note(format string, args ...any) {
	s.line(StyleDim, iconNote, fmt.Sprintf(format, args...))
}

// file prints an indented written path.
func (s status) file(path string) {
	fmt.Fprintln(s.w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// field prints an aligned key and value.
func (s status) field(key, value string) {
	fmt.Fprintln(s.w, "  "+styleKey.Render(key)+" "+StyleValue.Render(value))
}

// next suggests a follow-up command.
func (s status) next(what, cmd string) {
	fmt.Fprintln(s.w)
	fmt.Fprintln(s.w, StyleDim.Render(what+":")+" "+styleCommand.Render(cmd))
}

// graph prints the one-line shape of a loaded graph:
//
//	7 nodes · 8 edges · 2 loops · 4 levels · cached
func (s status) graph(res *pipeline.Result, cached bool) {
	fmt.Fprintln(s.w, "  "+graphSummary(res, cached))
}

func graphSummary(res *pipeline.Result, cached bool) string {
	parts := []string{
		fmt.Sprintf("%d %s", len(res.Graph.Nodes), plural(len(res.Graph.Nodes), "node", "nodes")),
		fmt.Sprintf("%d %s", len(res.Graph.Edges), plural(len(res.Graph.Edges), "edge", "edges")),
	}
	if loops := countBackEdges(res.Graph); loops > 0 {
		parts = append(parts, styleLoop.Render(fmt.Sprintf("%d %s", loops, plural(loops, "loop", "loops"))))
	}
	if res.Layout.Levels > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", res.Layout.Levels, plural(res.Layout.Levels, "level", "levels")))
	}
	if cached {
		parts = append(parts, styleIconOK.Render("cached"))
	} else {
		parts = append(parts, "fresh")
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

func countBackEdges(g graph.Graph) int {
	n := 0
	for _, e := range g.Edges {
		if e.IsBack() {
			n++
		}
	}
	return n
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// =============================================================================
// Viewer Styles
// =============================================================================

var (
	styleStatusBar    = lipgloss.NewStyle().Foreground(colorGray)
	styleStatusKind   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleBanner       = lipgloss.NewStyle().Foreground(colorWhite).Background(colorRed).Padding(0, 1)
	stylePanel        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	stylePanelTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	stylePanelHeading = lipgloss.NewStyle().Bold(true).Foreground(colorGray)
	styleFocused      = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
)
