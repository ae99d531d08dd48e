package sink

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/render"
	"github.com/matzehuels/flowlens/pkg/render/styles"
	"github.com/matzehuels/flowlens/pkg/route"
)

// Default terminal cell size in canvas units. A default node box covers
// 15 x 3 cells.
const (
	CellWidth  = 8.0
	CellHeight = 13.0
)

// TextOption configures the terminal surface.
type TextOption func(*Text)

// WithCellSize sets how many canvas units one terminal cell covers.
func WithCellSize(w, h float64) TextOption {
	return func(t *Text) {
		if w > 0 && h > 0 {
			t.cw, t.ch = w, h
		}
	}
}

// WithPlainText disables ANSI styling, for tests and dumb terminals.
func WithPlainText() TextOption { return func(t *Text) { t.plain = true } }

type cell struct {
	r     rune
	fg    string
	bg    string
	bold  bool
	faint bool
}

// Text rasterizes frames onto a grid of terminal cells.
type Text struct {
	cw, ch     float64
	plain      bool
	cols, rows int
	cells      []cell
	th         styles.Theme
}

// NewText returns a terminal surface.
func NewText(opts ...TextOption) *Text {
	t := &Text{cw: CellWidth, ch: CellHeight}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CanvasSize returns the canvas size covered by a cols x rows grid.
func (t *Text) CanvasSize(cols, rows int) graph.Point {
	return graph.Point{X: float64(cols) * t.cw, Y: float64(rows) * t.ch}
}

// Cell returns the rune drawn at (col, row).
func (t *Text) Cell(col, row int) rune {
	if col < 0 || row < 0 || col >= t.cols || row >= t.rows {
		return 0
	}
	return t.cells[row*t.cols+col].r
}

func (t *Text) Begin(size graph.Point, th styles.Theme) error {
	t.cols = max(1, int(math.Round(size.X/t.cw)))
	t.rows = max(1, int(math.Round(size.Y/t.ch)))
	t.th = th
	t.cells = make([]cell, t.cols*t.rows)
	for i := range t.cells {
		t.cells[i] = cell{r: ' '}
	}
	return nil
}

func (t *Text) at(col, row int) *cell {
	if col < 0 || row < 0 || col >= t.cols || row >= t.rows {
		return nil
	}
	return &t.cells[row*t.cols+col]
}

func (t *Text) cellOf(p graph.Point) (int, int) {
	return int(math.Floor(p.X / t.cw)), int(math.Floor(p.Y / t.ch))
}

func (t *Text) Path(p route.Path, st render.Stroke) {
	faint := st.Opacity < 1
	prev := p.Start()
	plot := func(a, b graph.Point) {
		d := b.Sub(a)
		steps := int(math.Ceil(math.Max(math.Abs(d.X)/t.cw, math.Abs(d.Y)/t.ch) * 2))
		r := lineRune(d.X/t.cw, d.Y/t.ch)
		for i := 0; i <= steps; i++ {
			q := a.Add(d.Scale(float64(i) / float64(max(steps, 1))))
			if c := t.at(t.cellOf(q)); c != nil && c.bg == "" {
				c.r, c.fg, c.faint = r, st.Color, faint
			}
		}
	}
	for _, s := range p {
		switch s.Op {
		case route.OpMove:
			prev = s.Pts[0]
		case route.OpLine:
			plot(prev, s.Pts[0])
			prev = s.Pts[0]
		case route.OpCubic:
			const samples = 24
			for i := 1; i <= samples; i++ {
				q := cubic(prev, s.Pts[0], s.Pts[1], s.Pts[2], float64(i)/samples)
				plot(prev, q)
				prev = q
			}
		}
	}

	dir := p.EndDirection()
	tip := p.End().Sub(graph.Point{X: dir.X * t.cw, Y: dir.Y * t.ch}.Scale(0.5))
	if c := t.at(t.cellOf(tip)); c != nil && c.bg == "" {
		c.r, c.fg, c.faint, c.bold = arrowRune(dir), st.Color, faint, true
	}
}

func (t *Text) Box(r graph.Rect, b render.Box) {
	c0, r0 := t.cellOf(r.Min)
	c1, r1 := t.cellOf(graph.Point{X: r.Max.X - 1e-9, Y: r.Max.Y - 1e-9})
	faint := b.Opacity < 1
	bordered := b.Border != "" && c1-c0 >= 2 && r1-r0 >= 2

	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			c := t.at(col, row)
			if c == nil {
				continue
			}
			*c = cell{r: ' ', bg: b.Fill, faint: faint}
			if !bordered {
				continue
			}
			if r := borderRune(col, row, c0, r0, c1, r1); r != 0 {
				c.r, c.fg, c.bold = r, b.Border, true
			}
		}
	}
}

func (t *Text) Text(at graph.Point, s string, st render.Text) {
	runes := []rune(s)
	col, row := t.cellOf(at)
	switch st.Anchor {
	case render.AnchorMiddle:
		col = int(math.Round(at.X/t.cw - float64(len(runes))/2))
	case render.AnchorEnd:
		col -= len(runes)
	}
	fg, alpha := styles.SplitAlpha(st.Color)
	faint := st.Opacity*alpha < 1
	for i, r := range runes {
		c := t.at(col+i, row)
		if c == nil {
			continue
		}
		c.r, c.fg, c.bold = r, fg, st.Bold
		c.faint = c.faint || faint
	}
}

func (t *Text) End() error { return nil }

// Lines returns the rendered rows.
func (t *Text) Lines() []string {
	out := make([]string, t.rows)
	for row := range t.rows {
		out[row] = t.line(t.cells[row*t.cols : (row+1)*t.cols])
	}
	return out
}

// String returns the rendered frame.
func (t *Text) String() string { return strings.Join(t.Lines(), "\n") }

func (t *Text) line(cells []cell) string {
	var b strings.Builder
	if t.plain {
		for _, c := range cells {
			b.WriteRune(c.r)
		}
		return b.String()
	}
	// Group runs of identically styled cells to keep escape sequences short.
	for i := 0; i < len(cells); {
		j := i
		var run strings.Builder
		for j < len(cells) && sameStyle(cells[i], cells[j]) {
			run.WriteRune(cells[j].r)
			j++
		}
		b.WriteString(t.style(cells[i]).Render(run.String()))
		i = j
	}
	return b.String()
}

func sameStyle(a, b cell) bool {
	return a.fg == b.fg && a.bg == b.bg && a.bold == b.bold && a.faint == b.faint
}

func (t *Text) style(c cell) lipgloss.Style {
	s := lipgloss.NewStyle()
	if c.fg != "" {
		s = s.Foreground(lipgloss.Color(c.fg))
	}
	if c.bg != "" {
		s = s.Background(lipgloss.Color(c.bg))
	}
	return s.Bold(c.bold).Faint(c.faint)
}

func cubic(p0, p1, p2, p3 graph.Point, u float64) graph.Point {
	v := 1 - u
	return p0.Scale(v * v * v).
		Add(p1.Scale(3 * v * v * u)).
		Add(p2.Scale(3 * v * u * u)).
		Add(p3.Scale(u * u * u))
}

func lineRune(dx, dy float64) rune {
	ax, ay := math.Abs(dx), math.Abs(dy)
	switch {
	case ax > 2*ay:
		return '─'
	case ay > 2*ax:
		return '│'
	case (dx > 0) == (dy > 0):
		return '╲'
	default:
		return '╱'
	}
}

func arrowRune(dir graph.Point) rune {
	if math.Abs(dir.Y) >= math.Abs(dir.X) {
		if dir.Y >= 0 {
			return '▼'
		}
		return '▲'
	}
	if dir.X > 0 {
		return '▶'
	}
	return '◀'
}

func borderRune(col, row, c0, r0, c1, r1 int) rune {
	top, bottom := row == r0, row == r1
	left, right := col == c0, col == c1
	switch {
	case top && left:
		return '┏'
	case top && right:
		return '┓'
	case bottom && left:
		return '┗'
	case bottom && right:
		return '┛'
	case top || bottom:
		return '━'
	case left || right:
		return '┃'
	}
	return 0
}
