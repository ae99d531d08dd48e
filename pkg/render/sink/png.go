package sink

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/render"
	"github.com/matzehuels/flowlens/pkg/render/styles"
	"github.com/matzehuels/flowlens/pkg/route"
)

// Arrowhead proportions relative to the stroke width, matching the SVG
// marker (10 x 7 marker units, tip one unit past the path end).
const (
	arrowLength    = 10.0
	arrowHalfWidth = 3.5
	arrowOverhang  = 1.0
)

// PNGOption configures PNG rendering.
type PNGOption func(*PNG)

// WithScale sets the raster scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) PNGOption {
	return func(p *PNG) {
		if s > 0 {
			p.scale = s
		}
	}
}

// PNG rasterizes frames with gg.
type PNG struct {
	scale float64
	dc    *gg.Context
	out   bytes.Buffer

	regular *truetype.Font
	medium  *truetype.Font
	faces   map[faceKey]font.Face
}

type faceKey struct {
	size float64
	bold bool
}

// NewPNG returns a PNG surface. The embedded Go fonts are parsed once per
// surface.
func NewPNG(opts ...PNGOption) (*PNG, error) {
	p := &PNG{scale: 2.0, faces: make(map[faceKey]font.Face)}
	for _, opt := range opts {
		opt(p)
	}
	var err error
	if p.regular, err = truetype.Parse(goregular.TTF); err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	if p.medium, err = truetype.Parse(gomedium.TTF); err != nil {
		return nil, fmt.Errorf("parse medium font: %w", err)
	}
	return p, nil
}

// Bytes returns the last encoded PNG.
func (p *PNG) Bytes() []byte { return p.out.Bytes() }

// Image returns the last rendered frame, or nil before the first Begin.
func (p *PNG) Image() image.Image {
	if p.dc == nil {
		return nil
	}
	return p.dc.Image()
}

func (p *PNG) Begin(size graph.Point, th styles.Theme) error {
	w, h := int(math.Ceil(size.X*p.scale)), int(math.Ceil(size.Y*p.scale))
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid canvas size %gx%g", size.X, size.Y)
	}
	p.out.Reset()
	p.dc = gg.NewContext(w, h)
	p.dc.SetColor(styles.MustHex(th.Background))
	p.dc.Clear()
	return nil
}

func (p *PNG) Path(path route.Path, st render.Stroke) {
	if len(path) == 0 {
		return
	}
	dc := p.dc
	c := withOpacity(styles.MustHex(st.Color), st.Opacity)
	path = path.Map(p.px)
	width := st.Width * p.scale

	// Stop the line at the arrowhead base so its square end does not poke
	// through the tip.
	dir := path.EndDirection()
	tip := path.End().Add(dir.Scale(arrowOverhang * width))
	base := tip.Sub(dir.Scale(arrowLength * width))

	dc.NewSubPath()
	for i, s := range path {
		end := s.End()
		if i == len(path)-1 {
			end = base
		}
		switch s.Op {
		case route.OpMove:
			dc.MoveTo(s.Pts[0].X, s.Pts[0].Y)
		case route.OpLine:
			dc.LineTo(end.X, end.Y)
		case route.OpCubic:
			dc.CubicTo(s.Pts[0].X, s.Pts[0].Y, s.Pts[1].X, s.Pts[1].Y, end.X, end.Y)
		}
	}
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.Stroke()

	n := graph.Point{X: -dir.Y, Y: dir.X}.Scale(arrowHalfWidth * width)
	l, r := base.Add(n), base.Sub(n)
	dc.MoveTo(tip.X, tip.Y)
	dc.LineTo(l.X, l.Y)
	dc.LineTo(r.X, r.Y)
	dc.ClosePath()
	dc.Fill()
}

func (p *PNG) Box(r graph.Rect, b render.Box) {
	dc := p.dc
	r = graph.Rect{Min: p.px(r.Min), Max: p.px(r.Max)}
	dc.DrawRoundedRectangle(r.Min.X, r.Min.Y, r.W(), r.H(), b.Radius*p.scale)
	dc.SetColor(withOpacity(styles.MustHex(b.Fill), b.Opacity))
	if b.Border == "" {
		dc.Fill()
		return
	}
	dc.FillPreserve()
	dc.SetColor(withOpacity(styles.MustHex(b.Border), b.Opacity))
	dc.SetLineWidth(b.BorderWidth * p.scale)
	dc.Stroke()
}

func (p *PNG) Text(at graph.Point, s string, t render.Text) {
	if s == "" || t.Size <= 0 {
		return
	}
	p.dc.SetFontFace(p.face(t.Size, t.Bold))
	p.dc.SetColor(withOpacity(styles.MustHex(t.Color), t.Opacity))
	ax := 0.5
	switch t.Anchor {
	case render.AnchorStart:
		ax = 0
	case render.AnchorEnd:
		ax = 1
	}
	at = p.px(at)
	p.dc.DrawStringAnchored(s, at.X, at.Y, ax, 0.35)
}

// px converts canvas units to raster pixels.
func (p *PNG) px(pt graph.Point) graph.Point { return pt.Scale(p.scale) }

func (p *PNG) End() error {
	if p.dc == nil {
		return fmt.Errorf("end without begin")
	}
	if err := p.dc.EncodePNG(&p.out); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// face returns a cached font face for a size in canvas units.
func (p *PNG) face(size float64, bold bool) font.Face {
	k := faceKey{math.Round(size*p.scale*4) / 4, bold}
	if f, ok := p.faces[k]; ok {
		return f
	}
	ttf := p.regular
	if bold {
		ttf = p.medium
	}
	f := truetype.NewFace(ttf, &truetype.Options{
		Size:    k.size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	p.faces[k] = f
	return f
}

func withOpacity(c color.NRGBA, o float64) color.NRGBA {
	if o >= 1 || o < 0 {
		return c
	}
	c.A = uint8(math.Round(float64(c.A) * o))
	return c
}
