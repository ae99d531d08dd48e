package viewport

import (
	"math"
	"testing"

	"github.com/matzehuels/flowlens/pkg/graph"
)

const eps = 1e-9

func nearPoint(a, b graph.Point) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps
}

func TestZoomAtKeepsAnchor(t *testing.T) {
	pointers := []graph.Point{{X: 0, Y: 0}, {X: 123, Y: 45}, {X: 800, Y: 600}, {X: -20, Y: 310}}
	zooms := []float64{0.05, 0.2, 0.7, 1.3, 2, 5}

	for _, p := range pointers {
		for _, z := range zooms {
			v := New(800, 600)
			v.Zoom = 0.9
			v.Pan = graph.Point{X: 37, Y: -12}

			before := v.ToGraph(p)
			v.ZoomAt(p, z)
			after := v.ToGraph(p)

			if !nearPoint(before, after) {
				t.Errorf("ZoomAt(%v, %v): anchor moved from %v to %v", p, z, before, after)
			}
			if v.Zoom < MinZoom || v.Zoom > MaxZoom {
				t.Errorf("zoom %v escaped [%v, %v]", v.Zoom, MinZoom, MaxZoom)
			}
		}
	}
}

func TestWheel(t *testing.T) {
	v := New(800, 600)
	v.Wheel(graph.Point{X: 10, Y: 10}, 5, 20, false)
	if v.Zoom != 1 || v.Pan != (graph.Point{X: -5, Y: -20}) {
		t.Errorf("plain scroll: zoom=%v pan=%v, want zoom 1 pan (-5,-20)", v.Zoom, v.Pan)
	}

	v.Reset()
	p := graph.Point{X: 400, Y: 300}
	before := v.ToGraph(p)
	v.Wheel(p, 0, -100, true)
	if math.Abs(v.Zoom-1.1) > eps {
		t.Errorf("modified scroll zoom = %v, want 1.1", v.Zoom)
	}
	if !nearPoint(before, v.ToGraph(p)) {
		t.Error("modified scroll must zoom around the pointer")
	}
}

func TestPanGesture(t *testing.T) {
	v := New(800, 600)

	if v.Press(graph.Point{X: 10, Y: 10}, true, ButtonPrimary) {
		t.Error("press on a node must not start a pan")
	}
	if v.Press(graph.Point{X: 10, Y: 10}, false, ButtonSecondary) {
		t.Error("secondary button must not start a pan")
	}
	v.Move(graph.Point{X: 50, Y: 50})
	if v.Pan != (graph.Point{}) {
		t.Error("move without a pan gesture must be a no-op")
	}

	if !v.Press(graph.Point{X: 10, Y: 10}, false, ButtonPrimary) {
		t.Fatal("press off-node should start a pan")
	}
	v.Move(graph.Point{X: 30, Y: 5})
	v.Move(graph.Point{X: 40, Y: 15})
	if v.Pan != (graph.Point{X: 30, Y: 5}) {
		t.Errorf("pan = %v, want (30,5)", v.Pan)
	}

	v.Leave()
	if v.Panning() {
		t.Error("leave must end the gesture")
	}
	v.Move(graph.Point{X: 100, Y: 100})
	if v.Pan != (graph.Point{X: 30, Y: 5}) {
		t.Error("move after leave must not pan")
	}

	v.Press(graph.Point{}, false, ButtonPrimary)
	v.Release()
	if v.Panning() {
		t.Error("release must end the gesture")
	}
}

func TestFitContainsNodes(t *testing.T) {
	tests := []struct {
		name string
		size graph.Point
		rect graph.Rect
	}{
		{"Small", graph.Point{X: 800, Y: 600}, graph.Rect{Min: graph.Point{X: 80, Y: 80}, Max: graph.Point{X: 200, Y: 120}}},
		{"Wide", graph.Point{X: 800, Y: 600}, graph.Rect{Min: graph.Point{X: 80, Y: 80}, Max: graph.Point{X: 2000, Y: 400}}},
		{"Tall", graph.Point{X: 1024, Y: 400}, graph.Rect{Min: graph.Point{X: 0, Y: -100}, Max: graph.Point{X: 300, Y: 1500}}},
		{"Point", graph.Point{X: 640, Y: 480}, graph.Rect{Min: graph.Point{X: 5, Y: 5}, Max: graph.Point{X: 5, Y: 5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(tt.size.X, tt.size.Y)
			v.Fit(tt.rect)

			screen := graph.Rect{Max: tt.size}.Expand(-FitMargin + 1e-6)
			s := v.ScreenRect(tt.rect)
			if !screen.Contains(s.Min) || !screen.Contains(s.Max) {
				t.Errorf("fitted rect %+v escapes viewport %+v (zoom %v)", s, screen, v.Zoom)
			}
			c := s.Center()
			if math.Abs(c.X-tt.size.X/2) > 1e-6 || math.Abs(c.Y-tt.size.Y/2) > 1e-6 {
				t.Errorf("fitted rect not centered: center %v", c)
			}
		})
	}
}

func TestFitClampsZoom(t *testing.T) {
	v := New(800, 600)
	v.Fit(graph.Rect{Max: graph.Point{X: 10, Y: 10}})
	if v.Zoom != MaxZoom {
		t.Errorf("zoom = %v, want %v", v.Zoom, MaxZoom)
	}
	v.Fit(graph.Rect{Max: graph.Point{X: 100000, Y: 10}})
	if v.Zoom != MinZoom {
		t.Errorf("zoom = %v, want %v", v.Zoom, MinZoom)
	}
}

func TestZoomButtonsAndReset(t *testing.T) {
	v := New(800, 600)
	center := v.ToGraph(graph.Point{X: 400, Y: 300})
	v.ZoomIn()
	if math.Abs(v.Zoom-1.1) > eps {
		t.Errorf("ZoomIn zoom = %v, want 1.1", v.Zoom)
	}
	if !nearPoint(center, v.ToGraph(graph.Point{X: 400, Y: 300})) {
		t.Error("zoom buttons must anchor at the viewport center")
	}
	for i := 0; i < 30; i++ {
		v.ZoomOut()
	}
	if v.Zoom != MinZoom {
		t.Errorf("zoom = %v, want clamp at %v", v.Zoom, MinZoom)
	}

	v.PanBy(10, 10)
	v.Reset()
	if v.Zoom != 1 || v.Pan != (graph.Point{}) {
		t.Errorf("Reset: zoom=%v pan=%v", v.Zoom, v.Pan)
	}
}

func TestCenterOnAndEnsureVisible(t *testing.T) {
	v := New(800, 600)
	v.Zoom = 2
	v.CenterOn(graph.Point{X: 100, Y: 50})
	if got := v.ToScreen(graph.Point{X: 100, Y: 50}); !nearPoint(got, graph.Point{X: 400, Y: 300}) {
		t.Errorf("CenterOn: point lands at %v", got)
	}

	v.Reset()
	r := graph.Rect{Min: graph.Point{X: 900, Y: 10}, Max: graph.Point{X: 1020, Y: 50}}
	v.EnsureVisible(r, 20)
	s := v.ScreenRect(r)
	if s.Max.X > 780+eps || s.Min.Y < 20-eps {
		t.Errorf("EnsureVisible left rect at %+v", s)
	}

	pan := v.Pan
	v.EnsureVisible(r, 20)
	if v.Pan != pan {
		t.Error("EnsureVisible must not move an already visible rect")
	}
}
