// Package styles defines the color themes used by every render surface.
//
// A [Theme] maps node kinds and edge kinds to fill and stroke colors and
// carries the chrome colors (background, text, borders) used by the SVG
// document, the PNG raster and the terminal UI. Two themes ship: [Light]
// and [Dark]. Node and edge palettes are shared between them; only the
// chrome differs.
package styles

import (
	"fmt"
	"strings"

	"github.com/matzehuels/flowlens/pkg/graph"
)

// Theme names.
const (
	NameLight = "light"
	NameDark  = "dark"
)

// Shared highlight and fallback colors.
const (
	HighlightColor   = "#FBBF24"
	DefaultNodeColor = "#6B7280"
	DefaultEdgeColor = "#9CA3AF"
	NodeTextColor    = "#FFFFFF"
	NodeSubTextColor = "#FFFFFFB3"
)

// Theme is a named color palette.
type Theme struct {
	Name       string
	Background string
	Text       string
	SubtleText string
	Border     string
	Panel      string

	Nodes map[string]string
	Edges map[string]string
}

var nodeColors = map[string]string{
	graph.NodeEntry:        "#10B981",
	graph.NodeExit:         "#EF4444",
	graph.NodeStatement:    "#3B82F6",
	graph.NodeCondition:    "#F59E0B",
	graph.NodeLoopHeader:   "#8B5CF6",
	graph.NodeFunctionCall: "#EC4899",
	graph.NodeDefinition:   "#10B981",
	graph.NodeUse:          "#3B82F6",
	graph.NodeReturn:       "#EF4444",
	"Module":               "#6366F1",
	"FunctionDef":          "#8B5CF6",
	"Assign":               "#3B82F6",
	"While":                "#F59E0B",
	"For":                  "#F59E0B",
	"If":                   "#F59E0B",
}

var edgeColors = map[string]string{
	graph.EdgeNormal: "#9CA3AF",
	graph.EdgeTrue:   "#10B981",
	graph.EdgeFalse:  "#EF4444",
	graph.EdgeBack:   "#8B5CF6",
	graph.EdgeDefUse: "#3B82F6",
	graph.EdgeChild:  "#6B7280",
}

// Light is the default theme.
var Light = Theme{
	Name:       NameLight,
	Background: "#FFFFFF",
	Text:       "#111827",
	SubtleText: "#6B7280",
	Border:     "#E5E7EB",
	Panel:      "#F9FAFB",
	Nodes:      nodeColors,
	Edges:      edgeColors,
}

// Dark is the dark theme.
var Dark = Theme{
	Name:       NameDark,
	Background: "#111827",
	Text:       "#F3F4F6",
	SubtleText: "#9CA3AF",
	Border:     "#374151",
	Panel:      "#1F2937",
	Nodes:      nodeColors,
	Edges:      edgeColors,
}

// Themes lists the available theme names.
var Themes = []string{NameLight, NameDark}

// ByName returns the theme called name. The empty name selects Light.
func ByName(name string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameLight:
		return Light, nil
	case NameDark:
		return Dark, nil
	}
	return Theme{}, fmt.Errorf("unknown theme %q (want one of %s)", name, strings.Join(Themes, ", "))
}

// NodeColor returns the fill color for a node kind.
func (t Theme) NodeColor(kind string) string {
	if c, ok := t.Nodes[kind]; ok {
		return c
	}
	return DefaultNodeColor
}

// EdgeColor returns the stroke color for an edge kind.
func (t Theme) EdgeColor(kind string) string {
	if c, ok := t.Edges[kind]; ok {
		return c
	}
	return DefaultEdgeColor
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t.Name == NameDark {
		return Light
	}
	return Dark
}
