package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// LevelUnplaced marks a position that received no BFS level and was placed
// in the overflow grid below the layered area.
const LevelUnplaced = -1

// Position is the computed center of one node.
type Position struct {
	ID    int     `json:"id" bson:"id"`
	X     float64 `json:"x" bson:"x"`
	Y     float64 `json:"y" bson:"y"`
	Level int     `json:"level" bson:"level"`
}

// Layout is the serializable result of a layout pass. Positions are stored in
// layout order: level by level (ascending id within a level), then the
// overflow grid.
type Layout struct {
	Width     float64    `json:"width" bson:"width"`
	Height    float64    `json:"height" bson:"height"`
	Levels    int        `json:"levels" bson:"levels"`
	Positions []Position `json:"positions" bson:"positions"`
}

// Order returns node ids in layout order.
func (l Layout) Order() []int {
	ids := make([]int, len(l.Positions))
	for i, p := range l.Positions {
		ids[i] = p.ID
	}
	return ids
}

// Lookup returns the position for node id.
func (l Layout) Lookup(id int) (Position, bool) {
	for _, p := range l.Positions {
		if p.ID == id {
			return p, true
		}
	}
	return Position{}, false
}

// Apply returns a copy of g with node positions and bounds taken from l.
// Nodes without a position are left unplaced; g itself is not modified.
func (l Layout) Apply(g Graph) Graph {
	out := g.Clone()
	pos := make(map[int]Position, len(l.Positions))
	for _, p := range l.Positions {
		pos[p.ID] = p
	}
	for i := range out.Nodes {
		if p, ok := pos[out.Nodes[i].ID]; ok {
			out.Nodes[i].X, out.Nodes[i].Y, out.Nodes[i].Placed = p.X, p.Y, true
		}
	}
	out.Width, out.Height = l.Width, l.Height
	return out
}

// MarshalLayout serializes a layout to indented JSON.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes a layout from JSON.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if len(l.Positions) > 0 && (l.Width <= 0 || l.Height <= 0) {
		return Layout{}, fmt.Errorf("layout with positions must have a positive size")
	}
	return l, nil
}

// WriteLayoutFile writes a layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
