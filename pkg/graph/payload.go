package graph

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Payload is the raw graph description produced by the analysis service.
//
// The service may return the payload directly or wrapped as {"graph": {...}};
// both shapes decode into the same Payload. Edges is frequently omitted, in
// which case per-node Successors lists describe the structure instead.
type Payload struct {
	Nodes []RawNode `json:"nodes"`
	Edges []RawEdge `json:"edges,omitempty"`
	Entry *ID       `json:"entry,omitempty"`
	Exits []ID      `json:"exits,omitempty"`
}

// RawNode is a node as sent over the wire.
type RawNode struct {
	ID         ID     `json:"id"`
	Type       string `json:"type"`
	Label      string `json:"label"`
	Line       *ID    `json:"line,omitempty"`
	Successors []ID   `json:"successors,omitempty"`
}

// RawEdge is an edge as sent over the wire.
type RawEdge struct {
	Source ID     `json:"source"`
	Target ID     `json:"target"`
	Type   string `json:"type,omitempty"`
	Label  string `json:"label,omitempty"`
}

// UnmarshalJSON decodes a payload, unwrapping an optional "graph" envelope.
func (p *Payload) UnmarshalJSON(data []byte) error {
	type plain Payload

	var env struct {
		Graph json.RawMessage `json:"graph"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if len(env.Graph) > 0 && !bytes.Equal(bytes.TrimSpace(env.Graph), []byte("null")) {
		data = env.Graph
	}

	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*p = Payload(out)
	return nil
}

// ID is a node id that tolerates the loose typing of upstream producers.
// Integral numbers and numeric strings decode to a valid id; anything else
// decodes without error but leaves Valid false so the normalizer can drop it.
type ID struct {
	Value int
	Valid bool
}

// IntID returns a valid ID.
func IntID(v int) ID { return ID{Value: v, Valid: true} }

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	*id = ID{}
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return nil
		}
		s = strings.TrimSpace(unq)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	// float64(math.MaxInt) rounds up to 2^63, which int cannot hold.
	if f >= float64(math.MaxInt) || f < float64(math.MinInt) {
		return nil
	}
	*id = IntID(int(f))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	if !id.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(id.Value)), nil
}
