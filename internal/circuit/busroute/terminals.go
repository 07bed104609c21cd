package busroute

import (
	"errors"
	"fmt"

	"voxelcraft.ai/redstone/internal/circuit/voxel"
)

const numColors = 16

type Role uint8

const (
	RoleStart Role = iota
	RoleEnd
)

func (r Role) String() string {
	if r == RoleStart {
		return "start"
	}
	return "end"
}

var ErrDuplicateTerminal = errors.New("duplicate terminal")

type DuplicateTerminalError struct {
	Color  uint8
	Role   Role
	First  voxel.Pos
	Second voxel.Pos
}

func (e *DuplicateTerminalError) Error() string {
	return fmt.Sprintf("color %d (%s): duplicate %s terminal at %v (first at %v)",
		e.Color, voxel.ColorName(e.Color), e.Role, e.Second.ToArray(), e.First.ToArray())
}

func (e *DuplicateTerminalError) Unwrap() error { return ErrDuplicateTerminal }

// Terminal is the wire end of a wire/repeater pair resting on wool of one
// color. A repeater feeding the wire marks the start of a bus; a repeater
// fed by the wire marks its end.
type Terminal struct {
	Color    uint8
	Role     Role
	Pos      voxel.Pos
	Repeater voxel.Pos
}

type terminalSet struct {
	start [numColors]*Terminal
	end   [numColors]*Terminal
	// claimed holds the marker positions under terminal pairs, per color.
	claimed [numColors]map[voxel.Pos]bool
}

func (ts *terminalSet) add(t Terminal) error {
	slot := &ts.start[t.Color]
	if t.Role == RoleEnd {
		slot = &ts.end[t.Color]
	}
	if *slot != nil {
		return &DuplicateTerminalError{Color: t.Color, Role: t.Role, First: (*slot).Pos, Second: t.Pos}
	}
	*slot = &t
	if ts.claimed[t.Color] == nil {
		ts.claimed[t.Color] = map[voxel.Pos]bool{}
	}
	ts.claimed[t.Color][t.Pos.Down()] = true
	ts.claimed[t.Color][t.Repeater.Down()] = true
	return nil
}

func markerColor(s voxel.Store, p voxel.Pos) (uint8, bool) {
	b := s.Block(p.Down())
	if !b.IsWool() {
		return 0, false
	}
	return b.Data & voxel.MaxData, true
}

// discoverTerminals scans wires inside region for terminal pairs. The paired
// repeater may sit just outside the region.
func discoverTerminals(s voxel.Store, region voxel.Box) (*terminalSet, error) {
	ts := &terminalSet{}
	var err error
	region.Each(func(w voxel.Pos) {
		if err != nil || !s.Block(w).IsWire() {
			return
		}
		color, ok := markerColor(s, w)
		if !ok {
			return
		}
		for _, d := range voxel.Horizontal() {
			r := w.Step(d)
			rb := s.Block(r)
			if !rb.IsRepeater() {
				continue
			}
			if rc, ok := markerColor(s, r); !ok || rc != color {
				continue
			}
			facing := voxel.RepeaterOrientation(rb.Data)
			if !voxel.AlignedWith(facing, r, w) {
				continue
			}
			role := RoleEnd
			if voxel.PointsTowards(r, facing, w) {
				role = RoleStart
			}
			if err = ts.add(Terminal{Color: color, Role: role, Pos: w, Repeater: r}); err != nil {
				return
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return ts, nil
}
