package connectivity

import "voxelcraft.ai/redstone/internal/circuit/voxel"

type kind uint8

const (
	kindNone kind = iota
	kindWire
	kindRepeater
)

func kindOf(b voxel.Block) kind {
	switch {
	case b.IsWire():
		return kindWire
	case b.IsRepeater():
		return kindRepeater
	}
	return kindNone
}

type element struct {
	pos    voxel.Pos
	kind   kind
	facing voxel.Dir
}

func elementAt(s voxel.Store, p voxel.Pos) element {
	b := s.Block(p)
	e := element{pos: p, kind: kindOf(b)}
	if e.kind == kindRepeater {
		e.facing = voxel.RepeaterOrientation(b.Data)
	}
	return e
}

// Connected reports whether signal can pass between the conductive voxels
// at a and b. Only horizontal neighbours on the same level or one level
// apart can connect; transparent lists the materials a wire signal can
// drop through when stepping down.
func Connected(s voxel.Store, a, b voxel.Pos, transparent voxel.MaterialSet) bool {
	if !voxel.HorizontalNeighbor(a, b) {
		return false
	}
	ea, eb := elementAt(s, a), elementAt(s, b)
	if ea.kind == kindNone || eb.kind == kindNone {
		return false
	}
	switch b.Y - a.Y {
	case 0:
		return sameLevel(ea, eb) || sameLevel(eb, ea)
	case -1:
		return stepDown(s, ea, eb, transparent)
	case 1:
		return stepDown(s, eb, ea, transparent)
	}
	return false
}

func sameLevel(a, b element) bool {
	switch {
	case a.kind == kindWire && b.kind == kindWire:
		return true
	case a.kind == kindWire && b.kind == kindRepeater:
		return voxel.AlignedWith(b.facing, b.pos, a.pos)
	case a.kind == kindRepeater && b.kind == kindWire:
		return voxel.AlignedWith(a.facing, a.pos, b.pos)
	case a.kind == kindRepeater && b.kind == kindRepeater:
		// Head to tail: a feeds b and b takes its input from a.
		return voxel.PointsTowards(a.pos, a.facing, b.pos) && voxel.PointsAwayFrom(b.pos, b.facing, a.pos)
	}
	return false
}

// stepDown handles hi sitting one level above lo.
func stepDown(s voxel.Store, hi, lo element, transparent voxel.MaterialSet) bool {
	above := s.Block(lo.pos.Up()).Material
	switch {
	case hi.kind == kindWire && lo.kind == kindWire:
		return transparent.Has(above)
	case hi.kind == kindRepeater && lo.kind == kindWire:
		return voxel.PointsTowards(hi.pos, hi.facing, lo.pos) && !transparent.Has(above)
	}
	return false
}
