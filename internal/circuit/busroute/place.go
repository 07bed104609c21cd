package busroute

import (
	"voxelcraft.ai/redstone/internal/circuit/voxel"
	"voxelcraft.ai/redstone/internal/logic/mathx"
)

// Step describes one placement attempt while walking a segment.
type Step struct {
	From  voxel.Pos // current end of the bus
	Prev  voxel.Pos // cell the walk reached From from; equal to From on the first step
	To    voxel.Pos // segment destination
	Final voxel.Pos // end terminal of the bus

	Heading voxel.Dir

	// Pending holds guide cells the walk has yet to reach.
	Pending map[voxel.Pos]bool

	AfterTerminal   bool
	AfterRepeater   bool
	PlacingRepeater bool
}

// Candidates lists the 12 offsets tried from cur towards to, most direct
// first. Horizontal preference is primary, secondary, the mirror of the
// secondary, then reverse; each is tried on the levels ordered by where
// the target sits.
func Candidates(cur, to voxel.Pos, heading voxel.Dir) [12]voxel.Pos {
	primary, secondary := steerDirs(cur, to, heading)
	levels := [3]int{0, 1, -1}
	switch mathx.Sign(to.Y - cur.Y) {
	case 1:
		levels = [3]int{1, 0, -1}
	case -1:
		levels = [3]int{-1, 0, 1}
	}

	var out [12]voxel.Pos
	i := 0
	for _, h := range [4]voxel.Dir{primary, secondary, secondary.Opposite(), primary.Opposite()} {
		for _, dy := range levels {
			out[i] = cur.Step(h).Add(voxel.Pos{Y: dy})
			i++
		}
	}
	return out
}

// steerDirs picks the primary horizontal direction along the axis with the
// larger remaining distance (X wins ties) and the secondary direction on
// the other axis. With nothing left on an axis the heading, or its right
// hand side, stands in.
func steerDirs(cur, to voxel.Pos, heading voxel.Dir) (primary, secondary voxel.Dir) {
	dx, dz := to.X-cur.X, to.Z-cur.Z
	xDir, zDir := voxel.East, voxel.South
	if dx < 0 {
		xDir = voxel.West
	}
	if dz < 0 {
		zDir = voxel.North
	}

	switch {
	case dx != 0 && mathx.AbsInt(dx) >= mathx.AbsInt(dz):
		primary = xDir
		if dz == 0 {
			return primary, primary.Right()
		}
		return primary, zDir
	case dz != 0:
		primary = zDir
		if dx == 0 {
			return primary, primary.Right()
		}
		return primary, xDir
	}
	if !heading.IsHorizontal() {
		heading = voxel.East
	}
	return heading, heading.Right()
}

// CanPlace reports whether the bus may extend into cand. Checks run in a
// fixed order; the destination is accepted before the emptiness checks so a
// bus can land on its guide or terminal.
func CanPlace(s voxel.Store, region voxel.Box, cand voxel.Pos, st Step) bool {
	up := cand.Y > st.From.Y
	down := cand.Y < st.From.Y

	if up && (st.AfterTerminal || st.AfterRepeater) {
		return false
	}
	// Stricter than only refusing to climb out of a repeater: a repeater is
	// never placed on a slope, and the cell after one continues straight.
	if st.PlacingRepeater && (up || down) {
		return false
	}
	if st.AfterRepeater {
		if down {
			return false
		}
		if d, ok := voxel.DirBetween(st.From, cand); !ok || d != st.Heading {
			return false
		}
	}
	if up && s.Block(cand.Down()).IsWire() {
		return false
	}
	// A wire only climbs with nothing on top of it.
	if up && !s.Block(st.From.Up()).IsAir() {
		return false
	}
	if down && !s.Block(cand.Up()).IsAir() {
		return false
	}
	if cand == st.Final.Down() || cand.Down() == st.To || st.Pending[cand.Down()] {
		return false
	}
	if cand == st.To {
		return true
	}
	if st.Pending[cand] {
		return false
	}
	if !s.Block(cand).IsAir() || !s.Block(cand.Down()).IsAir() {
		return false
	}
	// The marker under cand must not cap a wire.
	if s.Block(cand.Down().Down()).IsConductive() {
		return false
	}
	if !region.Contains(cand) {
		return false
	}

	except := [6]voxel.Pos{st.From, st.From.Down(), st.Prev, st.Prev.Down(), st.To, st.To.Down()}
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			if dx == 0 && dz == 0 {
				continue
			}
			n := voxel.Pos{X: cand.X + dx, Y: cand.Y, Z: cand.Z + dz}
			if isException(n, except) {
				continue
			}
			if !s.Block(n).IsAir() {
				return false
			}
		}
	}
	return true
}

func isException(p voxel.Pos, except [6]voxel.Pos) bool {
	for _, e := range except {
		if p == e {
			return true
		}
	}
	return false
}
