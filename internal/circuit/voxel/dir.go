package voxel

import "fmt"

// Dir is one of the six axis-aligned unit directions.
type Dir uint8

const (
	North Dir = iota // -Z
	East             // +X
	South            // +Z
	West             // -X
	Up               // +Y
	Down             // -Y
)

var horizontal = [4]Dir{North, East, South, West}

var dirVecs = [6]Pos{
	North: {Z: -1},
	East:  {X: 1},
	South: {Z: 1},
	West:  {X: -1},
	Up:    {Y: 1},
	Down:  {Y: -1},
}

var dirNames = [6]string{"north", "east", "south", "west", "up", "down"}

// Horizontal returns the four horizontal directions in clockwise order,
// starting at North.
func Horizontal() [4]Dir { return horizontal }

func (d Dir) Vec() Pos { return dirVecs[d] }

func (d Dir) IsHorizontal() bool { return d <= West }

func (d Dir) Opposite() Dir {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	default:
		return (d + 2) % 4
	}
}

// Right is the clockwise horizontal neighbour of d seen from above.
func (d Dir) Right() Dir {
	if !d.IsHorizontal() {
		return d
	}
	return (d + 1) % 4
}

func (d Dir) Left() Dir {
	if !d.IsHorizontal() {
		return d
	}
	return (d + 3) % 4
}

func (d Dir) String() string {
	if int(d) < len(dirNames) {
		return dirNames[d]
	}
	return fmt.Sprintf("dir(%d)", d)
}

// DirBetween returns the horizontal direction from a to b when the two are
// horizontal neighbours (Y is ignored).
func DirBetween(a, b Pos) (Dir, bool) {
	dx, dz := b.X-a.X, b.Z-a.Z
	for _, d := range horizontal {
		v := d.Vec()
		if v.X == dx && v.Z == dz {
			return d, true
		}
	}
	return 0, false
}
