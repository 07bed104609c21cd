package voxel

import "voxelcraft.ai/redstone/internal/logic/mathx"

type Pos struct {
	X int
	Y int
	Z int
}

func P(x, y, z int) Pos { return Pos{X: x, Y: y, Z: z} }

func (p Pos) ToArray() [3]int { return [3]int{p.X, p.Y, p.Z} }

func FromArray(a [3]int) Pos { return Pos{X: a[0], Y: a[1], Z: a[2]} }

func (p Pos) Add(d Pos) Pos { return Pos{X: p.X + d.X, Y: p.Y + d.Y, Z: p.Z + d.Z} }

func (p Pos) Sub(d Pos) Pos { return Pos{X: p.X - d.X, Y: p.Y - d.Y, Z: p.Z - d.Z} }

func (p Pos) Step(d Dir) Pos { return p.Add(d.Vec()) }

func (p Pos) Up() Pos { return Pos{X: p.X, Y: p.Y + 1, Z: p.Z} }

func (p Pos) Down() Pos { return Pos{X: p.X, Y: p.Y - 1, Z: p.Z} }

// Less orders positions in region scan order (x, then y, then z).
func (p Pos) Less(o Pos) bool {
	if p.X != o.X {
		return p.X < o.X
	}
	if p.Y != o.Y {
		return p.Y < o.Y
	}
	return p.Z < o.Z
}

func Manhattan(a, b Pos) int {
	return mathx.AbsInt(a.X-b.X) + mathx.AbsInt(a.Y-b.Y) + mathx.AbsInt(a.Z-b.Z)
}

// HorizontalNeighbor reports whether a and b differ by exactly one step on
// the X or Z axis, ignoring Y.
func HorizontalNeighbor(a, b Pos) bool {
	return mathx.AbsInt(a.X-b.X)+mathx.AbsInt(a.Z-b.Z) == 1
}
