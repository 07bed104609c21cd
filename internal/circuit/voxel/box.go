package voxel

import "fmt"

// Box is an inclusive axis-aligned region of voxels.
type Box struct {
	Min Pos
	Max Pos
}

// NewBox normalizes two corners into a Box.
func NewBox(a, b Pos) Box {
	return Box{
		Min: Pos{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)},
		Max: Pos{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)},
	}
}

func (b Box) Contains(p Pos) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Expand grows the box by n voxels on every side.
func (b Box) Expand(n int) Box {
	d := Pos{X: n, Y: n, Z: n}
	return Box{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}

func (b Box) Size() Pos {
	return Pos{X: b.Max.X - b.Min.X + 1, Y: b.Max.Y - b.Min.Y + 1, Z: b.Max.Z - b.Min.Z + 1}
}

func (b Box) Volume() int {
	s := b.Size()
	if s.X <= 0 || s.Y <= 0 || s.Z <= 0 {
		return 0
	}
	return s.X * s.Y * s.Z
}

// Each visits every position with x outer, y middle, z inner.
func (b Box) Each(fn func(p Pos)) {
	for x := b.Min.X; x <= b.Max.X; x++ {
		for y := b.Min.Y; y <= b.Max.Y; y++ {
			for z := b.Min.Z; z <= b.Max.Z; z++ {
				fn(Pos{X: x, Y: y, Z: z})
			}
		}
	}
}

func (b Box) String() string {
	return fmt.Sprintf("[%d,%d,%d..%d,%d,%d]", b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}
