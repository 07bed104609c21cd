package store

import (
	"fmt"

	"voxelcraft.ai/redstone/internal/circuit/voxel"
)

// Capture copies the packed voxels of box in box.Each order.
func Capture(s voxel.Store, box voxel.Box) []uint16 {
	out := make([]uint16, 0, box.Volume())
	box.Each(func(p voxel.Pos) {
		out = append(out, s.Block(p).Packed())
	})
	return out
}

// Fill writes packed voxels captured from box back into s.
func Fill(s voxel.Store, box voxel.Box, packed []uint16) error {
	if len(packed) != box.Volume() {
		return fmt.Errorf("region blocks length mismatch: got %d want %d", len(packed), box.Volume())
	}
	i := 0
	box.Each(func(p voxel.Pos) {
		s.SetBlock(p, voxel.Unpack(packed[i]))
		i++
	})
	return nil
}

type Change struct {
	Pos  voxel.Pos
	From voxel.Block
	To   voxel.Block
}

// Diff compares a capture of box taken earlier with the current contents of s.
func Diff(s voxel.Store, box voxel.Box, before []uint16) []Change {
	var out []Change
	i := 0
	box.Each(func(p voxel.Pos) {
		if i >= len(before) {
			return
		}
		was := voxel.Unpack(before[i])
		i++
		if now := s.Block(p); now != was {
			out = append(out, Change{Pos: p, From: was, To: now})
		}
	})
	return out
}
