// Package voxeltest provides an in-memory voxel store for circuit tests.
package voxeltest

import (
	"sort"

	"voxelcraft.ai/redstone/internal/circuit/voxel"
)

type Write struct {
	Pos   voxel.Pos
	Block voxel.Block
}

// MapStore keeps every non-air voxel in a map and records writes in order.
type MapStore struct {
	Blocks map[voxel.Pos]voxel.Block
	Writes []Write
}

func NewMapStore() *MapStore {
	return &MapStore{Blocks: map[voxel.Pos]voxel.Block{}}
}

func (s *MapStore) Block(p voxel.Pos) voxel.Block {
	return s.Blocks[p]
}

func (s *MapStore) SetBlock(p voxel.Pos, b voxel.Block) {
	s.Writes = append(s.Writes, Write{Pos: p, Block: b})
	if b.IsAir() {
		delete(s.Blocks, p)
		return
	}
	s.Blocks[p] = b
}

// Put sets a block without recording a write (fixture setup).
func (s *MapStore) Put(p voxel.Pos, b voxel.Block) {
	if b.IsAir() {
		delete(s.Blocks, p)
		return
	}
	s.Blocks[p] = b
}

// Fill sets every position of box to b without recording writes.
func (s *MapStore) Fill(box voxel.Box, b voxel.Block) {
	box.Each(func(p voxel.Pos) { s.Put(p, b) })
}

// Positions returns every non-air position holding material m in scan order.
func (s *MapStore) Positions(m uint16) []voxel.Pos {
	var out []voxel.Pos
	for p, b := range s.Blocks {
		if b.Material == m {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func (s *MapStore) Clone() *MapStore {
	c := NewMapStore()
	for p, b := range s.Blocks {
		c.Blocks[p] = b
	}
	return c
}
