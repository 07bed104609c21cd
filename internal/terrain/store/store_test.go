package store

import (
	"testing"

	"voxelcraft.ai/redstone/internal/circuit/voxel"
)

func TestChunkStore_ReadWriteAcrossChunks(t *testing.T) {
	s := NewChunkStore()
	pts := []voxel.Pos{
		voxel.P(0, 0, 0),
		voxel.P(15, 15, 15),
		voxel.P(16, 0, 0),
		voxel.P(-1, -1, -1),
		voxel.P(-17, 40, 3),
	}
	for i, p := range pts {
		s.SetBlock(p, voxel.B(voxel.Wool, uint8(i)))
	}
	for i, p := range pts {
		if got := s.Block(p); got != voxel.B(voxel.Wool, uint8(i)) {
			t.Fatalf("block at %+v: got %+v", p, got)
		}
	}
	if got := s.Block(voxel.P(1, 0, 0)); !got.IsAir() {
		t.Fatalf("expected air, got %+v", got)
	}
	if got := len(s.LoadedChunkKeys()); got != 4 {
		t.Fatalf("loaded chunks: got %d want 4", got)
	}
}

func TestChunkStore_AirWriteDoesNotLoadChunk(t *testing.T) {
	s := NewChunkStore()
	s.SetBlock(voxel.P(100, 0, 100), voxel.Block{})
	if len(s.Chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(s.Chunks))
	}
}

func TestChunkStore_DirtyTracking(t *testing.T) {
	s := NewChunkStore()
	s.SetBlock(voxel.P(1, 2, 3), voxel.B(voxel.Wire, 0))
	s.SetBlock(voxel.P(20, 2, 3), voxel.B(voxel.Wire, 0))
	if got := s.DirtyChunkKeys(); len(got) != 2 {
		t.Fatalf("dirty chunks: got %v", got)
	}

	s.ClearDirty()
	before := s.Chunks[ChunkKey{}].Digest()
	s.SetBlock(voxel.P(1, 2, 3), voxel.B(voxel.Wire, 0))
	if got := s.DirtyChunkKeys(); len(got) != 0 {
		t.Fatalf("rewriting the same block should not dirty: %v", got)
	}

	s.SetBlock(voxel.P(1, 2, 3), voxel.B(voxel.Repeater, 2))
	got := s.DirtyChunkKeys()
	if len(got) != 1 || got[0] != (ChunkKey{}) {
		t.Fatalf("dirty chunks: got %v", got)
	}
	if s.Chunks[ChunkKey{}].Digest() == before {
		t.Fatalf("digest should change after a write")
	}
}

func TestCaptureFillDiff(t *testing.T) {
	src := NewChunkStore()
	box := voxel.NewBox(voxel.P(-2, 0, -2), voxel.P(2, 2, 2))
	src.SetBlock(voxel.P(0, 1, 0), voxel.B(voxel.Wire, 0))
	src.SetBlock(voxel.P(0, 0, 0), voxel.B(voxel.Wool, 14))
	src.SetBlock(voxel.P(-2, 2, 2), voxel.B(voxel.Repeater, 3))

	packed := Capture(src, box)
	if len(packed) != box.Volume() {
		t.Fatalf("captured %d voxels want %d", len(packed), box.Volume())
	}

	dst := NewChunkStore()
	if err := Fill(dst, box, packed); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if changes := Diff(dst, box, packed); len(changes) != 0 {
		t.Fatalf("expected identical copy, got %+v", changes)
	}

	dst.SetBlock(voxel.P(1, 1, 0), voxel.B(voxel.Wire, 0))
	changes := Diff(dst, box, packed)
	if len(changes) != 1 || changes[0].Pos != voxel.P(1, 1, 0) || !changes[0].From.IsAir() {
		t.Fatalf("unexpected diff: %+v", changes)
	}

	if err := Fill(dst, box, packed[:3]); err == nil {
		t.Fatalf("expected length mismatch error")
	}
}
