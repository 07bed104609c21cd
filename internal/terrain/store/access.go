package store

import (
	"sort"

	"voxelcraft.ai/redstone/internal/circuit/voxel"
	"voxelcraft.ai/redstone/internal/logic/mathx"
)

func chunkCoords(p voxel.Pos) (ChunkKey, int, int, int) {
	k := ChunkKey{
		CX: mathx.FloorDiv(p.X, ChunkSize),
		CY: mathx.FloorDiv(p.Y, ChunkSize),
		CZ: mathx.FloorDiv(p.Z, ChunkSize),
	}
	return k, mathx.Mod(p.X, ChunkSize), mathx.Mod(p.Y, ChunkSize), mathx.Mod(p.Z, ChunkSize)
}

func (s *ChunkStore) Block(p voxel.Pos) voxel.Block {
	k, lx, ly, lz := chunkCoords(p)
	ch, ok := s.Chunks[k]
	if !ok {
		return voxel.Block{}
	}
	return ch.Get(lx, ly, lz)
}

// SetBlock writes b and marks the owning chunk dirty when the voxel changes.
func (s *ChunkStore) SetBlock(p voxel.Pos, b voxel.Block) {
	k, lx, ly, lz := chunkCoords(p)
	ch, ok := s.Chunks[k]
	if !ok {
		if b.IsAir() {
			return
		}
		ch = newChunk(k)
		s.Chunks[k] = ch
	}
	ch.Set(lx, ly, lz, b)
}

func sortKeys(keys []ChunkKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		if keys[i].CY != keys[j].CY {
			return keys[i].CY < keys[j].CY
		}
		return keys[i].CZ < keys[j].CZ
	})
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.Chunks))
	for k := range s.Chunks {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

// DirtyChunkKeys lists chunks changed since the last ClearDirty.
func (s *ChunkStore) DirtyChunkKeys() []ChunkKey {
	var keys []ChunkKey
	for k, ch := range s.Chunks {
		if ch.dirty {
			keys = append(keys, k)
		}
	}
	sortKeys(keys)
	return keys
}

func (s *ChunkStore) ClearDirty() {
	for _, ch := range s.Chunks {
		if ch.dirty {
			_ = ch.Digest()
			ch.dirty = false
		}
	}
}
