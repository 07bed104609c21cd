package store

import (
	"crypto/sha256"
	"encoding/binary"

	"voxelcraft.ai/redstone/internal/circuit/voxel"
)

const ChunkSize = 16

type ChunkKey struct {
	CX int
	CY int
	CZ int
}

type Chunk struct {
	Key    ChunkKey
	Blocks []uint16 // len = 16*16*16, voxel.Block.Packed values

	dirty bool
	hash  [32]byte
}

func newChunk(k ChunkKey) *Chunk {
	return &Chunk{Key: k, Blocks: make([]uint16, ChunkSize*ChunkSize*ChunkSize)}
}

func (c *Chunk) index(x, y, z int) int {
	return x + z*ChunkSize + y*ChunkSize*ChunkSize
}

func (c *Chunk) Get(x, y, z int) voxel.Block {
	return voxel.Unpack(c.Blocks[c.index(x, y, z)])
}

func (c *Chunk) Set(x, y, z int, b voxel.Block) {
	i := c.index(x, y, z)
	v := b.Packed()
	if c.Blocks[i] == v {
		return
	}
	c.Blocks[i] = v
	c.dirty = true
}

func (c *Chunk) Dirty() bool { return c.dirty }

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		for _, v := range c.Blocks {
			binary.LittleEndian.PutUint16(tmp[:], v)
			h.Write(tmp[:])
		}
		copy(c.hash[:], h.Sum(nil))
	}
	return c.hash
}

// ChunkStore is a sparse voxel world made of 16^3 chunks. Chunks that were
// never written read as air.
type ChunkStore struct {
	Chunks map[ChunkKey]*Chunk
}

func NewChunkStore() *ChunkStore {
	return &ChunkStore{Chunks: map[ChunkKey]*Chunk{}}
}
