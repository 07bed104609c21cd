package regionfile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"voxelcraft.ai/redstone/internal/circuit/voxel"
	"voxelcraft.ai/redstone/internal/encoding"
	"voxelcraft.ai/redstone/internal/terrain/store"
	"voxelcraft.ai/redstone/schemas"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	Name    string `json:"name,omitempty"`
}

// RegionV1 is a box of voxels. Blocks is the RLE of packed voxels in
// Box.Each order.
type RegionV1 struct {
	Header Header `json:"header"`
	Min    [3]int `json:"min"`
	Max    [3]int `json:"max"`
	Blocks string `json:"blocks"`
}

func (r RegionV1) Box() voxel.Box {
	return voxel.NewBox(voxel.FromArray(r.Min), voxel.FromArray(r.Max))
}

// Capture encodes the voxels of box from s.
func Capture(s voxel.Store, box voxel.Box, name string) RegionV1 {
	return RegionV1{
		Header: Header{Version: Version, Name: name},
		Min:    box.Min.ToArray(),
		Max:    box.Max.ToArray(),
		Blocks: encoding.EncodeRLE(store.Capture(s, box)),
	}
}

// Load decodes r into a fresh chunk store.
func Load(r RegionV1) (*store.ChunkStore, voxel.Box, error) {
	box := r.Box()
	if box.Min != voxel.FromArray(r.Min) {
		return nil, box, fmt.Errorf("region: min %v is above max %v", r.Min, r.Max)
	}
	ids, err := encoding.DecodeRLE(r.Blocks, box.Volume())
	if err != nil {
		return nil, box, fmt.Errorf("region blocks: %w", err)
	}
	cs := store.NewChunkStore()
	if err := store.Fill(cs, box, ids); err != nil {
		return nil, box, err
	}
	cs.ClearDirty()
	return cs, box, nil
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func regionSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		raw, err := schemas.FS.ReadFile("region.schema.json")
		if err != nil {
			schemaErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("region.schema.json", bytes.NewReader(raw)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile("region.schema.json")
	})
	return schema, schemaErr
}

// Decode validates raw against the region schema and decodes it.
func Decode(raw []byte) (RegionV1, error) {
	var r RegionV1
	s, err := regionSchema()
	if err != nil {
		return r, fmt.Errorf("region schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return r, fmt.Errorf("region json: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return r, fmt.Errorf("region invalid: %w", err)
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return r, fmt.Errorf("region json: %w", err)
	}
	return r, nil
}

func Write(path string, r RegionV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := Encode(f, r); err != nil {
		return err
	}
	return f.Close()
}

// Encode writes the zstd stream: a JSON header line, then the body.
func Encode(w io.Writer, r RegionV1) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(r.Header)
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(&r); err != nil {
		enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func Read(path string) (RegionV1, error) {
	f, err := os.Open(path)
	if err != nil {
		return RegionV1{}, err
	}
	defer f.Close()
	return ReadFrom(f)
}

func ReadFrom(rd io.Reader) (RegionV1, error) {
	var r RegionV1
	dec, err := zstd.NewReader(rd)
	if err != nil {
		return r, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	hl, err := br.ReadBytes('\n')
	if err != nil {
		return r, fmt.Errorf("region header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(hl, &h); err != nil {
		return r, fmt.Errorf("region header: %w", err)
	}
	if h.Version != Version {
		return r, fmt.Errorf("region header: unsupported version %d", h.Version)
	}
	body, err := io.ReadAll(br)
	if err != nil {
		return r, err
	}
	return Decode(body)
}
