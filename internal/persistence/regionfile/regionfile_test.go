package regionfile

import (
	"path/filepath"
	"strings"
	"testing"

	"voxelcraft.ai/redstone/internal/circuit/voxel"
	"voxelcraft.ai/redstone/internal/terrain/store"
)

func sampleStore() (*store.ChunkStore, voxel.Box) {
	s := store.NewChunkStore()
	box := voxel.NewBox(voxel.P(-2, 0, -2), voxel.P(17, 3, 1))
	for x := -2; x <= 17; x++ {
		s.SetBlock(voxel.P(x, 0, 0), voxel.B(voxel.Stone, 0))
		s.SetBlock(voxel.P(x, 1, 0), voxel.B(voxel.Wire, 0))
	}
	s.SetBlock(voxel.P(3, 1, 0), voxel.B(voxel.Repeater, 1))
	s.SetBlock(voxel.P(4, 0, 1), voxel.B(voxel.Wool, 14))
	return s, box
}

func TestWriteRead_RoundTrip(t *testing.T) {
	s, box := sampleStore()
	path := filepath.Join(t.TempDir(), "bus.rgn.zst")

	if err := Write(path, Capture(s, box, "bus")); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if r.Header.Name != "bus" || r.Box() != box {
		t.Fatalf("unexpected header/box: %+v %v", r.Header, r.Box())
	}

	got, gotBox, err := Load(r)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if gotBox != box {
		t.Fatalf("box: got %v want %v", gotBox, box)
	}
	box.Each(func(p voxel.Pos) {
		if got.Block(p) != s.Block(p) {
			t.Fatalf("block %v: got %+v want %+v", p, got.Block(p), s.Block(p))
		}
	})
	if len(got.DirtyChunkKeys()) != 0 {
		t.Fatalf("loaded store should start clean")
	}
}

func TestDecode_SchemaRejects(t *testing.T) {
	cases := map[string]string{
		"missing blocks": `{"header":{"version":1},"min":[0,0,0],"max":[1,1,1]}`,
		"short pos":      `{"header":{"version":1},"min":[0,0],"max":[1,1,1],"blocks":""}`,
		"bad version":    `{"header":{"version":2},"min":[0,0,0],"max":[1,1,1],"blocks":""}`,
		"float pos":      `{"header":{"version":1},"min":[0.5,0,0],"max":[1,1,1],"blocks":""}`,
	}
	for name, raw := range cases {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Fatalf("%s: expected schema error", name)
		}
	}
	if _, err := Decode([]byte(`{"header":{"version":1},"min":[0,0,0],"max":[1,1,1],"blocks":""}`)); err != nil {
		t.Fatalf("valid region rejected: %v", err)
	}
}

func TestLoad_RejectsShortOrInvertedRegions(t *testing.T) {
	s, box := sampleStore()
	r := Capture(s, box, "")
	r.Max = [3]int{box.Max.X + 1, box.Max.Y, box.Max.Z}
	if _, _, err := Load(r); err == nil || !strings.Contains(err.Error(), "mismatch") {
		t.Fatalf("expected length mismatch, got %v", err)
	}

	r = Capture(s, box, "")
	r.Min, r.Max = r.Max, r.Min
	if _, _, err := Load(r); err == nil {
		t.Fatalf("expected inverted region to fail")
	}
}
