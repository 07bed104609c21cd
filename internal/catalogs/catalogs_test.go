package catalogs

import (
	"errors"
	"testing"

	"voxelcraft.ai/redstone/internal/circuit/voxel"
)

func TestLoad_ShippedConfigs(t *testing.T) {
	cats, err := Load("../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	m := cats.Materials
	if m.Defs["REDSTONE_WIRE"].Material != voxel.Wire || m.Defs["REPEATER"].Material != voxel.Repeater {
		t.Fatalf("shipped ids drifted from voxel constants")
	}
	if m.Defs["WOOL"].Material != voxel.Wool {
		t.Fatalf("wool id drifted")
	}
	tr := m.Transparent()
	if !tr.Has(voxel.Air) || !tr.Has(voxel.Glass) || tr.Has(voxel.Stone) {
		t.Fatalf("unexpected transparent set: %v", tr)
	}
	if m.DefsDigest == "" || len(m.Names) != len(m.Defs) {
		t.Fatalf("catalog metadata incomplete")
	}
}

func TestSet_ResolvesNamesCaseInsensitively(t *testing.T) {
	cats, err := Load("../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	s, err := cats.Materials.Set([]string{"glass", " STONE "})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !s.Has(voxel.Glass) || !s.Has(voxel.Stone) || len(s) != 2 {
		t.Fatalf("unexpected set: %v", s)
	}
	if _, err := cats.Materials.Set([]string{"UNOBTAINIUM"}); !errors.Is(err, ErrUnknownMaterial) {
		t.Fatalf("expected ErrUnknownMaterial, got %v", err)
	}
}

func TestParseMaterials_Rejects(t *testing.T) {
	cases := map[string]string{
		"missing air":  `[{"id":"STONE","material":1}]`,
		"air not zero": `[{"id":"AIR","material":3}]`,
		"empty id":     `[{"id":"AIR","material":0},{"id":"","material":1}]`,
		"shared id":    `[{"id":"AIR","material":0},{"id":"A","material":1},{"id":"B","material":1}]`,
		"too large":    `[{"id":"AIR","material":0},{"id":"BIG","material":5000}]`,
		"not json":     `{`,
	}
	for name, raw := range cases {
		var m MaterialCatalog
		if err := parseMaterials([]byte(raw), &m); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
