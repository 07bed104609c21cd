package connectivity

import (
	"math/rand"
	"testing"

	"voxelcraft.ai/redstone/internal/circuit/voxel"
	"voxelcraft.ai/redstone/internal/circuit/voxeltest"
)

type unionFind map[voxel.Pos]voxel.Pos

func (u unionFind) find(p voxel.Pos) voxel.Pos {
	for u[p] != p {
		u[p] = u[u[p]]
		p = u[p]
	}
	return p
}

func (u unionFind) union(a, b voxel.Pos) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u[ra] = rb
	}
}

func TestAnalyze_MatchesBruteForceClosure(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	region := voxel.NewBox(voxel.P(0, 0, 0), voxel.P(4, 2, 4))
	for round := 0; round < 25; round++ {
		s := randomGrid(rng, region)

		var conductive []voxel.Pos
		uf := unionFind{}
		region.Each(func(p voxel.Pos) {
			if s.Block(p).IsConductive() {
				conductive = append(conductive, p)
				uf[p] = p
			}
		})
		for _, a := range conductive {
			for _, b := range conductive {
				if Connected(s, a, b, testTransparent) {
					uf.union(a, b)
				}
			}
		}

		nets := Analyze(s, region, testTransparent)
		if len(nets.ByPos) != len(conductive) || len(nets.Order) != len(conductive) {
			t.Fatalf("round %d: analyzed %d positions, want %d", round, len(nets.ByPos), len(conductive))
		}
		for _, a := range conductive {
			for _, b := range conductive {
				same := nets.ByPos[a] == nets.ByPos[b]
				want := uf.find(a) == uf.find(b)
				if same != want {
					t.Fatalf("round %d: %+v/%+v same network=%v want %v", round, a, b, same, want)
				}
			}
		}
	}
}

func TestAnalyze_IdsFollowScanOrder(t *testing.T) {
	s := voxeltest.NewMapStore()
	// Two separate runs along Z, the one at x=0 is found first.
	for z := 0; z < 3; z++ {
		s.Put(voxel.P(0, 1, z), voxel.B(voxel.Wire, 0))
		s.Put(voxel.P(2, 1, z), voxel.B(voxel.Wire, 0))
	}
	s.Put(voxel.P(2, 1, 5), voxel.B(voxel.Wire, 0))

	region := voxel.NewBox(voxel.P(0, 0, 0), voxel.P(3, 2, 5))
	nets := Analyze(s, region, testTransparent)
	if nets.Count != 3 {
		t.Fatalf("networks: got %d want 3", nets.Count)
	}
	if id, _ := nets.Group(voxel.P(0, 1, 2)); id != 0 {
		t.Fatalf("x=0 run: got id %d want 0", id)
	}
	if id, _ := nets.Group(voxel.P(2, 1, 0)); id != 1 {
		t.Fatalf("x=2 run: got id %d want 1", id)
	}
	if id, _ := nets.Group(voxel.P(2, 1, 5)); id != 2 {
		t.Fatalf("isolated wire: got id %d want 2", id)
	}
	if got := len(nets.Members(1)); got != 3 {
		t.Fatalf("members of 1: got %d want 3", got)
	}
}

func TestAnalyze_IgnoresOutsideRegion(t *testing.T) {
	s := voxeltest.NewMapStore()
	for x := 0; x < 6; x++ {
		s.Put(voxel.P(x, 1, 0), voxel.B(voxel.Wire, 0))
	}
	region := voxel.NewBox(voxel.P(0, 1, 0), voxel.P(2, 1, 0))
	nets := Analyze(s, region, testTransparent)
	if nets.Count != 1 || len(nets.ByPos) != 3 {
		t.Fatalf("got count=%d size=%d want 1/3", nets.Count, len(nets.ByPos))
	}
}

func TestRecolor_SkipsListedMaterials(t *testing.T) {
	s := voxeltest.NewMapStore()
	s.Put(voxel.P(0, 1, 0), voxel.B(voxel.Wire, 0))
	s.Put(voxel.P(1, 1, 0), voxel.B(voxel.Wire, 0))
	s.Put(voxel.P(0, 0, 0), voxel.B(voxel.Stone, 0))
	s.Put(voxel.P(1, 0, 0), voxel.B(voxel.Glass, 0))
	s.Put(voxel.P(5, 1, 5), voxel.B(voxel.Wire, 0))
	s.Put(voxel.P(5, 0, 5), voxel.B(voxel.Stone, 0))

	region := voxel.NewBox(voxel.P(0, 0, 0), voxel.P(5, 1, 5))
	res := AnalyzeConnectivity(s, region, Options{
		Transparent: testTransparent,
		SkipBeneath: voxel.NewMaterialSet(voxel.Glass),
	})
	if res.Networks.Count != 2 || res.Painted != 2 || res.Skipped != 1 {
		t.Fatalf("got networks=%d painted=%d skipped=%d", res.Networks.Count, res.Painted, res.Skipped)
	}
	if got := s.Block(voxel.P(1, 0, 0)); got != voxel.B(voxel.Glass, 0) {
		t.Fatalf("skipped position was modified: %+v", got)
	}
	if got := s.Block(voxel.P(0, 0, 0)); got != voxel.B(voxel.Wool, 0) {
		t.Fatalf("first network marker: got %+v", got)
	}
	if got := s.Block(voxel.P(5, 0, 5)); got != voxel.B(voxel.Wool, 1) {
		t.Fatalf("second network marker: got %+v", got)
	}
	for _, w := range s.Writes {
		if w.Pos == voxel.P(1, 0, 0) {
			t.Fatalf("unexpected write to skipped position")
		}
	}
}

func TestRecolor_GroupWrapsModulo16(t *testing.T) {
	s := voxeltest.NewMapStore()
	for i := 0; i < 18; i++ {
		s.Put(voxel.P(i*2, 1, 0), voxel.B(voxel.Wire, 0))
	}
	region := voxel.NewBox(voxel.P(0, 0, 0), voxel.P(40, 1, 0))
	res := AnalyzeConnectivity(s, region, Options{Transparent: testTransparent})
	if res.Networks.Count != 18 {
		t.Fatalf("networks: got %d want 18", res.Networks.Count)
	}
	if got := s.Block(voxel.P(34, 0, 0)); got != voxel.B(voxel.Wool, 1) {
		t.Fatalf("group 17 marker: got %+v want data 1", got)
	}
}

func TestAnalyzeConnectivity_FillSeesOnlyOriginalMaterial(t *testing.T) {
	build := func() *voxeltest.MapStore {
		s := voxeltest.NewMapStore()
		s.Put(voxel.P(0, 2, 0), voxel.B(voxel.Wire, 0))
		s.Put(voxel.P(1, 1, 0), voxel.B(voxel.Wire, 0))
		s.Put(voxel.P(1, 2, 0), voxel.B(voxel.Stone, 0))
		return s
	}
	region := voxel.NewBox(voxel.P(0, 0, 0), voxel.P(1, 2, 0))

	want := Analyze(build(), region, testTransparent)

	// A painter that writes conductive material would merge networks if the
	// fill ran interleaved with painting.
	s := build()
	res := AnalyzeConnectivity(s, region, Options{
		Transparent: testTransparent,
		Paint: func(s voxel.Store, beneath voxel.Pos, group int) {
			s.SetBlock(beneath, voxel.B(voxel.Wire, 0))
		},
	})
	if res.Networks.Count != want.Count {
		t.Fatalf("networks: got %d want %d", res.Networks.Count, want.Count)
	}
}
