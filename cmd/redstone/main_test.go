package main

import (
	"os"
	"path/filepath"
	"testing"

	"voxelcraft.ai/redstone/internal/circuit/voxel"
	"voxelcraft.ai/redstone/internal/persistence/regionfile"
	"voxelcraft.ai/redstone/internal/terrain/store"
)

func TestParseAABB_Normalizes(t *testing.T) {
	min, max, err := parseAABB("5, 2, -1:0,0,3")
	if err != nil {
		t.Fatalf("parseAABB: %v", err)
	}
	if min != [3]int{0, 0, -1} || max != [3]int{5, 2, 3} {
		t.Fatalf("got %v %v", min, max)
	}
	for _, bad := range []string{"", "1,2,3", "1,2:3,4,5", "a,b,c:1,2,3"} {
		if _, _, err := parseAABB(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestCover_GrowsToChanges(t *testing.T) {
	box := voxel.NewBox(voxel.P(0, 1, 0), voxel.P(4, 2, 4))
	got := cover(box, []store.Change{{Pos: voxel.P(2, 0, 2)}, {Pos: voxel.P(1, 1, 1)}})
	if got != voxel.NewBox(voxel.P(0, 0, 0), voxel.P(4, 2, 4)) {
		t.Fatalf("got %v", got)
	}
}

func TestRunFilter_RouteRewritesRegionFile(t *testing.T) {
	dir := t.TempDir()
	s := store.NewChunkStore()
	s.SetBlock(voxel.P(0, 1, 0), voxel.B(voxel.Repeater, voxel.RepeaterData(voxel.East)))
	s.SetBlock(voxel.P(0, 0, 0), voxel.B(voxel.Wool, 9))
	s.SetBlock(voxel.P(1, 1, 0), voxel.B(voxel.Wire, 0))
	s.SetBlock(voxel.P(1, 0, 0), voxel.B(voxel.Wool, 9))
	s.SetBlock(voxel.P(6, 1, 0), voxel.B(voxel.Wire, 0))
	s.SetBlock(voxel.P(6, 0, 0), voxel.B(voxel.Wool, 9))
	s.SetBlock(voxel.P(7, 1, 0), voxel.B(voxel.Repeater, voxel.RepeaterData(voxel.East)))
	s.SetBlock(voxel.P(7, 0, 0), voxel.B(voxel.Wool, 9))

	in := filepath.Join(dir, "in.rgn.zst")
	out := filepath.Join(dir, "out.rgn.zst")
	if err := regionfile.Write(in, regionfile.Capture(s, voxel.NewBox(voxel.P(0, 0, 0), voxel.P(7, 1, 0)), "cyan")); err != nil {
		t.Fatalf("write: %v", err)
	}

	code := runFilter("route", []string{
		"-in", in,
		"-out", out,
		"-configs", "../../configs",
		"-runlog", filepath.Join(dir, "logs"),
		"-index", filepath.Join(dir, "index.db"),
		"-aabb", "0,1,0:7,1,0",
	})
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}

	rf, err := regionfile.Read(out)
	if err != nil {
		t.Fatalf("read out: %v", err)
	}
	got, _, err := regionfile.Load(rf)
	if err != nil {
		t.Fatalf("load out: %v", err)
	}
	for x := 2; x <= 5; x++ {
		if !got.Block(voxel.P(x, 1, 0)).IsWire() || got.Block(voxel.P(x, 0, 0)) != voxel.B(voxel.Wool, 9) {
			t.Fatalf("x=%d: bus not built", x)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "index.db")); err != nil {
		t.Fatalf("index not created: %v", err)
	}
	logs, _ := filepath.Glob(filepath.Join(dir, "logs", "runs", "runs-*.jsonl.zst"))
	if len(logs) != 1 {
		t.Fatalf("run logs: %v", logs)
	}
}

func TestRunFilter_ConfigErrorExitsOne(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.rgn.zst")
	if err := regionfile.Write(in, regionfile.Capture(store.NewChunkStore(), voxel.NewBox(voxel.P(0, 0, 0), voxel.P(1, 1, 1)), "")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if code := runFilter("analyze", []string{"-in", in, "-configs", filepath.Join(dir, "missing")}); code != 1 {
		t.Fatalf("exit code %d want 1", code)
	}
	if code := runFilter("analyze", []string{"-configs", "../../configs"}); code != 2 {
		t.Fatalf("exit code %d want 2", code)
	}
}
