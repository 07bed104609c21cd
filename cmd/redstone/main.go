package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"voxelcraft.ai/redstone/internal/catalogs"
	"voxelcraft.ai/redstone/internal/circuit/voxel"
	"voxelcraft.ai/redstone/internal/filters"
	"voxelcraft.ai/redstone/internal/persistence/indexdb"
	"voxelcraft.ai/redstone/internal/persistence/regionfile"
	"voxelcraft.ai/redstone/internal/persistence/runlog"
	"voxelcraft.ai/redstone/internal/terrain/store"
	"voxelcraft.ai/redstone/internal/tuning"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: redstone <analyze|route|inspect|runs|changes> [flags]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	switch os.Args[1] {
	case "analyze", "route":
		filterCmd(os.Args[1], os.Args[2:])
	case "inspect":
		inspectCmd(os.Args[2:])
	case "runs":
		runsCmd(os.Args[2:])
	case "changes":
		changesCmd(os.Args[2:])
	default:
		usage()
	}
}

func filterCmd(name string, args []string) {
	if code := runFilter(name, args); code != 0 {
		os.Exit(code)
	}
}

// runFilter returns the process exit code; deferred closes flush the run
// index and logs before exit.
func runFilter(name string, args []string) int {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	inPath := fs.String("in", "", "region file to read (required)")
	outPath := fs.String("out", "", "region file to write (default: -in)")
	configDir := fs.String("configs", "./configs", "config directory")
	tuningPath := fs.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
	indexPath := fs.String("index", "", "sqlite run index path (default: tuning index_path)")
	runLogDir := fs.String("runlog", "", "run log directory (default: tuning run_log_dir)")
	aabb := fs.String("aabb", "", "sub-region to process: x1,y1,z1:x2,y2,z2 (default: whole file)")
	verbose := fs.Bool("v", false, "print every changed voxel")
	_ = fs.Parse(args)

	if strings.TrimSpace(*inPath) == "" {
		fmt.Fprintln(os.Stderr, "missing -in")
		return 2
	}
	if *outPath == "" {
		*outPath = *inPath
	}

	logger := log.New(os.Stdout, "[redstone] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Printf("load catalogs: %v", err)
		return 1
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		logger.Printf("load tuning: %v", err)
		return 1
	}
	runner, err := filters.New(cats, tune)
	if err != nil {
		logger.Printf("filters: %v", err)
		return 1
	}
	runner.Log = logger

	if p := firstNonEmpty(*indexPath, tune.IndexPath); p != "" {
		idx, err := indexdb.OpenSQLite(p)
		if err != nil {
			logger.Printf("open index: %v", err)
			return 1
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
		runner.Index = idx
	}
	if d := firstNonEmpty(*runLogDir, tune.RunLogDir); d != "" {
		runs := runlog.NewRunLogger(d)
		changes := runlog.NewChangeLogger(d)
		defer runs.Close()
		defer changes.Close()
		runner.Runs, runner.Changes = runs, changes
	}

	rf, err := regionfile.Read(*inPath)
	if err != nil {
		logger.Printf("read region: %v", err)
		return 1
	}
	if err := runner.CheckRegion(rf.Box()); err != nil {
		logger.Printf("read region: %v", err)
		return 1
	}
	st, box, err := regionfile.Load(rf)
	if err != nil {
		logger.Printf("load region: %v", err)
		return 1
	}
	region := box
	if strings.TrimSpace(*aabb) != "" {
		min, max, err := parseAABB(*aabb)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad -aabb:", err)
			return 2
		}
		region = voxel.NewBox(voxel.FromArray(min), voxel.FromArray(max))
	}

	fname, _ := filters.ParseName(name)
	res, err := runner.Run(fname, st, region)
	if err != nil {
		logger.Printf("%s: %v", fname, err)
		return 1
	}
	if *verbose {
		for _, c := range res.Changes {
			fmt.Println(runner.Describe(c))
		}
	}

	outBox := cover(box, res.Changes)
	if err := regionfile.Write(*outPath, regionfile.Capture(st, outBox, rf.Header.Name)); err != nil {
		logger.Printf("write region: %v", err)
		return 1
	}
	fmt.Println(filters.Summary(res))
	return 0
}

// cover grows box to include every changed voxel; markers land one level
// below the processed region.
func cover(box voxel.Box, changes []store.Change) voxel.Box {
	for _, c := range changes {
		box.Min = voxel.Pos{X: min(box.Min.X, c.Pos.X), Y: min(box.Min.Y, c.Pos.Y), Z: min(box.Min.Z, c.Pos.Z)}
		box.Max = voxel.Pos{X: max(box.Max.X, c.Pos.X), Y: max(box.Max.Y, c.Pos.Y), Z: max(box.Max.Z, c.Pos.Z)}
	}
	return box
}

func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	inPath := fs.String("in", "", "region file (required)")
	configDir := fs.String("configs", "./configs", "config directory")
	_ = fs.Parse(args)

	if strings.TrimSpace(*inPath) == "" {
		fmt.Fprintln(os.Stderr, "missing -in")
		os.Exit(2)
	}
	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	rf, err := regionfile.Read(*inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	st, box, err := regionfile.Load(rf)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load:", err)
		os.Exit(1)
	}

	counts := map[string]int{}
	box.Each(func(p voxel.Pos) {
		counts[cats.Materials.Name(st.Block(p).Material)]++
	})
	printJSON(struct {
		Name      string         `json:"name,omitempty"`
		Min       [3]int         `json:"min"`
		Max       [3]int         `json:"max"`
		Volume    int            `json:"volume"`
		Chunks    int            `json:"chunks"`
		Materials map[string]int `json:"materials"`
	}{
		Name:      rf.Header.Name,
		Min:       rf.Min,
		Max:       rf.Max,
		Volume:    box.Volume(),
		Chunks:    len(st.LoadedChunkKeys()),
		Materials: counts,
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func withinAABB(pos [3]int, min, max [3]int) bool {
	return pos[0] >= min[0] && pos[0] <= max[0] &&
		pos[1] >= min[1] && pos[1] <= max[1] &&
		pos[2] >= min[2] && pos[2] <= max[2]
}

func parseAABB(s string) (min, max [3]int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return min, max, fmt.Errorf("expected x1,y1,z1:x2,y2,z2")
	}
	a, err := parseVec3(parts[0])
	if err != nil {
		return min, max, err
	}
	b, err := parseVec3(parts[1])
	if err != nil {
		return min, max, err
	}
	for i := 0; i < 3; i++ {
		if a[i] <= b[i] {
			min[i], max[i] = a[i], b[i]
		} else {
			min[i], max[i] = b[i], a[i]
		}
	}
	return min, max, nil
}

func parseVec3(s string) ([3]int, error) {
	var v [3]int
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("expected x,y,z")
	}
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return v, err
		}
		v[i] = n
	}
	return v, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
