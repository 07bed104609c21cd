package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"voxelcraft.ai/redstone/internal/persistence/indexdb"
	"voxelcraft.ai/redstone/internal/persistence/runlog"
)

func runsCmd(args []string) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	dbPath := fs.String("db", "", "sqlite run index path (required)")
	limit := fs.Int("limit", 20, "result limit")
	filter := fs.String("filter", "", "only runs of this filter (ANALYZE|ROUTE)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*dbPath) == "" {
		fmt.Fprintln(os.Stderr, "missing -db")
		os.Exit(2)
	}
	if _, err := os.Stat(*dbPath); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	idx, err := indexdb.OpenSQLite(*dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer idx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	runs, err := idx.Runs(ctx, *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	want := strings.ToUpper(strings.TrimSpace(*filter))
	for _, r := range runs {
		if want != "" && r.Filter != want {
			continue
		}
		printJSON(r)
	}
}

func changesCmd(args []string) {
	fs := flag.NewFlagSet("changes", flag.ExitOnError)
	path := fs.String("file", "", "change log file, changes-*.jsonl.zst (required)")
	aabb := fs.String("aabb", "", "only changes inside x1,y1,z1:x2,y2,z2")
	_ = fs.Parse(args)

	if strings.TrimSpace(*path) == "" {
		fmt.Fprintln(os.Stderr, "missing -file")
		os.Exit(2)
	}
	var (
		min, max [3]int
		clip     bool
	)
	if strings.TrimSpace(*aabb) != "" {
		var err error
		if min, max, err = parseAABB(*aabb); err != nil {
			fmt.Fprintln(os.Stderr, "bad -aabb:", err)
			os.Exit(2)
		}
		clip = true
	}

	f, err := os.Open(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer f.Close()
	entries, err := runlog.ReadEntries[runlog.ChangeEntry](f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		if clip && !withinAABB(e.Pos, min, max) {
			continue
		}
		printJSON(e)
	}
}
