package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"voxelcraft.ai/redstone/internal/catalogs"
	"voxelcraft.ai/redstone/internal/persistence/indexdb"
	"voxelcraft.ai/redstone/internal/tuning"
)

type runtimeIndex interface {
	RecordRun(indexdb.Run)
	Runs(ctx context.Context, limit int) ([]indexdb.Run, error)
	Stats() indexdb.Stats
	UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error
	Close() error
}

func openRuntimeIndex(dataDir string, tune tuning.Tuning, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("VC_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := tune.IndexPath
		if dbPath == "" {
			dbPath = filepath.Join(dataDir, "index", "runs.sqlite")
		}
		idx, err := indexdb.OpenSQLite(dbPath)
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported VC_INDEX_BACKEND: %s", backend)
	}
}
