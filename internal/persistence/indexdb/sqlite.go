package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"voxelcraft.ai/redstone/internal/catalogs"
	"voxelcraft.ai/redstone/internal/tuning"
)

// Run is one filter invocation.
type Run struct {
	ID            int64     `json:"id,omitempty"`
	Filter        string    `json:"filter"`
	Min           [3]int    `json:"min"`
	Max           [3]int    `json:"max"`
	Networks      int       `json:"networks"`
	ColorsRouted  int       `json:"colors_routed"`
	ColorsPartial int       `json:"colors_partial"`
	Changed       int       `json:"changed"`
	Error         string    `json:"error,omitempty"`
	RecordedAt    time.Time `json:"recorded_at"`
}

type Stats struct {
	QueueDepth    int
	QueueCapacity int
	DropRunTotal  uint64
	WriteErrTotal uint64
}

type SQLiteIndex struct {
	db *sql.DB

	ch   chan Run
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropRun  atomic.Uint64
	writeErr atomic.Uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan Run, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-only runs table.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filter TEXT NOT NULL,
			region_json TEXT NOT NULL,
			networks INTEGER NOT NULL,
			colors_routed INTEGER NOT NULL,
			colors_partial INTEGER NOT NULL,
			changed INTEGER NOT NULL,
			error TEXT,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_filter ON runs(filter, id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DropRunTotal:  s.dropRun.Load(),
		WriteErrTotal: s.writeErr.Load(),
	}
}

// RecordRun queues r for the writer goroutine. Runs are dropped when the
// queue is full; the run log stays the source of truth.
func (s *SQLiteIndex) RecordRun(r Run) {
	if s == nil || s.closed.Load() {
		return
	}
	if r.RecordedAt.IsZero() {
		r.RecordedAt = time.Now().UTC()
	}
	select {
	case s.ch <- r:
	default:
		s.dropRun.Add(1)
	}
}

// Runs returns up to limit runs, newest first.
func (s *SQLiteIndex) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,filter,region_json,networks,colors_routed,colors_partial,changed,COALESCE(error,''),recorded_at
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r      Run
			region string
			at     string
		)
		if err := rows.Scan(&r.ID, &r.Filter, &region, &r.Networks, &r.ColorsRouted, &r.ColorsPartial, &r.Changed, &r.Error, &at); err != nil {
			return nil, err
		}
		var box [2][3]int
		if err := json.Unmarshal([]byte(region), &box); err != nil {
			return nil, fmt.Errorf("run %d region: %w", r.ID, err)
		}
		r.Min, r.Max = box[0], box[1]
		if r.RecordedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("run %d recorded_at: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertCatalogs stores the material defs and the tuning in effect so runs
// can be traced back to their configuration.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if configDir != "" {
		if b, err := os.ReadFile(filepath.Join(configDir, "blocks.json")); err == nil {
			rows = append(rows, kv{name: "blocks_defs", digest: cats.Materials.DefsDigest, json: b})
		}
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertRun, _ := s.db.Prepare(`INSERT INTO runs(filter,region_json,networks,colors_routed,colors_partial,changed,error,recorded_at) VALUES(?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertRun != nil {
			_ = insertRun.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 256
		commitMaxWait = 500 * time.Millisecond
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.writeErr.Add(1)
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil || insertRun == nil {
			s.writeErr.Add(1)
			continue
		}
		region, _ := json.Marshal([2][3]int{r.Min, r.Max})
		var errText any
		if r.Error != "" {
			errText = r.Error
		}
		if _, err := tx.Stmt(insertRun).Exec(
			r.Filter,
			string(region),
			r.Networks,
			r.ColorsRouted,
			r.ColorsPartial,
			r.Changed,
			errText,
			r.RecordedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			s.writeErr.Add(1)
			rollback()
			continue
		}
		opCount++
		// Commit as soon as the queue drains so readers see finished runs.
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(s.ch) == 0 {
			commit()
		}
	}

	commit()
}
