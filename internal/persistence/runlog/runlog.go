package runlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Entry is one filter invocation.
type Entry struct {
	Time     time.Time `json:"time"`
	Filter   string    `json:"filter"`
	Min      [3]int    `json:"min"`
	Max      [3]int    `json:"max"`
	Networks int       `json:"networks,omitempty"`
	Painted  int       `json:"painted,omitempty"`
	Skipped  int       `json:"skipped,omitempty"`

	Colors   []ColorEntry `json:"colors,omitempty"`
	Unpaired []uint8      `json:"unpaired,omitempty"`

	Changed int    `json:"changed"`
	Error   string `json:"error,omitempty"`
}

type ColorEntry struct {
	Color     uint8   `json:"color"`
	Name      string  `json:"name"`
	Guides    int     `json:"guides"`
	Reached   int     `json:"reached"`
	Placed    int     `json:"placed"`
	Repeaters int     `json:"repeaters"`
	Complete  bool    `json:"complete"`
	DeadEnd   *[3]int `json:"dead_end,omitempty"`
}

// ChangeEntry records one voxel rewritten by a filter.
type ChangeEntry struct {
	Time   time.Time `json:"time"`
	Filter string    `json:"filter"`
	Pos    [3]int    `json:"pos"`
	From   uint16    `json:"from"`
	To     uint16    `json:"to"`
}

type JSONLZstdWriter struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

// Path reports the file currently written to, empty before the first Write.
func (w *JSONLZstdWriter) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.curHour == "" {
		return ""
	}
	return w.pathForHour(w.curHour)
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// RunLogger writes one JSONL entry per filter run (compressed).
type RunLogger struct{ w *JSONLZstdWriter }

func NewRunLogger(dir string) *RunLogger {
	return &RunLogger{w: NewJSONLZstdWriter(filepath.Join(dir, "runs"), "runs")}
}

func (l *RunLogger) WriteRun(e Entry) error { return l.w.Write(e) }
func (l *RunLogger) Path() string           { return l.w.Path() }
func (l *RunLogger) Close() error           { return l.w.Close() }

// ChangeLogger writes one JSONL entry per rewritten voxel (compressed).
type ChangeLogger struct{ w *JSONLZstdWriter }

func NewChangeLogger(dir string) *ChangeLogger {
	return &ChangeLogger{w: NewJSONLZstdWriter(filepath.Join(dir, "changes"), "changes")}
}

func (l *ChangeLogger) WriteChange(e ChangeEntry) error { return l.w.Write(e) }
func (l *ChangeLogger) Path() string                    { return l.w.Path() }
func (l *ChangeLogger) Close() error                    { return l.w.Close() }

// ReadEntries decodes a JSONL zstd stream.
func ReadEntries[T any](r io.Reader) ([]T, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []T
	jd := json.NewDecoder(dec)
	for {
		var v T
		if err := jd.Decode(&v); err == io.EOF {
			return out, nil
		} else if err != nil {
			return out, err
		}
		out = append(out, v)
	}
}
