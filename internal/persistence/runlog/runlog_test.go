package runlog

import (
	"os"
	"testing"
)

func TestRunLogger_WritesReadableStream(t *testing.T) {
	l := NewRunLogger(t.TempDir())
	if l.Path() != "" {
		t.Fatalf("path before first write: %q", l.Path())
	}
	dead := [3]int{4, 1, 0}
	entries := []Entry{
		{Filter: "ANALYZE", Max: [3]int{9, 3, 9}, Networks: 3, Painted: 20, Changed: 20},
		{Filter: "ROUTE", Colors: []ColorEntry{{Color: 14, Name: "red", Reached: 1, DeadEnd: &dead}}, Changed: 6},
	}
	for _, e := range entries {
		if err := l.WriteRun(e); err != nil {
			t.Fatalf("WriteRun: %v", err)
		}
	}
	path := l.Path()
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	got, err := ReadEntries[Entry](f)
	if err != nil {
		t.Fatalf("ReadEntries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries want 2", len(got))
	}
	if got[0].Networks != 3 || got[0].Filter != "ANALYZE" {
		t.Fatalf("entry 0: %+v", got[0])
	}
	c := got[1].Colors
	if len(c) != 1 || c[0].DeadEnd == nil || *c[0].DeadEnd != dead || c[0].Complete {
		t.Fatalf("entry 1 colors: %+v", c)
	}
}

func TestChangeLogger_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		l := NewChangeLogger(dir)
		if err := l.WriteChange(ChangeEntry{Filter: "ROUTE", Pos: [3]int{i, 0, 0}, To: 55 << 4}); err != nil {
			t.Fatalf("WriteChange: %v", err)
		}
		if err := l.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	l := NewChangeLogger(dir)
	_ = l.WriteChange(ChangeEntry{Filter: "ROUTE", Pos: [3]int{2, 0, 0}})
	path := l.Path()
	_ = l.Close()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	got, err := ReadEntries[ChangeEntry](f)
	if err != nil {
		t.Fatalf("ReadEntries: %v", err)
	}
	// Concatenated zstd frames decode as one stream.
	if len(got) != 3 || got[0].Pos[0] != 0 || got[2].Pos[0] != 2 {
		t.Fatalf("unexpected entries: %+v", got)
	}
}
