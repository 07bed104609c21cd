package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"voxelcraft.ai/redstone/internal/persistence/indexdb"
	"voxelcraft.ai/redstone/internal/tuning"
)

func TestOpenRuntimeIndex_Backends(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("VC_INDEX_BACKEND", "off")
	if idx, err := openRuntimeIndex(dir, tuning.Defaults(), false); err != nil || idx != nil {
		t.Fatalf("off backend: idx=%v err=%v", idx, err)
	}
	t.Setenv("VC_INDEX_BACKEND", "d1")
	if _, err := openRuntimeIndex(dir, tuning.Defaults(), false); err == nil {
		t.Fatalf("expected unsupported backend error")
	}
	t.Setenv("VC_INDEX_BACKEND", "")
	if idx, err := openRuntimeIndex(dir, tuning.Defaults(), true); err != nil || idx != nil {
		t.Fatalf("disabled: idx=%v err=%v", idx, err)
	}
	idx, err := openRuntimeIndex(dir, tuning.Defaults(), false)
	if err != nil || idx == nil {
		t.Fatalf("sqlite backend: err=%v", err)
	}
	_ = idx.Close()
}

func TestMux_AdminRunsAndMetrics(t *testing.T) {
	idx, err := openRuntimeIndex(t.TempDir(), tuning.Defaults(), false)
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer idx.Close()
	idx.RecordRun(indexdb.Run{Filter: "ROUTE", ColorsRouted: 3})

	mux := newMux(muxDeps{index: idx, enableAdmin: true})

	// The writer goroutine commits asynchronously.
	var body struct {
		OK   bool          `json:"ok"`
		Runs []indexdb.Run `json:"runs"`
	}
	deadline := time.Now().Add(3 * time.Second)
	for {
		req := httptest.NewRequest(http.MethodGet, "/admin/v1/runs?limit=5", nil)
		req.RemoteAddr = "127.0.0.1:5555"
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.Runs) == 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !body.OK || len(body.Runs) != 1 || body.Runs[0].ColorsRouted != 3 {
		t.Fatalf("unexpected runs: %+v", body)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/runs", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("remote admin access: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "redstone_index_dropped_total 0") {
		t.Fatalf("metrics: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Body.String() != "ok" {
		t.Fatalf("healthz: %q", rec.Body.String())
	}
}

func TestMux_AdminDisabled(t *testing.T) {
	mux := newMux(muxDeps{})
	req := httptest.NewRequest(http.MethodGet, "/admin/v1/runs", nil)
	req.RemoteAddr = "127.0.0.1:1"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d want 404", rec.Code)
	}
}
