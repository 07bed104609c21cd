package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"voxelcraft.ai/redstone/internal/catalogs"
	"voxelcraft.ai/redstone/internal/filters"
	"voxelcraft.ai/redstone/internal/persistence/indexdb"
	"voxelcraft.ai/redstone/internal/persistence/runlog"
	"voxelcraft.ai/redstone/internal/protocol"
	"voxelcraft.ai/redstone/internal/transport/ws"
	"voxelcraft.ai/redstone/internal/tuning"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the run index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	runner, err := filters.New(cats, tune)
	if err != nil {
		logger.Fatalf("filters: %v", err)
	}
	runner.Log = logger

	idx, err := openRuntimeIndex(*dataDir, tune, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
		runner.Index = idx
	}

	logDir := tune.RunLogDir
	if logDir == "" {
		logDir = filepath.Join(*dataDir, "logs")
	}
	runLog := runlog.NewRunLogger(logDir)
	changeLog := runlog.NewChangeLogger(logDir)
	defer runLog.Close()
	defer changeLog.Close()
	runner.Runs, runner.Changes = runLog, changeLog

	tb, _ := json.Marshal(tune)
	sum := sha256.Sum256(tb)
	welcome := protocol.WelcomeMsg{
		Catalogs: protocol.CatalogDigests{
			Materials:    protocol.DigestRef{Digest: cats.Materials.DefsDigest, Count: len(cats.Materials.Names)},
			TuningDigest: hex.EncodeToString(sum[:]),
		},
	}
	wsSrv, err := ws.NewServer(runner, welcome, logger)
	if err != nil {
		logger.Fatalf("ws: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	mux := newMux(muxDeps{
		ws:          wsSrv.Handler(),
		index:       idx,
		enableAdmin: envBool("VC_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()),
		enablePprof: envBool("VC_ENABLE_PPROF_HTTP", false),
		logger:      logger,
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

type muxDeps struct {
	ws          http.HandlerFunc
	index       runtimeIndex
	enableAdmin bool
	enablePprof bool
	logger      *log.Logger
}

func newMux(d muxDeps) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		if d.index == nil {
			return
		}
		st := d.index.Stats()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP redstone_index_queue_depth Run index queue backlog.\n")
		fmt.Fprintf(rw, "# TYPE redstone_index_queue_depth gauge\n")
		fmt.Fprintf(rw, "redstone_index_queue_depth %d\n", st.QueueDepth)

		fmt.Fprintf(rw, "# HELP redstone_index_dropped_total Runs dropped because the index queue was full.\n")
		fmt.Fprintf(rw, "# TYPE redstone_index_dropped_total counter\n")
		fmt.Fprintf(rw, "redstone_index_dropped_total %d\n", st.DropRunTotal)

		fmt.Fprintf(rw, "# HELP redstone_index_write_errors_total Failed run index writes.\n")
		fmt.Fprintf(rw, "# TYPE redstone_index_write_errors_total counter\n")
		fmt.Fprintf(rw, "redstone_index_write_errors_total %d\n", st.WriteErrTotal)
	})

	if d.enableAdmin {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/runs", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			if d.index == nil {
				http.Error(rw, "index disabled", http.StatusNotFound)
				return
			}
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			runs, err := d.index.Runs(ctx, limit)
			rw.Header().Set("Content-Type", "application/json")
			if err != nil {
				rw.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "error": err.Error()})
				return
			}
			if runs == nil {
				runs = []indexdb.Run{}
			}
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "runs": runs})
		})
	} else if d.logger != nil {
		d.logger.Printf("admin endpoints disabled (VC_ENABLE_ADMIN_HTTP=false)")
	}
	if d.enablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	if d.ws != nil {
		mux.HandleFunc("/v1/ws", d.ws)
	}
	return mux
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
