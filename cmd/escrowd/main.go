package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"escrowcore/config"
	"escrowcore/core"
	"escrowcore/observability/logging"
	"escrowcore/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(err)
	}

	logger := logging.Setup("escrowd", cfg.Environment, cfg.LogPath)

	var db storage.Database
	if strings.TrimSpace(cfg.DataDir) != "" {
		ldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			logger.Error("failed to open database", "error", err, "dataDir", cfg.DataDir)
			os.Exit(1)
		}
		db = ldb
	} else {
		db = storage.NewMemDB()
	}
	defer db.Close()

	node := core.NewNode(db, logger)

	// The settlement core has no network transport of its own; the daemon
	// exposes the node for in-process embedding plus a metrics and health
	// listener.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			if node.Engine() == nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
		if err := http.ListenAndServe(cfg.MetricsAddress, mux); err != nil {
			logger.Error("metrics listener stopped", "error", err)
		}
	}()

	logger.Info("escrowd started", "network", cfg.NetworkName, "metrics", cfg.MetricsAddress)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("escrowd shutting down")
}
