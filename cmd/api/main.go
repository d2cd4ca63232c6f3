package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"daynav/internal/api"
	"daynav/internal/buildinfo"
	"daynav/internal/config"
	"daynav/internal/logging"
	"daynav/internal/metrics"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New("api", cfg.Log.Level, cfg.Log.Format)
	metrics.RegisterDefault()

	srv, err := api.NewServer(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init server")
	}

	var handler http.Handler = srv.Routes()
	handler = api.WithRateLimit(handler, cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)
	handler = api.WithObservability(handler, log)

	worker := srv.NewWebhookWorker()
	worker.Start()

	addr := ":" + cfg.Port
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().Str("addr", addr).Str("version", buildinfo.Version).Msg("api listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server error")
	}
}
