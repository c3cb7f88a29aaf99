package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"parley/internal/devserver"
)

type serverConfig struct {
	addr     string
	secret   string
	tokenTTL time.Duration
}

func parseFlags() serverConfig {
	cfg := serverConfig{}
	flag.StringVar(&cfg.addr, "addr", envOr("PARLEYD_ADDR", ":5000"), "Listen address")
	flag.StringVar(&cfg.secret, "secret", envOr("PARLEYD_SECRET", ""), "Token signing secret (empty: built-in dev secret)")
	flag.DurationVar(&cfg.tokenTTL, "token-ttl", 24*time.Hour, "Issued token lifetime")
	flag.Parse()
	return cfg
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func main() {
	cfg := parseFlags()
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	srv := devserver.New(devserver.Config{
		Secret:   []byte(cfg.secret),
		TokenTTL: cfg.tokenTTL,
		Logger:   log,
	})

	// the client's base URL includes the /api prefix
	root := mux.NewRouter()
	root.PathPrefix("/api").Handler(http.StripPrefix("/api", srv.Router()))

	log.Info("parleyd listening", "addr", cfg.addr)
	if err := http.ListenAndServe(cfg.addr, root); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
