package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"parley/internal/api"
	"parley/internal/session"
	"parley/internal/ui"
)

type appConfig struct {
	apiBase        string
	credentialPath string
	revealInterval time.Duration
	altScreen      bool
	logFile        string
	debug          bool
}

func defaultCredentialPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".parley", "credential")
	}
	return filepath.Join(dir, "parley", "credential")
}

func parseFlags() appConfig {
	cfg := appConfig{}
	flag.StringVar(&cfg.apiBase, "api", envOr("PARLEY_API_BASE", "http://localhost:5000/api"), "Backend API base URL")
	flag.StringVar(&cfg.credentialPath, "credential", envOr("PARLEY_CREDENTIAL_FILE", defaultCredentialPath()), "Path of the persisted session credential")
	flag.DurationVar(&cfg.revealInterval, "reveal-interval", time.Duration(envOrInt("PARLEY_REVEAL_MS", 1000))*time.Millisecond, "Delay between revealed responder segments")
	flag.BoolVar(&cfg.altScreen, "alt-screen", envOrBool("PARLEY_ALT_SCREEN", true), "Use the terminal alternate screen")
	flag.StringVar(&cfg.logFile, "log-file", envOr("PARLEY_LOG_FILE", ""), "Write logs to this file (default: discard)")
	flag.BoolVar(&cfg.debug, "debug", envOrBool("PARLEY_DEBUG", false), "Enable debug logging")
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

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// newLogger writes structured logs to the configured file. Logging to the
// terminal would fight the TUI for the screen, so the default sink is
// io.Discard.
func newLogger(cfg appConfig) (*slog.Logger, func()) {
	level := slog.LevelInfo
	if cfg.debug {
		level = slog.LevelDebug
	}
	if cfg.logFile == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}
	}
	f, err := os.OpenFile(cfg.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parley: cannot open log file %s: %v\n", cfg.logFile, err)
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})), func() { _ = f.Close() }
}

func main() {
	cfg := parseFlags()
	log, closeLog := newLogger(cfg)
	defer closeLog()

	store := session.NewFileStore(cfg.credentialPath)
	sess := session.NewManager(store, log)

	client := api.New(cfg.apiBase, sess.Token)
	client.Observe(api.NewForcedLogout(sess.Logout))

	app := ui.NewApp(ui.Config{
		Client:         client,
		Session:        sess,
		RevealInterval: cfg.revealInterval,
		Logger:         log,
	})

	opts := []tea.ProgramOption{}
	if cfg.altScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if _, err := tea.NewProgram(app, opts...).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "parley fatal error: %v\n", err)
		os.Exit(1)
	}
}
