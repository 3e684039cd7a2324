// Package main is the entry point for the mudauth daemon: a read-only
// authentication backend over a MUD game server's account database.
//
// main stays minimal — read configuration, build the logger, hand off to
// internal/server. All actual logic lives in the internal packages.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/sakif/mudauth/internal/config"
	"github.com/sakif/mudauth/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("loading configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.SessionSecret == "" {
		// No usable default exists for a signing secret; generate one:
		//   SESSION_SECRET=$(openssl rand -hex 32)
		logger.Error("SESSION_SECRET is not set")
		os.Exit(1)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
