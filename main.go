package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bodul/anniversary/anniversary"
	"github.com/bodul/anniversary/bucket"
	"github.com/bodul/anniversary/puzzle"
)

func main() {
	if err := run(); err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(configPath(), os.Getenv)
	if err != nil {
		return err
	}
	slog.SetDefault(newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr))

	ctx := context.Background()

	var hints Hinter
	if cfg.ProjectID != "" {
		gemini, err := NewGeminiClient(ctx, cfg.ProjectID, cfg.Region, cfg.Model)
		if err != nil {
			return fmt.Errorf("init gemini: %w", err)
		}
		hints = gemini
		slog.Info("gemini client ready", "project", cfg.ProjectID, "model", gemini.modelName)
	} else {
		slog.Info("GCP_PROJECT_ID not set, hints disabled")
	}

	def := puzzle.Default()
	if cfg.PuzzleFile != "" {
		if def, err = puzzle.LoadFile(cfg.PuzzleFile); err != nil {
			return err
		}
	}

	store := NewStore()
	grid := newGrid(def)
	grid.ID = defaultGridID
	store.SaveGrid(grid)
	grid.warnConflicts(slog.Default())
	slog.Info("puzzle loaded", "title", def.Title, "rows", grid.Rows, "cols", grid.Cols, "words", len(def.Placements))

	gate, err := anniversary.NewGate(cfg.Anniversary)
	if err != nil {
		return err
	}
	list, err := bucket.Open(cfg.BucketFile, bucket.Seeds)
	if err != nil {
		return err
	}

	srv := NewServer(store, hints, gate, list)
	go srv.janitor(ctx, 10*time.Minute)

	slog.Info("server listening", "addr", "http://localhost:"+cfg.Port)
	return http.ListenAndServe(":"+cfg.Port, srv)
}
