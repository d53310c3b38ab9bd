package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kalambet/botanic/internal/care"
	"github.com/kalambet/botanic/internal/collection"
	"github.com/kalambet/botanic/internal/config"
	"github.com/kalambet/botanic/internal/media"
	"github.com/kalambet/botanic/internal/plantnet"
	"github.com/kalambet/botanic/internal/storage"
	"github.com/kalambet/botanic/internal/workflow"
)

// app bundles the loaded config and the opened record store for one command.
type app struct {
	cfg   config.Config
	ns    storage.Namespace
	store *collection.Store
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Log.Level)

	ns, err := storage.Open(cfg.Storage.Engine, cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return &app{cfg: cfg, ns: ns, store: collection.New(ns)}, nil
}

func (a *app) Close() {
	if err := a.ns.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
	}
}

func setupLogging(level string) {
	logLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

// pipeline builds the identification pipeline. Care notes are skipped
// (and replaced by the fallback text) when no care API key is configured.
func (a *app) pipeline() (*workflow.Pipeline, error) {
	if err := a.cfg.RequirePlantNetKey(); err != nil {
		return nil, err
	}
	id := plantnet.NewClient(a.cfg.PlantNet.APIKey,
		plantnet.WithBaseURL(a.cfg.PlantNet.BaseURL),
		plantnet.WithProject(a.cfg.PlantNet.Project),
		plantnet.WithLang(a.cfg.PlantNet.Lang),
	)

	var describer workflow.Describer
	if a.cfg.Care.APIKey != "" {
		describer = care.NewClient(a.cfg.Care.APIKey, care.Config{
			BaseURL:     a.cfg.Care.BaseURL,
			Model:       a.cfg.Care.Model,
			MaxTokens:   a.cfg.Care.MaxTokens,
			Temperature: &a.cfg.Care.Temperature,
		})
	} else {
		slog.Warn("care.api_key not set; care notes will use the fallback text")
	}
	return workflow.NewPipeline(id, describer), nil
}

// runner is like pipeline but never fails; identification requests get the
// configuration error instead.
func (a *app) runner() workflow.Runner {
	p, err := a.pipeline()
	if err != nil {
		slog.Warn("identification disabled", "error", err)
		return unavailableRunner{err: err}
	}
	return p
}

func (a *app) permissions() media.Policy {
	return media.Policy{AllowCamera: a.cfg.Media.AllowCamera, AllowGallery: a.cfg.Media.AllowGallery}
}

type unavailableRunner struct{ err error }

func (u unavailableRunner) Run(context.Context, string) (collection.Candidate, error) {
	return collection.Candidate{}, fmt.Errorf("%w: %w", workflow.ErrIdentification, u.err)
}
