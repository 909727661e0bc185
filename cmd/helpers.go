package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/dmryasin/compval/internal/cost"
	"github.com/dmryasin/compval/internal/extract"
	"github.com/dmryasin/compval/internal/store"
	"github.com/dmryasin/compval/internal/valuation"
	anthropicpkg "github.com/dmryasin/compval/pkg/anthropic"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "compval.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEngine validates credentials and wires the Claude extractor into a
// valuation engine. The missing-key check runs here, before any batch item.
func initEngine() (*valuation.Engine, *cost.Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	tracker := cost.NewTracker(cost.NewCalculator(cost.DefaultRates()))
	client := anthropicpkg.NewClient(cfg.Anthropic.Key)
	ex := extract.NewClaudeExtractor(client, cfg.Anthropic, cfg.Batch.RetryAttempts).WithTracker(tracker)
	return valuation.NewEngine(ex, ex, cfg.Batch), tracker, nil
}
