package main

import (
	"context"
	"fmt"

	"recipecost/internal/config"
	"recipecost/internal/core/idempotency"
	"recipecost/internal/core/tx"
	"recipecost/internal/domain/catalogs/rawmaterial"
	"recipecost/internal/domain/quotation"
	"recipecost/internal/domain/recipe"
	"recipecost/internal/infrastructure/http/v1/handlers"
	"recipecost/internal/infrastructure/storage/memstore"
	"recipecost/internal/infrastructure/storage/postgres"
	"recipecost/internal/infrastructure/storage/postgres/catalog_repo"
	"recipecost/internal/infrastructure/storage/postgres/document_repo"
	"recipecost/internal/infrastructure/storage/postgres/migrations"
	"recipecost/pkg/logger"
	"recipecost/pkg/numerator"
)

// app holds the services the router needs and the resources to release on exit.
type app struct {
	storage      string
	db           handlers.DatabaseChecker
	idempotency  idempotency.Store
	rawMaterials *rawmaterial.Service
	recipes      *recipe.Service
	quotations   *quotation.Service
	closers      []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp wires PostgreSQL when DATABASE_URL is set and the in-memory store otherwise.
func buildApp(ctx context.Context, cfg config.Config, log *logger.Logger) (*app, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory storage; data is lost on restart")
		return buildMemoryApp(cfg), nil
	}
	return buildPostgresApp(ctx, cfg, log)
}

func buildMemoryApp(cfg config.Config) *app {
	store := memstore.New()
	txm := tx.Passthrough{}

	materials := rawmaterial.NewService(store.RawMaterials())
	recipes := recipe.NewService(store.Recipes(), store.History(), store.Labour(), store.Packaging(), txm)

	return &app{
		storage:      "memory",
		idempotency:  memstore.NewIdempotencyStore(cfg.IdempotencyTTL),
		rawMaterials: materials,
		recipes:      recipes,
		quotations:   quotation.NewService(store.Quotations(), recipes, materials, store, txm),
	}
}

func buildPostgresApp(ctx context.Context, cfg config.Config, log *logger.Logger) (*app, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = int32(cfg.DBMaxConns)
	poolCfg.MinConns = int32(cfg.DBMinConns)

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	a := &app{storage: "postgres", db: pool, closers: []func(){pool.Close}}
	log.Info("database connection established")

	if cfg.MigrationsEnabled {
		if err := migrations.Up(ctx, pool.Pool); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	codec, err := postgres.NewPayloadCodec(cfg.SnapshotCompressThreshold)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("snapshot codec: %w", err)
	}

	txm := postgres.NewTxManager(pool)
	numbers := numerator.NewWithResolver(func(ctx context.Context) numerator.Querier {
		return txm.GetQuerier(ctx)
	})
	if cfg.NumberingStrategy == "cached" {
		numbers.WithOptions(&numerator.Options{Strategy: numerator.StrategyCached})
	}

	a.idempotency = postgres.NewIdempotencyStore(txm, cfg.IdempotencyTTL)
	a.rawMaterials = rawmaterial.NewService(catalog_repo.NewRawMaterialRepo(txm))
	a.recipes = recipe.NewService(
		document_repo.NewRecipeRepo(txm),
		document_repo.NewHistoryRepo(txm, codec),
		document_repo.NewLabourRepo(txm),
		document_repo.NewPackagingRepo(txm),
		txm,
	)
	a.quotations = quotation.NewService(
		document_repo.NewQuotationRepo(txm),
		a.recipes,
		a.rawMaterials,
		numbers,
		txm,
	)
	return a, nil
}
