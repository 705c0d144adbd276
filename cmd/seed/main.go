// Package main provides a CLI tool for seeding the raw material catalog
// and vendor price history.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	appctx "recipecost/internal/core/context"
	"recipecost/internal/core/id"
	"recipecost/internal/core/types"
	"recipecost/internal/domain"
	"recipecost/internal/domain/catalogs/rawmaterial"
	"recipecost/internal/infrastructure/storage/postgres"
	"recipecost/internal/infrastructure/storage/postgres/catalog_repo"
	"recipecost/internal/infrastructure/storage/postgres/migrations"
	"recipecost/pkg/logger"
)

type vendor struct {
	id   id.ID
	name string
}

var (
	spiceCo      = vendor{id.MustParse("01920000-0000-7000-8000-000000000001"), "Spice Co"}
	budgetSpices = vendor{id.MustParse("01920000-0000-7000-8000-000000000002"), "Budget Spices"}
	agroMills    = vendor{id.MustParse("01920000-0000-7000-8000-000000000003"), "Agro Mills"}
)

type seedPrice struct {
	vendor  vendor
	price   string
	daysAgo int
}

type seedMaterial struct {
	code, name, unitID, unitName string
	prices                       []seedPrice
}

var demoCatalog = []seedMaterial{
	{"RM-CHILLI", "Red Chilli Powder", "kg", "Kilogram", []seedPrice{
		{spiceCo, "210.00", 30},
		{budgetSpices, "195.50", 7},
	}},
	{"RM-TURMERIC", "Turmeric Powder", "kg", "Kilogram", []seedPrice{
		{spiceCo, "160.00", 14},
	}},
	{"RM-CORIANDER", "Coriander Seeds", "kg", "Kilogram", []seedPrice{
		{agroMills, "118.00", 21},
		{spiceCo, "124.00", 3},
	}},
	{"RM-SALT", "Iodised Salt", "kg", "Kilogram", []seedPrice{
		{agroMills, "18.00", 60},
	}},
	{"RM-OIL", "Groundnut Oil", "l", "Litre", []seedPrice{
		{agroMills, "172.00", 10},
	}},
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	ctx = appctx.WithUser(ctx, &appctx.UserContext{DisplayName: "seed"})

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := migrations.Up(ctx, pool.Pool); err != nil {
		log.Fatalw("failed to apply migrations", "error", err)
	}

	txm := postgres.NewTxManager(pool)
	svc := rawmaterial.NewService(catalog_repo.NewRawMaterialRepo(txm))

	created, err := seedCatalog(ctx, svc, demoCatalog, time.Now().UTC())
	if err != nil {
		log.Fatalw("failed to seed catalog", "error", err)
	}

	log.Infow("seeding completed successfully", "created", created)
}

// seedCatalog inserts materials whose code is not yet present, along with their prices.
func seedCatalog(ctx context.Context, svc *rawmaterial.Service, catalog []seedMaterial, now time.Time) (int, error) {
	created := 0
	for _, sm := range catalog {
		exists, err := codeExists(ctx, svc, sm.code)
		if err != nil {
			return created, err
		}
		if exists {
			logger.Info(ctx, "raw material already exists", "code", sm.code)
			continue
		}

		m := &rawmaterial.RawMaterial{
			Code:     sm.code,
			Name:     sm.name,
			UnitID:   sm.unitID,
			UnitName: sm.unitName,
		}
		if err := svc.Upsert(ctx, m); err != nil {
			return created, fmt.Errorf("upsert %s: %w", sm.code, err)
		}

		for _, sp := range sm.prices {
			at := now.AddDate(0, 0, -sp.daysAgo)
			p := &rawmaterial.VendorPrice{
				RawMaterialID:    m.ID,
				VendorID:         sp.vendor.id,
				VendorName:       sp.vendor.name,
				Price:            types.MustMoney(sp.price),
				LastPurchaseDate: &at,
				RecordedAt:       at,
			}
			if err := svc.RecordPrice(ctx, p); err != nil {
				return created, fmt.Errorf("record price %s/%s: %w", sm.code, sp.vendor.name, err)
			}
		}

		created++
		logger.Info(ctx, "raw material seeded", "code", sm.code, "prices", len(sm.prices))
	}
	return created, nil
}

func codeExists(ctx context.Context, svc *rawmaterial.Service, code string) (bool, error) {
	filter := domain.DefaultListFilter()
	filter.Search = code
	res, err := svc.List(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", code, err)
	}
	for _, m := range res.Items {
		if m.Code == code {
			return true, nil
		}
	}
	return false, nil
}
