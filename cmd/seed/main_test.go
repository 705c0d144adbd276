package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipecost/internal/domain"
	"recipecost/internal/domain/catalogs/rawmaterial"
	"recipecost/internal/infrastructure/storage/memstore"
)

func TestSeedCatalogIsRepeatable(t *testing.T) {
	ctx := context.Background()
	svc := rawmaterial.NewService(memstore.New().RawMaterials())
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	created, err := seedCatalog(ctx, svc, demoCatalog, now)
	require.NoError(t, err)
	assert.Equal(t, len(demoCatalog), created)

	created, err = seedCatalog(ctx, svc, demoCatalog, now)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestSeedCatalogRecordsVendorHistory(t *testing.T) {
	ctx := context.Background()
	svc := rawmaterial.NewService(memstore.New().RawMaterials())

	_, err := seedCatalog(ctx, svc, demoCatalog[:1], time.Now().UTC())
	require.NoError(t, err)

	res, err := svc.List(ctx, domain.DefaultListFilter())
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	chilli := res.Items[0]
	assert.Equal(t, "RM-CHILLI", chilli.Code)

	prices, err := svc.VendorPrices(ctx, chilli.ID)
	require.NoError(t, err)
	assert.Len(t, prices, 2)

	p, err := svc.ResolvePrice(ctx, chilli.ID, budgetSpices.id, nil)
	require.NoError(t, err)
	assert.Equal(t, "195.5", p.Price.String())
}
