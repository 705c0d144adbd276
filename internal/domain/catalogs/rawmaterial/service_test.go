package rawmaterial_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipecost/internal/core/apperror"
	"recipecost/internal/core/id"
	"recipecost/internal/domain"
	"recipecost/internal/domain/catalogs/rawmaterial"
	"recipecost/internal/infrastructure/storage/memstore"
)

func seed(t *testing.T) (*rawmaterial.Service, *rawmaterial.RawMaterial, id.ID, id.ID) {
	t.Helper()
	ctx := context.Background()
	svc := rawmaterial.NewService(memstore.New().RawMaterials())

	rm := &rawmaterial.RawMaterial{Code: "RM-TUR", Name: "Turmeric", UnitID: "kg", UnitName: "Kilogram"}
	require.NoError(t, svc.Upsert(ctx, rm))

	vendor, brand := id.New(), id.New()
	brandName := "Golden"
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.RecordPrice(ctx, &rawmaterial.VendorPrice{
		RawMaterialID: rm.ID, VendorID: vendor, VendorName: "Spice Co",
		BrandID: &brand, BrandName: &brandName, Price: decimal.NewFromInt(120), RecordedAt: base,
	}))
	require.NoError(t, svc.RecordPrice(ctx, &rawmaterial.VendorPrice{
		RawMaterialID: rm.ID, VendorID: vendor, VendorName: "Spice Co",
		Price: decimal.NewFromInt(110), RecordedAt: base.Add(24 * time.Hour),
	}))
	return svc, rm, vendor, brand
}

func TestService_UpsertValidates(t *testing.T) {
	svc := rawmaterial.NewService(memstore.New().RawMaterials())

	err := svc.Upsert(context.Background(), &rawmaterial.RawMaterial{})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Fields(), "name")
	assert.Contains(t, appErr.Fields(), "code")
	assert.Contains(t, appErr.Fields(), "unitId")
}

func TestService_LatestPriceDerived(t *testing.T) {
	svc, rm, vendor, brand := seed(t)

	got, err := svc.GetByID(context.Background(), rm.ID)
	require.NoError(t, err)
	assert.True(t, got.LastPrice.Equal(decimal.NewFromInt(110)))
	require.NotNil(t, got.VendorID)
	assert.Equal(t, vendor, *got.VendorID)
	assert.Equal(t, []string{brand.String()}, got.BrandIDs)
	assert.Equal(t, []string{"Golden"}, got.BrandNames)

	list, err := svc.List(context.Background(), domain.ListFilter{Search: "turm"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.TotalCount)
}

func TestService_ResolvePrice(t *testing.T) {
	svc, rm, vendor, brand := seed(t)
	ctx := context.Background()

	latest, err := svc.ResolvePrice(ctx, rm.ID, vendor, nil)
	require.NoError(t, err)
	assert.True(t, latest.Price.Equal(decimal.NewFromInt(110)))

	branded, err := svc.ResolvePrice(ctx, rm.ID, vendor, &brand)
	require.NoError(t, err)
	assert.True(t, branded.Price.Equal(decimal.NewFromInt(120)))

	_, err = svc.ResolvePrice(ctx, rm.ID, id.New(), nil)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_VendorPrices(t *testing.T) {
	svc, rm, _, _ := seed(t)

	prices, err := svc.VendorPrices(context.Background(), rm.ID)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.True(t, prices[0].RecordedAt.After(prices[1].RecordedAt))

	_, err = svc.VendorPrices(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_RecordPriceRejectsNegative(t *testing.T) {
	svc, rm, vendor, _ := seed(t)

	err := svc.RecordPrice(context.Background(), &rawmaterial.VendorPrice{
		RawMaterialID: rm.ID, VendorID: vendor, VendorName: "Spice Co", Price: decimal.NewFromInt(-1),
	})
	assert.True(t, apperror.IsValidation(err))
}
