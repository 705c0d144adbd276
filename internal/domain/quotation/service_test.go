package quotation_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipecost/internal/core/apperror"
	"recipecost/internal/core/id"
	"recipecost/internal/core/tx"
	"recipecost/internal/domain"
	"recipecost/internal/domain/catalogs/rawmaterial"
	"recipecost/internal/domain/quotation"
	"recipecost/internal/domain/recipe"
	"recipecost/internal/infrastructure/storage/memstore"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	ctx       context.Context
	store     *memstore.Store
	recipes   *recipe.Service
	materials *rawmaterial.Service
	svc       *quotation.Service
	recipe    *recipe.Recipe
	chilli    id.ID
	vendor    id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()

	f := &fixture{
		ctx:       ctx,
		store:     store,
		recipes:   recipe.NewService(store.Recipes(), store.History(), store.Labour(), store.Packaging(), tx.Passthrough{}),
		materials: rawmaterial.NewService(store.RawMaterials()),
		chilli:    id.New(),
		vendor:    id.New(),
	}
	f.svc = quotation.NewService(store.Quotations(), f.recipes, f.materials, store, tx.Passthrough{})

	require.NoError(t, f.materials.Upsert(ctx, &rawmaterial.RawMaterial{ID: f.chilli, Code: "RM-CH", Name: "Chilli", UnitID: "kg"}))
	require.NoError(t, f.materials.RecordPrice(ctx, &rawmaterial.VendorPrice{
		RawMaterialID: f.chilli, VendorID: f.vendor, VendorName: "Budget Spices", Price: d("8"),
		RecordedAt: time.Now().Add(-time.Hour),
	}))

	r := recipe.NewRecipe("Masala Mix", d("100"), "kg")
	r.Yield = decimal.NewNullDecimal(d("90"))
	require.NoError(t, r.AddItem(recipe.Item{
		RawMaterialID: f.chilli, RawMaterialName: "Chilli", Quantity: d("50"), UnitID: "kg", Price: d("10"),
	}))
	require.NoError(t, f.recipes.Create(ctx, r, ""))
	f.recipe = r

	return f
}

func createRequest(qty string) quotation.CreateRequest {
	return quotation.CreateRequest{
		PreviewRequest: quotation.PreviewRequest{RequiredQty: d(qty)},
		Meta: quotation.Meta{
			CompanyName: "Acme Foods",
			Reason:      "Festive order",
			Unit:        "kg",
			Phone:       "+91 98450 00000",
			Email:       "buyer@acme.test",
		},
	}
}

func TestService_Preview(t *testing.T) {
	f := newFixture(t)

	calc, err := f.svc.Preview(f.ctx, f.recipe.ID, quotation.PreviewRequest{RequiredQty: d("250")})
	require.NoError(t, err)
	assert.True(t, calc.TotalRecipeCost.Equal(d("1250")))
	assert.True(t, calc.PerUnitCost.Equal(d("5")))

	empty, err := f.svc.Preview(f.ctx, f.recipe.ID, quotation.PreviewRequest{})
	require.NoError(t, err)
	assert.Empty(t, empty.Items)

	_, err = f.svc.Preview(f.ctx, id.New(), quotation.PreviewRequest{RequiredQty: d("1")})
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_PreviewResolvesVendorPrice(t *testing.T) {
	f := newFixture(t)
	vendor := f.vendor

	calc, err := f.svc.Preview(f.ctx, f.recipe.ID, quotation.PreviewRequest{
		RequiredQty: d("250"),
		Overrides:   []quotation.OverrideRequest{{RawMaterialID: f.chilli, VendorID: &vendor}},
	})
	require.NoError(t, err)

	item := calc.Items[0]
	assert.True(t, item.Overridden)
	assert.Equal(t, "Budget Spices", item.VendorName)
	assert.True(t, item.UnitPrice.Equal(d("8")))
	assert.True(t, calc.TotalRecipeCost.Equal(d("1000")))

	stored, err := f.recipes.GetByID(f.ctx, f.recipe.ID)
	require.NoError(t, err)
	assert.True(t, stored.Items[0].Price.Equal(d("10")), "override never reaches the recipe")
}

func TestService_OverrideValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Preview(f.ctx, f.recipe.ID, quotation.PreviewRequest{
		RequiredQty: d("10"),
		Overrides:   []quotation.OverrideRequest{{RawMaterialID: f.chilli}},
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestService_CreateWithUnknownVendorPriceFails(t *testing.T) {
	f := newFixture(t)
	unknown := id.New()

	req := createRequest("10")
	req.Overrides = []quotation.OverrideRequest{{RawMaterialID: f.chilli, VendorID: &unknown, VendorName: "Ghost"}}

	_, err := f.svc.Create(f.ctx, f.recipe.ID, req)
	assert.True(t, apperror.HasCode(err, apperror.CodeMissingPrice))
}

func TestService_CreateFreezesPrices(t *testing.T) {
	f := newFixture(t)

	q, err := f.svc.Create(f.ctx, f.recipe.ID, createRequest("250"))
	require.NoError(t, err)
	assert.Equal(t, "QT-00001", q.Number)
	assert.Equal(t, quotation.StatusPending, q.Status)

	edited, err := f.recipes.GetByID(f.ctx, f.recipe.ID)
	require.NoError(t, err)
	it := edited.Items[0]
	it.Price = d("20")
	require.NoError(t, edited.EditItem(0, it))
	require.NoError(t, f.recipes.Update(f.ctx, edited, ""))

	stored, err := f.svc.GetByID(f.ctx, q.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalRecipeCost.Equal(d("1250")))
	require.Len(t, stored.Items, 1)
	assert.True(t, stored.Items[0].UnitPrice.Equal(d("10")))
	assert.True(t, stored.Items[0].CalculatedQty.Equal(d("125")))
}

func TestService_StatusLifecycle(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.Create(f.ctx, f.recipe.ID, createRequest("50"))
	require.NoError(t, err)

	approved, err := f.svc.SetStatus(f.ctx, q.ID, quotation.ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, quotation.StatusApproved, approved.Status)
	assert.Equal(t, q.Version+1, approved.Version)
	assert.False(t, approved.UpdatedAt.Before(q.UpdatedAt))

	_, err = f.svc.SetStatus(f.ctx, q.ID, quotation.ActionReject)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))

	_, err = f.svc.SetStatus(f.ctx, q.ID, quotation.Action("archive"))
	assert.True(t, apperror.IsValidation(err))

	stored, err := f.svc.GetByID(f.ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, quotation.StatusApproved, stored.Status)
}

func TestService_ListAndDelete(t *testing.T) {
	f := newFixture(t)
	first, err := f.svc.Create(f.ctx, f.recipe.ID, createRequest("50"))
	require.NoError(t, err)
	_, err = f.svc.Create(f.ctx, f.recipe.ID, createRequest("80"))
	require.NoError(t, err)
	_, err = f.svc.SetStatus(f.ctx, first.ID, quotation.ActionReject)
	require.NoError(t, err)

	all, err := f.svc.ListByRecipe(f.ctx, f.recipe.ID, domain.ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.TotalCount)

	rejected, err := f.svc.ListByRecipe(f.ctx, f.recipe.ID, domain.ListFilter{Status: "rejected"})
	require.NoError(t, err)
	require.Len(t, rejected.Items, 1)
	assert.Equal(t, first.ID, rejected.Items[0].ID)

	_, err = f.svc.ListByRecipe(f.ctx, f.recipe.ID, domain.ListFilter{Status: "archived"})
	assert.True(t, apperror.IsValidation(err))

	require.NoError(t, f.svc.Delete(f.ctx, first.ID))
	_, err = f.svc.GetByID(f.ctx, first.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.True(t, apperror.IsNotFound(f.svc.Delete(f.ctx, first.ID)))
}

func TestService_DuplicateOverrideRejected(t *testing.T) {
	f := newFixture(t)

	req := createRequest("10")
	req.Overrides = []quotation.OverrideRequest{
		{RawMaterialID: f.chilli, VendorName: "Spice Co", Price: decimal.NewNullDecimal(d("9"))},
		{RawMaterialID: f.chilli, VendorName: "Budget Spices", Price: decimal.NewNullDecimal(d("7"))},
	}

	_, err := f.svc.Preview(f.ctx, f.recipe.ID, req.PreviewRequest)
	require.True(t, apperror.IsValidation(err))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "raw material duplicates overrides[0]", appErr.Fields()["overrides[1].rawMaterialId"])

	_, err = f.svc.Create(f.ctx, f.recipe.ID, req)
	assert.True(t, apperror.IsValidation(err))
	list, err := f.svc.ListByRecipe(f.ctx, f.recipe.ID, domain.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
}

func TestService_UpdateAndDeleteHooks(t *testing.T) {
	f := newFixture(t)
	var events []string
	record := func(event string) func(context.Context, *quotation.Quotation) error {
		return func(ctx context.Context, q *quotation.Quotation) error {
			events = append(events, event+":"+string(q.Status))
			return nil
		}
	}
	f.svc.Hooks().OnBeforeUpdate(record("before-update"))
	f.svc.Hooks().OnAfterUpdate(record("after-update"))
	f.svc.Hooks().OnBeforeDelete(record("before-delete"))
	f.svc.Hooks().OnAfterDelete(record("after-delete"))

	q, err := f.svc.Create(f.ctx, f.recipe.ID, createRequest("50"))
	require.NoError(t, err)
	_, err = f.svc.SetStatus(f.ctx, q.ID, quotation.ActionApprove)
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(f.ctx, q.ID))

	assert.Equal(t, []string{
		"before-update:approved",
		"after-update:approved",
		"before-delete:approved",
		"after-delete:approved",
	}, events)
}

func TestService_BeforeUpdateHookBlocksStatusChange(t *testing.T) {
	f := newFixture(t)
	f.svc.Hooks().OnBeforeUpdate(func(ctx context.Context, q *quotation.Quotation) error {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "approvals are frozen")
	})

	q, err := f.svc.Create(f.ctx, f.recipe.ID, createRequest("50"))
	require.NoError(t, err)

	_, err = f.svc.SetStatus(f.ctx, q.ID, quotation.ActionApprove)
	require.Error(t, err)

	stored, err := f.svc.GetByID(f.ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, quotation.StatusPending, stored.Status)
}
