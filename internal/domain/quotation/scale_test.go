package quotation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipecost/internal/core/apperror"
	"recipecost/internal/core/id"
	"recipecost/internal/domain/recipe"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

func masala(t *testing.T) *recipe.Recipe {
	t.Helper()
	r := recipe.NewRecipe("Masala Mix", d("100"), "kg")
	r.Yield = decimal.NewNullDecimal(d("90"))
	require.NoError(t, r.AddItem(recipe.Item{
		RawMaterialID:   id.New(),
		RawMaterialName: "Chilli",
		Quantity:        d("50"),
		UnitID:          "kg",
		Price:           d("10"),
	}))
	return r
}

func TestScale_EndToEnd(t *testing.T) {
	r := masala(t)
	assertDec(t, "500", r.TotalRawMaterialCost)
	assert.Equal(t, "5.56", r.PricePerUnit.StringFixed(2))

	calc, err := Scale(SourceFromRecipe(r), d("250"), nil)
	require.NoError(t, err)

	assertDec(t, "2.5", calc.ScalingFactor)
	require.Len(t, calc.Items, 1)
	assertDec(t, "125", calc.Items[0].CalculatedQty)
	assertDec(t, "1250", calc.Items[0].CalculatedTotal)
	assertDec(t, "1250", calc.TotalRecipeCost)
	assertDec(t, "5", calc.PerUnitCost)
}

func TestScale_Identity(t *testing.T) {
	r := recipe.NewRecipe("Mix", d("40"), "kg")
	require.NoError(t, r.AddItem(recipe.Item{RawMaterialID: id.New(), Quantity: d("12.5"), Price: d("3.3")}))
	require.NoError(t, r.AddItem(recipe.Item{RawMaterialID: id.New(), Quantity: d("27.5"), Price: d("1.2")}))

	calc, err := Scale(SourceFromRecipe(r), d("40"), nil)
	require.NoError(t, err)

	assertDec(t, "1", calc.ScalingFactor)
	for i, it := range calc.Items {
		assert.True(t, it.CalculatedQty.Equal(r.Items[i].Quantity))
	}
	assert.True(t, calc.TotalRecipeCost.Equal(r.TotalRawMaterialCost),
		"got %s want %s", calc.TotalRecipeCost, r.TotalRawMaterialCost)
}

func TestScale_IdentityWithSubCentLines(t *testing.T) {
	r := recipe.NewRecipe("Pinch Mix", d("1"), "kg")
	require.NoError(t, r.AddItem(recipe.Item{RawMaterialID: id.New(), Quantity: d("0.333"), Price: d("0.5")}))
	require.NoError(t, r.AddItem(recipe.Item{RawMaterialID: id.New(), Quantity: d("0.127"), Price: d("3.35")}))
	assertDec(t, "0.6", r.TotalRawMaterialCost)

	calc, err := Scale(SourceFromRecipe(r), d("1"), nil)
	require.NoError(t, err)

	for i, it := range calc.Items {
		assertDec(t, r.Items[i].TotalPrice.String(), it.CalculatedTotal, "line", i+1)
	}
	assertDec(t, "0.17", calc.Items[0].CalculatedTotal)
	assert.True(t, calc.TotalRecipeCost.Equal(r.TotalRawMaterialCost),
		"got %s want %s", calc.TotalRecipeCost, r.TotalRawMaterialCost)
}

func TestScale_NonPositiveRequiredQty(t *testing.T) {
	src := SourceFromRecipe(masala(t))

	for _, qty := range []string{"0", "-10"} {
		calc, err := Scale(src, d(qty), nil)
		require.NoError(t, err)
		assert.Empty(t, calc.Items)
		assert.True(t, calc.IsEmpty())
		assert.True(t, calc.PerUnitCost.IsZero())
		assert.True(t, calc.TotalRecipeCost.IsZero())
		assert.True(t, calc.ScalingFactor.IsZero())
	}
}

func TestScale_NonPositiveBatchSize(t *testing.T) {
	src := SourceFromRecipe(masala(t))
	src.BatchSize = decimal.Zero

	_, err := Scale(src, d("10"), nil)

	assert.True(t, apperror.HasCode(err, apperror.CodeScalingUndefined))
}

func TestScale_Override(t *testing.T) {
	r := masala(t)
	rm := r.Items[0].RawMaterialID
	vendor := id.New()

	calc, err := Scale(SourceFromRecipe(r), d("250"), map[id.ID]Override{
		rm: {VendorID: &vendor, VendorName: "Spice Co", Price: d("8")},
	})
	require.NoError(t, err)

	item := calc.Items[0]
	assert.True(t, item.Overridden)
	assert.Equal(t, "Spice Co", item.VendorName)
	assertDec(t, "8", item.UnitPrice)
	assertDec(t, "1000", item.CalculatedTotal)
	assertDec(t, "4", calc.PerUnitCost)
	assertDec(t, "10", r.Items[0].Price)
}
