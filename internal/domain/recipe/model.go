// Package recipe provides the Recipe bill of materials, its cost totals
// and its version history.
package recipe

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"recipecost/internal/core/apperror"
	"recipecost/internal/core/entity"
	"recipecost/internal/core/id"
	"recipecost/internal/core/types"
)

// Item is one raw material used by a recipe.
// Price is copied from the vendor at entry time and never follows later price changes.
type Item struct {
	LineNo int `db:"line_no" json:"lineNo"`

	RawMaterialID   id.ID  `db:"raw_material_id" json:"rawMaterialId"`
	RawMaterialName string `db:"raw_material_name" json:"rawMaterialName"`
	RawMaterialCode string `db:"raw_material_code" json:"rawMaterialCode"`

	Quantity decimal.Decimal `db:"quantity" json:"quantity"`
	UnitID   string          `db:"unit_id" json:"unitId"`
	UnitName string          `db:"unit_name" json:"unitName"`
	Price    decimal.Decimal `db:"price" json:"price"`

	VendorID   *id.ID `db:"vendor_id" json:"vendorId,omitempty"`
	VendorName string `db:"vendor_name" json:"vendorName,omitempty"`
	BrandID    *id.ID `db:"brand_id" json:"brandId,omitempty"`
	BrandName  string `db:"brand_name" json:"brandName,omitempty"`

	// TotalPrice is round(Quantity × Price, 2); always recomputed.
	TotalPrice decimal.Decimal `db:"total_price" json:"totalPrice"`
}

// LineTotal returns round(quantity × price, 2).
func LineTotal(quantity, price decimal.Decimal) decimal.Decimal {
	return types.Display(quantity.Mul(price))
}

// Recalculate refreshes TotalPrice from Quantity and Price.
func (it *Item) Recalculate() {
	it.TotalPrice = LineTotal(it.Quantity, it.Price)
}

func (it Item) validate(prefix string, errs map[string]string) {
	if id.IsNil(it.RawMaterialID) {
		errs[prefix+"rawMaterialId"] = "raw material is required"
	}
	if !it.Quantity.IsPositive() {
		errs[prefix+"quantity"] = "quantity must be greater than zero"
	}
	if it.Price.IsNegative() {
		errs[prefix+"price"] = "price must not be negative"
	}
}

// Recipe is a master bill of materials calibrated for BatchSize.
type Recipe struct {
	entity.BaseDocument

	Name      string          `db:"name" json:"name"`
	Code      string          `db:"code" json:"code"`
	BatchSize decimal.Decimal `db:"batch_size" json:"batchSize"`
	UnitID    string          `db:"unit_id" json:"unitId"`
	UnitName  string          `db:"unit_name" json:"unitName"`

	// Yield divides the raw material cost when set and positive.
	Yield decimal.NullDecimal `db:"yield" json:"yield"`

	// MoisturePercentage is informational only.
	MoisturePercentage decimal.NullDecimal `db:"moisture_percentage" json:"moisturePercentage"`

	// Cost totals as of the last Recalculate.
	TotalRawMaterialCost decimal.Decimal `db:"total_raw_material_cost" json:"totalRawMaterialCost"`
	PricePerUnit         decimal.Decimal `db:"price_per_unit" json:"pricePerUnit"`

	Items []Item `db:"-" json:"items"`
}

// NewRecipe creates an empty draft.
func NewRecipe(name string, batchSize decimal.Decimal, unitID string) *Recipe {
	return &Recipe{
		BaseDocument: entity.NewBaseDocument(),
		Name:         name,
		BatchSize:    batchSize,
		UnitID:       unitID,
		Items:        make([]Item, 0),
	}
}

// YieldValue returns the yield, or zero when unset.
func (r *Recipe) YieldValue() decimal.Decimal {
	if !r.Yield.Valid {
		return decimal.Zero
	}
	return r.Yield.Decimal
}

// Recalculate renumbers items, refreshes line totals and the recipe totals.
func (r *Recipe) Recalculate() {
	total := decimal.Zero
	for i := range r.Items {
		r.Items[i].LineNo = i + 1
		r.Items[i].Recalculate()
		total = total.Add(r.Items[i].TotalPrice)
	}
	r.TotalRawMaterialCost = total
	r.PricePerUnit = types.SafeDiv(total, r.YieldValue())
}

// SetItems replaces the item list and recomputes totals.
func (r *Recipe) SetItems(items []Item) {
	r.Items = append(make([]Item, 0, len(items)), items...)
	r.Recalculate()
}

// indexOf returns the position of rawMaterialID, skipping index skip.
func (r *Recipe) indexOf(rawMaterialID id.ID, skip int) int {
	for i, it := range r.Items {
		if i != skip && it.RawMaterialID == rawMaterialID {
			return i
		}
	}
	return -1
}

// AddItem appends a new raw material line.
func (r *Recipe) AddItem(item Item) error {
	errs := make(map[string]string)
	item.validate("", errs)
	if len(errs) > 0 {
		return apperror.NewFieldValidation(errs)
	}
	if r.indexOf(item.RawMaterialID, -1) >= 0 {
		return apperror.NewFieldValidation(map[string]string{
			"rawMaterialId": "raw material is already in the recipe",
		})
	}

	r.Items = append(r.Items, item)
	r.Recalculate()
	return nil
}

// EditItem replaces the line at index.
func (r *Recipe) EditItem(index int, item Item) error {
	if index < 0 || index >= len(r.Items) {
		return apperror.NewValidation("item index out of range").WithDetail("index", index)
	}

	errs := make(map[string]string)
	item.validate("", errs)
	if len(errs) > 0 {
		return apperror.NewFieldValidation(errs)
	}
	if r.indexOf(item.RawMaterialID, index) >= 0 {
		return apperror.NewFieldValidation(map[string]string{
			"rawMaterialId": "raw material is already in the recipe",
		})
	}

	r.Items[index] = item
	r.Recalculate()
	return nil
}

// RemoveItem drops the line at index.
func (r *Recipe) RemoveItem(index int) error {
	if index < 0 || index >= len(r.Items) {
		return apperror.NewValidation("item index out of range").WithDetail("index", index)
	}
	r.Items = append(r.Items[:index], r.Items[index+1:]...)
	r.Recalculate()
	return nil
}

// Validate implements entity.Validatable.
// Every offending field is reported in one error.
func (r *Recipe) Validate(ctx context.Context) error {
	errs := make(map[string]string)

	if strings.TrimSpace(r.Name) == "" {
		errs["name"] = "name is required"
	}
	if !r.BatchSize.IsPositive() {
		errs["batchSize"] = "batch size must be greater than zero"
	}
	if strings.TrimSpace(r.UnitID) == "" {
		errs["unitId"] = "unit is required"
	}
	if r.Yield.Valid && r.Yield.Decimal.IsNegative() {
		errs["yield"] = "yield must not be negative"
	}
	if len(r.Items) == 0 {
		errs["items"] = "at least one item is required"
	}

	seen := make(map[id.ID]int, len(r.Items))
	for i, it := range r.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		it.validate(prefix, errs)
		if first, dup := seen[it.RawMaterialID]; dup && !id.IsNil(it.RawMaterialID) {
			errs[prefix+"rawMaterialId"] = fmt.Sprintf("raw material duplicates items[%d]", first)
			continue
		}
		seen[it.RawMaterialID] = i
	}

	if len(errs) > 0 {
		return apperror.NewFieldValidation(errs)
	}
	return nil
}
