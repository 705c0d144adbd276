// Package quotation scales a frozen recipe to a customer quantity and turns
// the result into a point-in-time Quotation.
package quotation

import (
	"github.com/shopspring/decimal"

	"recipecost/internal/core/apperror"
	"recipecost/internal/core/id"
	"recipecost/internal/core/types"
	"recipecost/internal/domain/recipe"
)

// SourceItem is a recipe line as captured when the draft was opened.
type SourceItem struct {
	RawMaterialID   id.ID
	RawMaterialName string
	RawMaterialCode string
	UnitID          string
	UnitName        string
	Quantity        decimal.Decimal
	Price           decimal.Decimal
	VendorID        *id.ID
	VendorName      string
	BrandID         *id.ID
	BrandName       string
}

// Source is a frozen copy of the recipe a quotation scales.
type Source struct {
	RecipeID   id.ID
	RecipeName string
	RecipeCode string
	BatchSize  decimal.Decimal
	UnitName   string
	Items      []SourceItem
}

// SourceFromRecipe copies the parts of r a quotation needs.
// Later changes to r do not reach the source.
func SourceFromRecipe(r *recipe.Recipe) Source {
	items := make([]SourceItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = SourceItem{
			RawMaterialID:   it.RawMaterialID,
			RawMaterialName: it.RawMaterialName,
			RawMaterialCode: it.RawMaterialCode,
			UnitID:          it.UnitID,
			UnitName:        it.UnitName,
			Quantity:        it.Quantity,
			Price:           it.Price,
			VendorID:        cloneID(it.VendorID),
			VendorName:      it.VendorName,
			BrandID:         cloneID(it.BrandID),
			BrandName:       it.BrandName,
		}
	}
	return Source{
		RecipeID:   r.ID,
		RecipeName: r.Name,
		RecipeCode: r.Code,
		BatchSize:  r.BatchSize,
		UnitName:   r.UnitName,
		Items:      items,
	}
}

// Override replaces the vendor and unit price of one raw material in one draft.
type Override struct {
	VendorID   *id.ID          `json:"vendorId,omitempty"`
	VendorName string          `json:"vendorName,omitempty"`
	BrandID    *id.ID          `json:"brandId,omitempty"`
	BrandName  string          `json:"brandName,omitempty"`
	Price      decimal.Decimal `json:"price"`
}

// CalculatedItem is one scaled recipe line.
type CalculatedItem struct {
	LineNo          int             `db:"line_no" json:"lineNo"`
	RawMaterialID   id.ID           `db:"raw_material_id" json:"rawMaterialId"`
	RawMaterialName string          `db:"raw_material_name" json:"rawMaterialName"`
	RawMaterialCode string          `db:"raw_material_code" json:"rawMaterialCode"`
	UnitName        string          `db:"unit_name" json:"unitName"`
	MasterQty       decimal.Decimal `db:"master_qty" json:"masterQty"`
	CalculatedQty   decimal.Decimal `db:"calculated_qty" json:"calculatedQty"`
	UnitPrice       decimal.Decimal `db:"unit_price" json:"unitPrice"`
	CalculatedTotal decimal.Decimal `db:"calculated_total" json:"calculatedTotal"`
	VendorID        *id.ID          `db:"vendor_id" json:"vendorId,omitempty"`
	VendorName      string          `db:"vendor_name" json:"vendorName,omitempty"`
	BrandID         *id.ID          `db:"brand_id" json:"brandId,omitempty"`
	BrandName       string          `db:"brand_name" json:"brandName,omitempty"`
	Overridden      bool            `db:"overridden" json:"overridden"`
}

// Calculation is the result of scaling a source to a required quantity.
type Calculation struct {
	RequiredQty     decimal.Decimal  `json:"requiredQty"`
	MasterBatchQty  decimal.Decimal  `json:"masterBatchQty"`
	ScalingFactor   decimal.Decimal  `json:"scalingFactor"`
	Items           []CalculatedItem `json:"items"`
	TotalRecipeCost decimal.Decimal  `json:"totalRecipeCost"`
	PerUnitCost     decimal.Decimal  `json:"perUnitCost"`
}

// IsEmpty reports whether nothing was calculated.
func (c Calculation) IsEmpty() bool {
	return len(c.Items) == 0
}

// Scale multiplies every source line by requiredQty / batchSize.
//
// A non-positive batch size makes scaling undefined and returns an error.
// A non-positive required quantity returns an empty calculation.
func Scale(src Source, requiredQty decimal.Decimal, overrides map[id.ID]Override) (Calculation, error) {
	if !src.BatchSize.IsPositive() {
		return Calculation{}, apperror.NewBusinessRule(apperror.CodeScalingUndefined,
			"recipe batch size must be greater than zero to scale").
			WithDetail("recipeId", src.RecipeID)
	}

	calc := Calculation{
		RequiredQty:     requiredQty,
		MasterBatchQty:  src.BatchSize,
		ScalingFactor:   decimal.Zero,
		Items:           []CalculatedItem{},
		TotalRecipeCost: decimal.Zero,
		PerUnitCost:     decimal.Zero,
	}
	if !requiredQty.IsPositive() {
		calc.RequiredQty = decimal.Zero
		return calc, nil
	}

	calc.ScalingFactor = requiredQty.Div(src.BatchSize)

	for i, it := range src.Items {
		line := CalculatedItem{
			LineNo:          i + 1,
			RawMaterialID:   it.RawMaterialID,
			RawMaterialName: it.RawMaterialName,
			RawMaterialCode: it.RawMaterialCode,
			UnitName:        it.UnitName,
			MasterQty:       it.Quantity,
			CalculatedQty:   it.Quantity.Mul(calc.ScalingFactor),
			UnitPrice:       it.Price,
			VendorID:        cloneID(it.VendorID),
			VendorName:      it.VendorName,
			BrandID:         cloneID(it.BrandID),
			BrandName:       it.BrandName,
		}

		if ov, ok := overrides[it.RawMaterialID]; ok {
			line.UnitPrice = ov.Price
			line.VendorID = cloneID(ov.VendorID)
			line.VendorName = ov.VendorName
			line.BrandID = cloneID(ov.BrandID)
			line.BrandName = ov.BrandName
			line.Overridden = true
		}

		line.CalculatedTotal = recipe.LineTotal(line.CalculatedQty, line.UnitPrice)
		calc.TotalRecipeCost = calc.TotalRecipeCost.Add(line.CalculatedTotal)
		calc.Items = append(calc.Items, line)
	}

	calc.PerUnitCost = types.SafeDiv(calc.TotalRecipeCost, requiredQty)

	return calc, nil
}

func cloneID(v *id.ID) *id.ID {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
