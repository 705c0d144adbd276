package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"recipecost/internal/domain/quotation"
)

// --- Request DTOs ---

// OverrideRequest picks another vendor (and optionally a price) for one raw material.
// When price is omitted the vendor's newest recorded price is used.
type OverrideRequest struct {
	RawMaterialID string              `json:"rawMaterialId"`
	VendorID      *string             `json:"vendorId,omitempty"`
	VendorName    string              `json:"vendorName,omitempty"`
	BrandID       *string             `json:"brandId,omitempty"`
	BrandName     string              `json:"brandName,omitempty"`
	Price         decimal.NullDecimal `json:"price"`
}

// PreviewQuotationRequest scales a recipe without saving anything.
type PreviewQuotationRequest struct {
	RequiredQty decimal.Decimal   `json:"requiredQty"`
	Overrides   []OverrideRequest `json:"overrides,omitempty"`
}

// ToPreview converts request to the domain input.
func (r *PreviewQuotationRequest) ToPreview() (quotation.PreviewRequest, error) {
	errs := idErrors{}
	out := quotation.PreviewRequest{
		RequiredQty: r.RequiredQty,
		Overrides:   make([]quotation.OverrideRequest, len(r.Overrides)),
	}
	for i, o := range r.Overrides {
		prefix := fmt.Sprintf("overrides[%d].", i)
		out.Overrides[i] = quotation.OverrideRequest{
			RawMaterialID: errs.parse(prefix+"rawMaterialId", o.RawMaterialID),
			VendorID:      errs.parseOptional(prefix+"vendorId", o.VendorID),
			VendorName:    o.VendorName,
			BrandID:       errs.parseOptional(prefix+"brandId", o.BrandID),
			BrandName:     o.BrandName,
			Price:         o.Price,
		}
	}
	if err := errs.err(); err != nil {
		return quotation.PreviewRequest{}, err
	}
	return out, nil
}

// CreateQuotationRequest saves a scaled quotation with customer details.
type CreateQuotationRequest struct {
	PreviewQuotationRequest
	CompanyName string `json:"companyName" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
	Unit        string `json:"unit" binding:"required"`
	Phone       string `json:"phone" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Notes       string `json:"notes,omitempty"`
}

// ToCreate converts request to the domain input.
func (r *CreateQuotationRequest) ToCreate() (quotation.CreateRequest, error) {
	preview, err := r.ToPreview()
	if err != nil {
		return quotation.CreateRequest{}, err
	}
	return quotation.CreateRequest{
		PreviewRequest: preview,
		Meta: quotation.Meta{
			CompanyName: r.CompanyName,
			Reason:      r.Reason,
			Unit:        r.Unit,
			Phone:       r.Phone,
			Email:       r.Email,
			Notes:       r.Notes,
		},
	}, nil
}

// --- Response DTOs ---

// CalculatedItemDisplay is one scaled line rounded for presentation.
type CalculatedItemDisplay struct {
	LineNo          int             `json:"lineNo"`
	CalculatedQty   decimal.Decimal `json:"calculatedQty"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	CalculatedTotal decimal.Decimal `json:"calculatedTotal"`
}

// CalculationDisplay holds quotation totals rounded for presentation.
type CalculationDisplay struct {
	ScalingFactor   decimal.Decimal         `json:"scalingFactor"`
	TotalRecipeCost decimal.Decimal         `json:"totalRecipeCost"`
	PerUnitCost     decimal.Decimal         `json:"perUnitCost"`
	Items           []CalculatedItemDisplay `json:"items"`
}

func displayCalculation(factor, total, perUnit decimal.Decimal, items []quotation.CalculatedItem) CalculationDisplay {
	d := CalculationDisplay{
		ScalingFactor:   display(factor),
		TotalRecipeCost: display(total),
		PerUnitCost:     display(perUnit),
		Items:           make([]CalculatedItemDisplay, len(items)),
	}
	for i, it := range items {
		d.Items[i] = CalculatedItemDisplay{
			LineNo:          it.LineNo,
			CalculatedQty:   display(it.CalculatedQty),
			UnitPrice:       display(it.UnitPrice),
			CalculatedTotal: display(it.CalculatedTotal),
		}
	}
	return d
}

// CalculationResponse is a scaling preview.
type CalculationResponse struct {
	quotation.Calculation
	Display CalculationDisplay `json:"display"`
}

// FromCalculation converts a preview.
func FromCalculation(c quotation.Calculation) CalculationResponse {
	if c.Items == nil {
		c.Items = []quotation.CalculatedItem{}
	}
	return CalculationResponse{
		Calculation: c,
		Display:     displayCalculation(c.ScalingFactor, c.TotalRecipeCost, c.PerUnitCost, c.Items),
	}
}

// QuotationResponse represents a quotation in API responses.
type QuotationResponse struct {
	ID              string                     `json:"id"`
	Version         int                        `json:"version"`
	Number          string                     `json:"number"`
	RecipeID        string                     `json:"recipeId"`
	RecipeName      string                     `json:"recipeName"`
	RecipeCode      string                     `json:"recipeCode,omitempty"`
	CompanyName     string                     `json:"companyName"`
	Reason          string                     `json:"reason"`
	Unit            string                     `json:"unit"`
	Phone           string                     `json:"phone"`
	Email           string                     `json:"email"`
	Notes           string                     `json:"notes,omitempty"`
	RequiredQty     decimal.Decimal            `json:"requiredQty"`
	MasterBatchQty  decimal.Decimal            `json:"masterBatchQty"`
	ScalingFactor   decimal.Decimal            `json:"scalingFactor"`
	TotalRecipeCost decimal.Decimal            `json:"totalRecipeCost"`
	PerUnitCost     decimal.Decimal            `json:"perUnitCost"`
	Status          quotation.Status           `json:"status"`
	Items           []quotation.CalculatedItem `json:"items,omitempty"`
	Display         CalculationDisplay         `json:"display"`
	CreatedAt       time.Time                  `json:"createdAt"`
	UpdatedAt       time.Time                  `json:"updatedAt"`
	CreatedBy       string                     `json:"createdBy,omitempty"`
	UpdatedBy       string                     `json:"updatedBy,omitempty"`
}

// FromQuotation converts domain entity to response DTO.
func FromQuotation(q *quotation.Quotation) QuotationResponse {
	return QuotationResponse{
		ID:              q.ID.String(),
		Version:         q.Version,
		Number:          q.Number,
		RecipeID:        q.RecipeID.String(),
		RecipeName:      q.RecipeName,
		RecipeCode:      q.RecipeCode,
		CompanyName:     q.CompanyName,
		Reason:          q.Reason,
		Unit:            q.Unit,
		Phone:           q.Phone,
		Email:           q.Email,
		Notes:           q.Notes,
		RequiredQty:     q.RequiredQty,
		MasterBatchQty:  q.MasterBatchQty,
		ScalingFactor:   q.ScalingFactor,
		TotalRecipeCost: q.TotalRecipeCost,
		PerUnitCost:     q.PerUnitCost,
		Status:          q.Status,
		Items:           q.Items,
		Display:         displayCalculation(q.ScalingFactor, q.TotalRecipeCost, q.PerUnitCost, q.Items),
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
		CreatedBy:       q.CreatedBy,
		UpdatedBy:       q.UpdatedBy,
	}
}
