package dto

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"recipecost/internal/domain/costing"
	"recipecost/internal/domain/recipe"
)

// --- Labour ---

// LabourEntryRequest is one labourer in a replace request.
type LabourEntryRequest struct {
	LabourerName string          `json:"labourerName"`
	SalaryPerDay decimal.Decimal `json:"salaryPerDay"`
}

// ReplaceLabourRequest replaces one labour cohort of a recipe.
type ReplaceLabourRequest struct {
	Entries []LabourEntryRequest `json:"entries"`
}

// ToEntries converts request to domain entries.
func (r *ReplaceLabourRequest) ToEntries() []costing.LabourEntry {
	out := make([]costing.LabourEntry, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = costing.LabourEntry{
			LabourerName: strings.TrimSpace(e.LabourerName),
			SalaryPerDay: e.SalaryPerDay,
		}
	}
	return out
}

// LabourDisplay holds labour totals rounded for presentation.
type LabourDisplay struct {
	TotalPerDay decimal.Decimal `json:"totalPerDay"`
	RatePerUnit decimal.Decimal `json:"ratePerUnit"`
}

// LabourResponse is one labour cohort with its aggregate rate.
type LabourResponse struct {
	*recipe.LabourSummary
	Display LabourDisplay `json:"display"`
}

// FromLabourSummary converts the aggregate.
func FromLabourSummary(s *recipe.LabourSummary) LabourResponse {
	if s.Entries == nil {
		s.Entries = []costing.LabourEntry{}
	}
	return LabourResponse{
		LabourSummary: s,
		Display: LabourDisplay{
			TotalPerDay: display(s.TotalPerDay),
			RatePerUnit: display(s.RatePerUnit),
		},
	}
}

// --- Packaging ---

// PackagingResponse carries a computed packaging result, saved or previewed.
type PackagingResponse struct {
	RecipeID  string                  `json:"recipeId,omitempty"`
	Inputs    costing.PackagingInputs `json:"inputs"`
	Result    costing.PackagingResult `json:"result"`
	Display   costing.PackagingResult `json:"display"`
	UpdatedAt *time.Time              `json:"updatedAt,omitempty"`
	UpdatedBy string                  `json:"updatedBy,omitempty"`
}

// FromPackagingCost converts a saved packaging cost.
func FromPackagingCost(pc *recipe.PackagingCost) PackagingResponse {
	updatedAt := pc.UpdatedAt
	return PackagingResponse{
		RecipeID:  pc.RecipeID.String(),
		Inputs:    pc.Inputs,
		Result:    pc.Result,
		Display:   displayPackaging(pc.Result),
		UpdatedAt: &updatedAt,
		UpdatedBy: pc.UpdatedBy,
	}
}

// NewPackagingPreview wraps an unsaved computation.
func NewPackagingPreview(in costing.PackagingInputs, res costing.PackagingResult) PackagingResponse {
	return PackagingResponse{
		Inputs:  in,
		Result:  res,
		Display: displayPackaging(res),
	}
}

func displayPackaging(r costing.PackagingResult) costing.PackagingResult {
	return costing.PackagingResult{
		ShipperBoxCostPerKg:           display(r.ShipperBoxCostPerKg),
		HygieneCostPerKg:              display(r.HygieneCostPerKg),
		ScavengerCostPerKg:            display(r.ScavengerCostPerKg),
		MapCostPerKg:                  display(r.MapCostPerKg),
		SmallerSizePackagingCostPerKg: display(r.SmallerSizePackagingCostPerKg),
		MonoCartonCostPerKg:           display(r.MonoCartonCostPerKg),
		StickerCostPerKg:              display(r.StickerCostPerKg),
		ButterPaperCostPerKg:          display(r.ButterPaperCostPerKg),
		ExcessStockCostPerKg:          display(r.ExcessStockCostPerKg),
		WastageBase:                   display(r.WastageBase),
		MaterialWastageCostPerKg:      display(r.MaterialWastageCostPerKg),
		TotalPackagingHandlingCost:    display(r.TotalPackagingHandlingCost),
	}
}

// --- Cost breakdown ---

// BreakdownResponse is the full cost of a recipe.
type BreakdownResponse struct {
	*recipe.CostBreakdown
	Display costing.Breakdown `json:"display"`
}

// FromCostBreakdown converts the combined breakdown.
func FromCostBreakdown(b *recipe.CostBreakdown) BreakdownResponse {
	return BreakdownResponse{
		CostBreakdown: b,
		Display: costing.Breakdown{
			RMCostPerUnit:              display(b.RMCostPerUnit),
			ProductionLabourPerUnit:    display(b.ProductionLabourPerUnit),
			PackingLabourPerUnit:       display(b.PackingLabourPerUnit),
			TotalPackagingHandlingCost: display(b.TotalPackagingHandlingCost),
			GrandTotalCostPerUnit:      display(b.GrandTotalCostPerUnit),
			TotalBatchCost:             display(b.TotalBatchCost),
		},
	}
}
