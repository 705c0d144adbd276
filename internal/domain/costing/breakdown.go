package costing

import (
	"github.com/shopspring/decimal"
)

// BreakdownInputs gathers the per-unit rates a breakdown combines.
type BreakdownInputs struct {
	RMCostPerUnit              decimal.Decimal
	ProductionLabourPerUnit    decimal.Decimal
	PackingLabourPerUnit       decimal.Decimal
	TotalPackagingHandlingCost decimal.Decimal
	Yield                      decimal.Decimal
}

// Breakdown is the combined cost of one recipe.
type Breakdown struct {
	RMCostPerUnit              decimal.Decimal `json:"rmCostPerUnit"`
	ProductionLabourPerUnit    decimal.Decimal `json:"productionLabourCostPerUnit"`
	PackingLabourPerUnit       decimal.Decimal `json:"packingLabourCostPerUnit"`
	TotalPackagingHandlingCost decimal.Decimal `json:"totalPackagingHandlingCost"`
	GrandTotalCostPerUnit      decimal.Decimal `json:"grandTotalCostPerUnit"`
	TotalBatchCost             decimal.Decimal `json:"totalBatchCost"`
}

// Combine adds the per-unit rates into a grand total and derives the batch cost.
//
// The batch cost covers raw material and production labour only; packing
// labour and packaging are left out of it.
func Combine(in BreakdownInputs) Breakdown {
	grand := in.RMCostPerUnit.
		Add(in.ProductionLabourPerUnit).
		Add(in.PackingLabourPerUnit).
		Add(in.TotalPackagingHandlingCost)

	batch := in.RMCostPerUnit.Mul(in.Yield).
		Add(in.ProductionLabourPerUnit.Mul(in.Yield))

	return Breakdown{
		RMCostPerUnit:              in.RMCostPerUnit,
		ProductionLabourPerUnit:    in.ProductionLabourPerUnit,
		PackingLabourPerUnit:       in.PackingLabourPerUnit,
		TotalPackagingHandlingCost: in.TotalPackagingHandlingCost,
		GrandTotalCostPerUnit:      grand,
		TotalBatchCost:             batch,
	}
}
