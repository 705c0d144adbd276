// Package costing holds the pure cost arithmetic: packaging overhead,
// labour rates and the combined per-unit breakdown.
package costing

import (
	"github.com/shopspring/decimal"

	"recipecost/internal/core/apperror"
	"recipecost/internal/core/types"
)

// PackagingInputs are the packaging parameters of one recipe.
// Absent values are zero.
type PackagingInputs struct {
	ShipperBoxCost           decimal.Decimal `json:"shipperBoxCost"`
	ShipperBoxQty            decimal.Decimal `json:"shipperBoxQty"`
	HygieneCostPerUnit       decimal.Decimal `json:"hygieneCostPerUnit"`
	HygieneQtyPerKg          decimal.Decimal `json:"hygieneQtyPerKg"`
	ScavengerCostPerUnit     decimal.Decimal `json:"scavengerCostPerUnit"`
	ScavengerQtyPerKg        decimal.Decimal `json:"scavengerQtyPerKg"`
	MapCostPerKg             decimal.Decimal `json:"mapCostPerKg"`
	SmallerSizePackagingCost decimal.Decimal `json:"smallerSizePackagingCost"`
	MonoCartonCostPerUnit    decimal.Decimal `json:"monoCartonCostPerUnit"`
	MonoCartonQtyPerKg       decimal.Decimal `json:"monoCartonQtyPerKg"`
	StickerCostPerUnit       decimal.Decimal `json:"stickerCostPerUnit"`
	StickerQtyPerKg          decimal.Decimal `json:"stickerQtyPerKg"`
	ButterPaperCostPerKg     decimal.Decimal `json:"butterPaperCostPerKg"`
	ButterPaperQtyPerKg      decimal.Decimal `json:"butterPaperQtyPerKg"`
	ExcessWeightPerKg        decimal.Decimal `json:"excessWeightPerKg"`
	RmcCostPerKg             decimal.Decimal `json:"rmcCostPerKg"`
	WastagePercentage        decimal.Decimal `json:"wastagePercentage"`
}

// PackagingResult is the per-kg cost breakdown derived from PackagingInputs.
type PackagingResult struct {
	ShipperBoxCostPerKg           decimal.Decimal `json:"shipperBoxCostPerKg"`
	HygieneCostPerKg              decimal.Decimal `json:"hygieneCostPerKg"`
	ScavengerCostPerKg            decimal.Decimal `json:"scavengerCostPerKg"`
	MapCostPerKg                  decimal.Decimal `json:"mapCostPerKg"`
	SmallerSizePackagingCostPerKg decimal.Decimal `json:"smallerSizePackagingCostPerKg"`
	MonoCartonCostPerKg           decimal.Decimal `json:"monoCartonCostPerKg"`
	StickerCostPerKg              decimal.Decimal `json:"stickerCostPerKg"`
	ButterPaperCostPerKg          decimal.Decimal `json:"butterPaperCostPerKg"`
	ExcessStockCostPerKg          decimal.Decimal `json:"excessStockCostPerKg"`
	WastageBase                   decimal.Decimal `json:"wastageBase"`
	MaterialWastageCostPerKg      decimal.Decimal `json:"materialWastageCostPerKg"`
	TotalPackagingHandlingCost    decimal.Decimal `json:"totalPackagingHandlingCost"`
}

// CalculatePackaging converts packaging inputs into per-kg costs.
//
// MAP and smaller-size packaging are pass-through costs and are not part of
// the wastage base.
func CalculatePackaging(in PackagingInputs) PackagingResult {
	r := PackagingResult{
		ShipperBoxCostPerKg:           types.SafeDiv(in.ShipperBoxCost, in.ShipperBoxQty),
		HygieneCostPerKg:              in.HygieneCostPerUnit.Mul(in.HygieneQtyPerKg),
		ScavengerCostPerKg:            in.ScavengerCostPerUnit.Mul(in.ScavengerQtyPerKg),
		MapCostPerKg:                  in.MapCostPerKg,
		SmallerSizePackagingCostPerKg: in.SmallerSizePackagingCost,
		MonoCartonCostPerKg:           in.MonoCartonCostPerUnit.Mul(in.MonoCartonQtyPerKg),
		StickerCostPerKg:              in.StickerCostPerUnit.Mul(in.StickerQtyPerKg),
		ButterPaperCostPerKg:          in.ButterPaperCostPerKg.Mul(in.ButterPaperQtyPerKg),
		ExcessStockCostPerKg:          in.ExcessWeightPerKg.Mul(in.RmcCostPerKg),
	}

	r.WastageBase = types.Sum(
		r.ShipperBoxCostPerKg,
		r.HygieneCostPerKg,
		r.ScavengerCostPerKg,
		r.MonoCartonCostPerKg,
		r.StickerCostPerKg,
		r.ButterPaperCostPerKg,
	)
	r.MaterialWastageCostPerKg = types.Percent(r.WastageBase, in.WastagePercentage)

	r.TotalPackagingHandlingCost = types.Sum(
		r.ShipperBoxCostPerKg,
		r.HygieneCostPerKg,
		r.ScavengerCostPerKg,
		r.MapCostPerKg,
		r.SmallerSizePackagingCostPerKg,
		r.MonoCartonCostPerKg,
		r.StickerCostPerKg,
		r.ButterPaperCostPerKg,
		r.ExcessStockCostPerKg,
		r.MaterialWastageCostPerKg,
	)

	return r
}

// Validate rejects negative inputs; zero is always allowed.
func (in PackagingInputs) Validate() error {
	fields := map[string]decimal.Decimal{
		"shipperBoxCost":           in.ShipperBoxCost,
		"shipperBoxQty":            in.ShipperBoxQty,
		"hygieneCostPerUnit":       in.HygieneCostPerUnit,
		"hygieneQtyPerKg":          in.HygieneQtyPerKg,
		"scavengerCostPerUnit":     in.ScavengerCostPerUnit,
		"scavengerQtyPerKg":        in.ScavengerQtyPerKg,
		"mapCostPerKg":             in.MapCostPerKg,
		"smallerSizePackagingCost": in.SmallerSizePackagingCost,
		"monoCartonCostPerUnit":    in.MonoCartonCostPerUnit,
		"monoCartonQtyPerKg":       in.MonoCartonQtyPerKg,
		"stickerCostPerUnit":       in.StickerCostPerUnit,
		"stickerQtyPerKg":          in.StickerQtyPerKg,
		"butterPaperCostPerKg":     in.ButterPaperCostPerKg,
		"butterPaperQtyPerKg":      in.ButterPaperQtyPerKg,
		"excessWeightPerKg":        in.ExcessWeightPerKg,
		"rmcCostPerKg":             in.RmcCostPerKg,
		"wastagePercentage":        in.WastagePercentage,
	}

	errs := make(map[string]string)
	for name, v := range fields {
		if v.IsNegative() {
			errs[name] = "must not be negative"
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return apperror.NewFieldValidation(errs)
}
