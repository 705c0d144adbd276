package costing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"recipecost/internal/core/id"
	"recipecost/internal/core/types"
)

// LabourType selects the production or packing cohort of a recipe.
type LabourType string

const (
	LabourProduction LabourType = "production"
	LabourPacking    LabourType = "packing"
)

// LabourTypes lists every cohort in display order.
var LabourTypes = []LabourType{LabourProduction, LabourPacking}

// ParseLabourType validates a path or query value.
func ParseLabourType(s string) (LabourType, error) {
	switch LabourType(s) {
	case LabourProduction, LabourPacking:
		return LabourType(s), nil
	}
	return "", fmt.Errorf("unknown labour type %q", s)
}

// LabourEntry is one labourer assigned to a recipe cohort.
type LabourEntry struct {
	ID           id.ID           `db:"id" json:"id"`
	RecipeID     id.ID           `db:"recipe_id" json:"recipeId"`
	Type         LabourType      `db:"labour_type" json:"type"`
	LabourerName string          `db:"labourer_name" json:"labourerName"`
	SalaryPerDay decimal.Decimal `db:"salary_per_day" json:"salaryPerDay"`
}

// LabourRate is Σ salaryPerDay / batchSize; zero when batchSize ≤ 0.
func LabourRate(entries []LabourEntry, batchSize decimal.Decimal) decimal.Decimal {
	return types.SafeDiv(LabourTotal(entries), batchSize)
}

// LabourTotal sums salaryPerDay for the cohort.
func LabourTotal(entries []LabourEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.SalaryPerDay)
	}
	return total
}
