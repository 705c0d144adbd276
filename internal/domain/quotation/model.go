package quotation

import (
	"context"

	"github.com/shopspring/decimal"

	"recipecost/internal/core/apperror"
	"recipecost/internal/core/entity"
	"recipecost/internal/core/id"
)

// Status is the approval state of a quotation.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus validates a status filter value.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(s), true
	}
	return "", false
}

// Quotation is a scaled costing offer frozen at creation.
// Only its status changes afterwards.
type Quotation struct {
	entity.BaseDocument

	Number string `db:"number" json:"number"`

	RecipeID   id.ID  `db:"recipe_id" json:"recipeId"`
	RecipeName string `db:"recipe_name" json:"recipeName"`
	RecipeCode string `db:"recipe_code" json:"recipeCode"`

	CompanyName string `db:"company_name" json:"companyName"`
	Reason      string `db:"reason" json:"reason"`
	Unit        string `db:"unit" json:"unit"`
	Phone       string `db:"phone" json:"phone"`
	Email       string `db:"email" json:"email"`
	Notes       string `db:"notes" json:"notes,omitempty"`

	RequiredQty     decimal.Decimal `db:"required_qty" json:"requiredQty"`
	MasterBatchQty  decimal.Decimal `db:"master_batch_qty" json:"masterBatchQty"`
	ScalingFactor   decimal.Decimal `db:"scaling_factor" json:"scalingFactor"`
	TotalRecipeCost decimal.Decimal `db:"total_recipe_cost" json:"totalRecipeCost"`
	PerUnitCost     decimal.Decimal `db:"per_unit_cost" json:"perUnitCost"`

	Status Status `db:"status" json:"status"`

	Items []CalculatedItem `db:"-" json:"items"`
}

// Validate implements entity.Validatable.
func (q *Quotation) Validate(ctx context.Context) error {
	errs := make(map[string]string)
	if id.IsNil(q.RecipeID) {
		errs["recipeId"] = "recipe is required"
	}
	if !q.RequiredQty.IsPositive() {
		errs["quantity"] = "quantity must be greater than zero"
	}
	if len(q.Items) == 0 {
		errs["items"] = "at least one item is required"
	}
	if _, ok := ParseStatus(string(q.Status)); !ok {
		errs["status"] = "unknown status"
	}
	if len(errs) > 0 {
		return apperror.NewFieldValidation(errs)
	}
	return nil
}

// Approve moves a pending quotation to approved.
func (q *Quotation) Approve() error {
	return q.transition(StatusApproved)
}

// Reject moves a pending quotation to rejected.
func (q *Quotation) Reject() error {
	return q.transition(StatusRejected)
}

func (q *Quotation) transition(to Status) error {
	if q.Status != StatusPending {
		return apperror.NewInvalidTransition("quotation", string(q.Status), string(to))
	}
	q.Status = to
	return nil
}
