package quotation

import (
	"context"

	"recipecost/internal/core/id"
	"recipecost/internal/domain"
)

// Repository persists quotations and their calculated items.
type Repository interface {
	Create(ctx context.Context, q *Quotation) error
	GetByID(ctx context.Context, quotationID id.ID) (*Quotation, error)
	// UpdateStatus applies optimistic locking on Version and bumps it on success.
	UpdateStatus(ctx context.Context, q *Quotation) error
	Delete(ctx context.Context, quotationID id.ID) error
	ListByRecipe(ctx context.Context, recipeID id.ID, filter domain.ListFilter) (domain.ListResult[*Quotation], error)

	GetItems(ctx context.Context, quotationID id.ID) ([]CalculatedItem, error)
	SaveItems(ctx context.Context, quotationID id.ID, items []CalculatedItem) error
}
