package recipe

import (
	"context"
	"time"

	"recipecost/internal/core/id"
	"recipecost/internal/domain"
	"recipecost/internal/domain/costing"
)

// Repository persists recipes and their item lists.
type Repository interface {
	Create(ctx context.Context, r *Recipe) error
	GetByID(ctx context.Context, recipeID id.ID) (*Recipe, error)
	// Update applies optimistic locking on Version and bumps it on success.
	Update(ctx context.Context, r *Recipe) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Recipe], error)

	GetItems(ctx context.Context, recipeID id.ID) ([]Item, error)
	SaveItems(ctx context.Context, recipeID id.ID, items []Item) error
}

// HistoryRepository is append-only storage for snapshots.
type HistoryRepository interface {
	Append(ctx context.Context, s *Snapshot) error
	// ListByRecipe returns snapshots newest first.
	ListByRecipe(ctx context.Context, recipeID id.ID) ([]Snapshot, error)
	GetByIDs(ctx context.Context, recipeID id.ID, snapshotIDs []id.ID) ([]Snapshot, error)
}

// LabourRepository stores the labour cohorts of recipes.
type LabourRepository interface {
	ListByRecipe(ctx context.Context, recipeID id.ID, labourType costing.LabourType) ([]costing.LabourEntry, error)
	Replace(ctx context.Context, recipeID id.ID, labourType costing.LabourType, entries []costing.LabourEntry) error
}

// PackagingCost is the saved packaging inputs and result of one recipe.
// Saving overwrites the previous value; no history is kept.
type PackagingCost struct {
	RecipeID  id.ID                   `db:"recipe_id" json:"recipeId"`
	Inputs    costing.PackagingInputs `db:"inputs" json:"inputs"`
	Result    costing.PackagingResult `db:"result" json:"result"`
	UpdatedAt time.Time               `db:"updated_at" json:"updatedAt"`
	UpdatedBy string                  `db:"updated_by" json:"updatedBy,omitempty"`
}

// PackagingRepository stores one PackagingCost per recipe.
type PackagingRepository interface {
	// Get returns a NotFound AppError when nothing has been saved yet.
	Get(ctx context.Context, recipeID id.ID) (*PackagingCost, error)
	Upsert(ctx context.Context, pc *PackagingCost) error
}
