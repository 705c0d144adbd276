package document_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"recipecost/internal/core/apperror"
	"recipecost/internal/core/id"
	"recipecost/internal/domain/recipe"
	"recipecost/internal/infrastructure/storage/postgres"
)

const recipePackagingTable = "doc_recipe_packaging_costs"

// PackagingRepo implements recipe.PackagingRepository.
// Inputs and result are stored as jsonb, one row per recipe.
type PackagingRepo struct {
	txManager *postgres.TxManager
}

var _ recipe.PackagingRepository = (*PackagingRepo)(nil)

// NewPackagingRepo creates a new packaging repository.
func NewPackagingRepo(txManager *postgres.TxManager) *PackagingRepo {
	return &PackagingRepo{txManager: txManager}
}

// Get returns the saved packaging cost of a recipe.
func (p *PackagingRepo) Get(ctx context.Context, recipeID id.ID) (*recipe.PackagingCost, error) {
	var pc recipe.PackagingCost
	err := pgxscan.Get(ctx, p.txManager.GetQuerier(ctx), &pc, `
		SELECT recipe_id, inputs, result, updated_at, updated_by
		FROM `+recipePackagingTable+`
		WHERE recipe_id = $1
	`, recipeID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("recipe packaging costs", recipeID)
		}
		return nil, fmt.Errorf("get packaging costs: %w", err)
	}
	return &pc, nil
}

// Upsert overwrites the packaging cost of a recipe.
func (p *PackagingRepo) Upsert(ctx context.Context, pc *recipe.PackagingCost) error {
	_, err := p.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO `+recipePackagingTable+` (recipe_id, inputs, result, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (recipe_id) DO UPDATE SET
			inputs = EXCLUDED.inputs,
			result = EXCLUDED.result,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by
	`, pc.RecipeID, pc.Inputs, pc.Result, pc.UpdatedAt, pc.UpdatedBy)
	if err != nil {
		return fmt.Errorf("upsert packaging costs: %w", err)
	}
	return nil
}
