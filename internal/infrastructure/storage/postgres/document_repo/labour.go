package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"recipecost/internal/core/id"
	"recipecost/internal/domain/costing"
	"recipecost/internal/domain/recipe"
	"recipecost/internal/infrastructure/storage/postgres"
)

const recipeLabourTable = "doc_recipe_labour"

var labourCols = []string{"id", "recipe_id", "labour_type", "labourer_name", "salary_per_day"}

// LabourRepo implements recipe.LabourRepository.
type LabourRepo struct {
	txManager *postgres.TxManager
}

var _ recipe.LabourRepository = (*LabourRepo)(nil)

// NewLabourRepo creates a new labour repository.
func NewLabourRepo(txManager *postgres.TxManager) *LabourRepo {
	return &LabourRepo{txManager: txManager}
}

func (l *LabourRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// ListByRecipe returns the labour entries of one type in insertion order.
func (l *LabourRepo) ListByRecipe(ctx context.Context, recipeID id.ID, labourType costing.LabourType) ([]costing.LabourEntry, error) {
	sql, args, err := l.builder().
		Select(labourCols...).
		From(recipeLabourTable).
		Where(squirrel.Eq{"recipe_id": recipeID, "labour_type": labourType}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	entries := make([]costing.LabourEntry, 0)
	if err := pgxscan.Select(ctx, l.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list labour: %w", err)
	}
	return entries, nil
}

// Replace swaps the whole cohort of one labour type.
func (l *LabourRepo) Replace(ctx context.Context, recipeID id.ID, labourType costing.LabourType, entries []costing.LabourEntry) error {
	querier := l.txManager.GetQuerier(ctx)

	if _, err := querier.Exec(ctx,
		"DELETE FROM "+recipeLabourTable+" WHERE recipe_id = $1 AND labour_type = $2",
		recipeID, labourType,
	); err != nil {
		return fmt.Errorf("delete labour: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	q := l.builder().
		Insert(recipeLabourTable).
		Columns(append(labourCols, "position")...)
	for i, e := range entries {
		q = q.Values(e.ID, recipeID, labourType, e.LabourerName, e.SalaryPerDay, i+1)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert labour: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert labour: %w", err)
	}
	return nil
}
