package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"recipecost/internal/core/apperror"
	"recipecost/internal/core/id"
	"recipecost/internal/domain"
	"recipecost/internal/domain/recipe"
	"recipecost/internal/infrastructure/storage/postgres"
)

const (
	recipesTable     = "doc_recipes"
	recipeItemsTable = "doc_recipe_items"

	recipeCodeConstraint = "doc_recipes_code_key"
)

var recipeItemCols = []string{
	"line_no", "raw_material_id", "raw_material_name", "raw_material_code",
	"quantity", "unit_id", "unit_name", "price",
	"vendor_id", "vendor_name", "brand_id", "brand_name", "total_price",
}

// RecipeRepo implements recipe.Repository.
type RecipeRepo struct {
	*BaseDocumentRepo[*recipe.Recipe]
}

var _ recipe.Repository = (*RecipeRepo)(nil)

// NewRecipeRepo creates a new recipe repository.
func NewRecipeRepo(txManager *postgres.TxManager) *RecipeRepo {
	return &RecipeRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			recipesTable,
			"recipe",
			postgres.ExtractDBColumns[recipe.Recipe](),
			func() *recipe.Recipe { return &recipe.Recipe{} },
		),
	}
}

// Create inserts a recipe header.
func (r *RecipeRepo) Create(ctx context.Context, rec *recipe.Recipe) error {
	if err := r.insert(ctx, rec); err != nil {
		if isUniqueViolation(err, recipeCodeConstraint) {
			return apperror.NewDuplicate("recipe", "code", rec.Code).WithCause(err)
		}
		return err
	}
	return nil
}

// Update saves the header and bumps rec.Version.
func (r *RecipeRepo) Update(ctx context.Context, rec *recipe.Recipe) error {
	if err := r.updateEntity(ctx, rec.ID, rec.Version, rec); err != nil {
		if isUniqueViolation(err, recipeCodeConstraint) {
			return apperror.NewDuplicate("recipe", "code", rec.Code).WithCause(err)
		}
		return err
	}
	rec.BaseEntity.Touch()
	return nil
}

// List retrieves recipe headers, searching name and code.
func (r *RecipeRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*recipe.Recipe], error) {
	return r.list(ctx, r.baseSelect(), filter, "name ASC", "name", "code")
}

// GetItems returns the items of a recipe in line order.
func (r *RecipeRepo) GetItems(ctx context.Context, recipeID id.ID) ([]recipe.Item, error) {
	sql, args, err := r.Builder().
		Select(recipeItemCols...).
		From(recipeItemsTable).
		Where(squirrel.Eq{"recipe_id": recipeID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := make([]recipe.Item, 0)
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	return items, nil
}

// SaveItems replaces the items of a recipe (delete existing + insert new).
func (r *RecipeRepo) SaveItems(ctx context.Context, recipeID id.ID, items []recipe.Item) error {
	querier := r.querier(ctx)

	if _, err := querier.Exec(ctx, "DELETE FROM "+recipeItemsTable+" WHERE recipe_id = $1", recipeID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(recipeItemsTable).
		Columns(append([]string{"recipe_id"}, recipeItemCols...)...)
	for _, it := range items {
		q = q.Values(
			recipeID, it.LineNo, it.RawMaterialID, it.RawMaterialName, it.RawMaterialCode,
			it.Quantity, it.UnitID, it.UnitName, it.Price,
			it.VendorID, it.VendorName, it.BrandID, it.BrandName, it.TotalPrice,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}
	return nil
}
