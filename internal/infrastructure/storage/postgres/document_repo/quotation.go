package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"recipecost/internal/core/apperror"
	"recipecost/internal/core/id"
	"recipecost/internal/domain"
	"recipecost/internal/domain/quotation"
	"recipecost/internal/infrastructure/storage/postgres"
)

const (
	quotationsTable     = "doc_quotations"
	quotationItemsTable = "doc_quotation_items"
)

// QuotationRepo implements quotation.Repository.
type QuotationRepo struct {
	*BaseDocumentRepo[*quotation.Quotation]
	itemCols []string
}

var _ quotation.Repository = (*QuotationRepo)(nil)

// NewQuotationRepo creates a new quotation repository.
func NewQuotationRepo(txManager *postgres.TxManager) *QuotationRepo {
	return &QuotationRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			quotationsTable,
			"quotation",
			postgres.ExtractDBColumns[quotation.Quotation](),
			func() *quotation.Quotation { return &quotation.Quotation{} },
		),
		itemCols: postgres.ExtractDBColumns[quotation.CalculatedItem](),
	}
}

// Create inserts a quotation header.
func (r *QuotationRepo) Create(ctx context.Context, q *quotation.Quotation) error {
	if err := r.insert(ctx, q); err != nil {
		if isUniqueViolation(err, "") {
			return apperror.NewDuplicate("quotation", "number", q.Number).WithCause(err)
		}
		return err
	}
	return nil
}

// UpdateStatus writes the status and audit columns, bumping q.Version.
func (r *QuotationRepo) UpdateStatus(ctx context.Context, q *quotation.Quotation) error {
	err := r.update(ctx, q.ID, q.Version, map[string]any{
		"status":     q.Status,
		"updated_at": squirrel.Expr("NOW()"),
		"updated_by": q.UpdatedBy,
	})
	if err != nil {
		return err
	}
	q.Touch()
	return nil
}

// ListByRecipe lists quotations of a recipe, newest number first.
func (r *QuotationRepo) ListByRecipe(ctx context.Context, recipeID id.ID, filter domain.ListFilter) (domain.ListResult[*quotation.Quotation], error) {
	q := r.baseSelect().Where(squirrel.Eq{"recipe_id": recipeID})
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	return r.list(ctx, q, filter, "number DESC", "number", "company_name")
}

// GetItems returns the frozen items of a quotation in line order.
func (r *QuotationRepo) GetItems(ctx context.Context, quotationID id.ID) ([]quotation.CalculatedItem, error) {
	sql, args, err := r.Builder().
		Select(r.itemCols...).
		From(quotationItemsTable).
		Where(squirrel.Eq{"quotation_id": quotationID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := make([]quotation.CalculatedItem, 0)
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	return items, nil
}

// SaveItems replaces the items of a quotation.
func (r *QuotationRepo) SaveItems(ctx context.Context, quotationID id.ID, items []quotation.CalculatedItem) error {
	querier := r.querier(ctx)

	if _, err := querier.Exec(ctx, "DELETE FROM "+quotationItemsTable+" WHERE quotation_id = $1", quotationID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(quotationItemsTable).
		Columns(append([]string{"quotation_id"}, r.itemCols...)...)
	for _, it := range items {
		row := postgres.StructToMap(it)
		values := make([]any, 0, len(r.itemCols)+1)
		values = append(values, quotationID)
		for _, col := range r.itemCols {
			values = append(values, row[col])
		}
		q = q.Values(values...)
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
