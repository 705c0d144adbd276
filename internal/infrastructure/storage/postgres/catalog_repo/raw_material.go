// Package catalog_repo provides PostgreSQL repositories for reference catalogs.
package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"recipecost/internal/core/apperror"
	"recipecost/internal/core/id"
	"recipecost/internal/domain"
	"recipecost/internal/domain/catalogs/rawmaterial"
	"recipecost/internal/infrastructure/storage/postgres"
)

const (
	rawMaterialsTable = "cat_raw_materials"
	vendorPricesTable = "reg_vendor_prices"
)

// rawMaterialSelect joins each catalog row with its newest price record and
// the distinct brands it has been bought under.
const rawMaterialSelect = `
	SELECT m.id, m.code, m.name, m.unit_id, m.unit_name,
		COALESCE(latest.price, 0) AS last_price,
		latest.vendor_id, latest.vendor_name,
		COALESCE(brands.ids, '{}') AS brand_ids,
		COALESCE(brands.names, '{}') AS brand_names
	FROM ` + rawMaterialsTable + ` m
	LEFT JOIN LATERAL (
		SELECT p.price, p.vendor_id, p.vendor_name
		FROM ` + vendorPricesTable + ` p
		WHERE p.raw_material_id = m.id
		ORDER BY p.recorded_at DESC
		LIMIT 1
	) latest ON TRUE
	LEFT JOIN LATERAL (
		SELECT array_agg(b.brand_id::text ORDER BY b.first_seen) AS ids,
			array_agg(b.brand_name ORDER BY b.first_seen) AS names
		FROM (
			SELECT p.brand_id, COALESCE(MAX(p.brand_name), '') AS brand_name, MIN(p.recorded_at) AS first_seen
			FROM ` + vendorPricesTable + ` p
			WHERE p.raw_material_id = m.id AND p.brand_id IS NOT NULL
			GROUP BY p.brand_id
		) b
	) brands ON TRUE`

var vendorPriceCols = postgres.ExtractDBColumns[rawmaterial.VendorPrice]()

// RawMaterialRepo implements rawmaterial.Repository.
type RawMaterialRepo struct {
	txManager *postgres.TxManager
}

var _ rawmaterial.Repository = (*RawMaterialRepo)(nil)

// NewRawMaterialRepo creates a new raw material repository.
func NewRawMaterialRepo(txManager *postgres.TxManager) *RawMaterialRepo {
	return &RawMaterialRepo{txManager: txManager}
}

func (r *RawMaterialRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// List returns catalog entries ordered by name.
func (r *RawMaterialRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*rawmaterial.RawMaterial], error) {
	result := domain.ListResult[*rawmaterial.RawMaterial]{
		Items:  make([]*rawmaterial.RawMaterial, 0),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	where := squirrel.And{}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
		})
	}

	countSQL, countArgs, err := r.builder().
		Select("COUNT(*)").
		From(rawMaterialsTable).
		Where(where).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q := r.builder().
		Select("*").
		From("(" + rawMaterialSelect + ") rm").
		Where(where).
		OrderBy("name")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list raw materials: %w", err)
	}
	return result, nil
}

// GetByID returns one catalog entry.
func (r *RawMaterialRepo) GetByID(ctx context.Context, rawMaterialID id.ID) (*rawmaterial.RawMaterial, error) {
	var rm rawmaterial.RawMaterial
	err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &rm, rawMaterialSelect+" WHERE m.id = $1", rawMaterialID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("raw material", rawMaterialID)
		}
		return nil, fmt.Errorf("get raw material: %w", err)
	}
	return &rm, nil
}

// VendorPrices returns price records newest first.
func (r *RawMaterialRepo) VendorPrices(ctx context.Context, rawMaterialID id.ID) ([]rawmaterial.VendorPrice, error) {
	sql, args, err := r.builder().
		Select(vendorPriceCols...).
		From(vendorPricesTable).
		Where(squirrel.Eq{"raw_material_id": rawMaterialID}).
		OrderBy("recorded_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	prices := make([]rawmaterial.VendorPrice, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &prices, sql, args...); err != nil {
		return nil, fmt.Errorf("vendor prices: %w", err)
	}
	return prices, nil
}

// Upsert creates or replaces a catalog entry by id.
func (r *RawMaterialRepo) Upsert(ctx context.Context, m *rawmaterial.RawMaterial) error {
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO `+rawMaterialsTable+` (id, code, name, unit_id, unit_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			code = EXCLUDED.code,
			name = EXCLUDED.name,
			unit_id = EXCLUDED.unit_id,
			unit_name = EXCLUDED.unit_name
	`, m.ID, m.Code, m.Name, m.UnitID, m.UnitName)
	if err != nil {
		return fmt.Errorf("upsert raw material: %w", err)
	}
	return nil
}

// RecordPrice appends a vendor price record.
func (r *RawMaterialRepo) RecordPrice(ctx context.Context, p *rawmaterial.VendorPrice) error {
	sql, args, err := r.builder().
		Insert(vendorPricesTable).
		SetMap(postgres.Pick(postgres.StructToMap(p), vendorPriceCols)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NewNotFound("raw material", p.RawMaterialID).WithCause(err)
		}
		return fmt.Errorf("record price: %w", err)
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
