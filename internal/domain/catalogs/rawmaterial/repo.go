package rawmaterial

import (
	"context"

	"recipecost/internal/core/id"
	"recipecost/internal/domain"
)

// Repository reads the raw material catalog and vendor price history.
// Upsert and RecordPrice exist for seeding and imports.
type Repository interface {
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*RawMaterial], error)
	GetByID(ctx context.Context, rawMaterialID id.ID) (*RawMaterial, error)

	// VendorPrices returns price records newest first.
	VendorPrices(ctx context.Context, rawMaterialID id.ID) ([]VendorPrice, error)

	Upsert(ctx context.Context, m *RawMaterial) error
	RecordPrice(ctx context.Context, p *VendorPrice) error
}
