// Package rawmaterial provides read access to the raw material catalog and
// the vendor price history recipes and quotations draw their prices from.
package rawmaterial

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"recipecost/internal/core/apperror"
	"recipecost/internal/core/id"
)

// RawMaterial is one catalog entry with its most recent price.
type RawMaterial struct {
	ID       id.ID  `db:"id" json:"id"`
	Code     string `db:"code" json:"code"`
	Name     string `db:"name" json:"name"`
	UnitID   string `db:"unit_id" json:"unitId"`
	UnitName string `db:"unit_name" json:"unitName"`

	// Derived from the latest vendor price record.
	LastPrice  decimal.Decimal `db:"last_price" json:"lastPrice"`
	VendorID   *id.ID          `db:"vendor_id" json:"vendorId,omitempty"`
	VendorName *string         `db:"vendor_name" json:"vendorName,omitempty"`
	BrandIDs   []string        `db:"brand_ids" json:"brandIds"`
	BrandNames []string        `db:"brand_names" json:"brandNames"`
}

// Validate implements entity.Validatable.
func (m *RawMaterial) Validate(ctx context.Context) error {
	errs := make(map[string]string)
	if strings.TrimSpace(m.Name) == "" {
		errs["name"] = "name is required"
	}
	if strings.TrimSpace(m.Code) == "" {
		errs["code"] = "code is required"
	}
	if strings.TrimSpace(m.UnitID) == "" {
		errs["unitId"] = "unit is required"
	}
	if len(errs) > 0 {
		return apperror.NewFieldValidation(errs)
	}
	return nil
}

// VendorPrice is one observed price of a raw material from a vendor.
type VendorPrice struct {
	ID               id.ID           `db:"id" json:"id"`
	RawMaterialID    id.ID           `db:"raw_material_id" json:"rawMaterialId"`
	VendorID         id.ID           `db:"vendor_id" json:"vendorId"`
	VendorName       string          `db:"vendor_name" json:"vendorName"`
	BrandID          *id.ID          `db:"brand_id" json:"brandId,omitempty"`
	BrandName        *string         `db:"brand_name" json:"brandName,omitempty"`
	Price            decimal.Decimal `db:"price" json:"price"`
	LastPurchaseDate *time.Time      `db:"last_purchase_date" json:"lastPurchaseDate,omitempty"`
	RecordedAt       time.Time       `db:"recorded_at" json:"recordedAt"`
}

// Validate implements entity.Validatable.
func (p *VendorPrice) Validate(ctx context.Context) error {
	errs := make(map[string]string)
	if id.IsNil(p.RawMaterialID) {
		errs["rawMaterialId"] = "raw material is required"
	}
	if id.IsNil(p.VendorID) {
		errs["vendorId"] = "vendor is required"
	}
	if strings.TrimSpace(p.VendorName) == "" {
		errs["vendorName"] = "vendor name is required"
	}
	if p.Price.IsNegative() {
		errs["price"] = "price must not be negative"
	}
	if len(errs) > 0 {
		return apperror.NewFieldValidation(errs)
	}
	return nil
}

// Matches reports whether the record is for vendorID and, when brandID is set, that brand.
func (p *VendorPrice) Matches(vendorID id.ID, brandID *id.ID) bool {
	if p.VendorID != vendorID {
		return false
	}
	if brandID == nil {
		return true
	}
	return p.BrandID != nil && *p.BrandID == *brandID
}
