package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"recipecost/internal/core/id"
	"recipecost/internal/domain/catalogs/rawmaterial"
)

// UpsertRawMaterialRequest creates or renames a raw material.
type UpsertRawMaterialRequest struct {
	ID       *string `json:"id,omitempty"`
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	UnitID   string  `json:"unitId"`
	UnitName string  `json:"unitName,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *UpsertRawMaterialRequest) ToEntity() (*rawmaterial.RawMaterial, error) {
	errs := idErrors{}
	m := &rawmaterial.RawMaterial{
		Code:     r.Code,
		Name:     r.Name,
		UnitID:   r.UnitID,
		UnitName: r.UnitName,
	}
	if v := errs.parseOptional("id", r.ID); v != nil {
		m.ID = *v
	}
	if err := errs.err(); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordVendorPriceRequest records one observed vendor price.
type RecordVendorPriceRequest struct {
	VendorID         string          `json:"vendorId"`
	VendorName       string          `json:"vendorName"`
	BrandID          *string         `json:"brandId,omitempty"`
	BrandName        *string         `json:"brandName,omitempty"`
	Price            decimal.Decimal `json:"price"`
	LastPurchaseDate *time.Time      `json:"lastPurchaseDate,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *RecordVendorPriceRequest) ToEntity(rawMaterialID id.ID) (*rawmaterial.VendorPrice, error) {
	errs := idErrors{}
	p := &rawmaterial.VendorPrice{
		RawMaterialID:    rawMaterialID,
		VendorID:         errs.parse("vendorId", r.VendorID),
		VendorName:       r.VendorName,
		BrandID:          errs.parseOptional("brandId", r.BrandID),
		BrandName:        r.BrandName,
		Price:            r.Price,
		LastPurchaseDate: r.LastPurchaseDate,
	}
	if err := errs.err(); err != nil {
		return nil, err
	}
	return p, nil
}
