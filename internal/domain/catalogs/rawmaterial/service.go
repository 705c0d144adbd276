package rawmaterial

import (
	"context"
	"fmt"
	"time"

	"recipecost/internal/core/apperror"
	"recipecost/internal/core/id"
	"recipecost/internal/domain"
	"recipecost/pkg/logger"
)

// Service provides raw material catalog lookups.
type Service struct {
	repo Repository
}

// NewService creates a new raw material service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns catalog entries with their latest price.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*RawMaterial], error) {
	return s.repo.List(ctx, filter.Normalize())
}

// GetByID returns one catalog entry.
func (s *Service) GetByID(ctx context.Context, rawMaterialID id.ID) (*RawMaterial, error) {
	return s.repo.GetByID(ctx, rawMaterialID)
}

// VendorPrices returns the price history of a raw material, newest first.
func (s *Service) VendorPrices(ctx context.Context, rawMaterialID id.ID) ([]VendorPrice, error) {
	if _, err := s.repo.GetByID(ctx, rawMaterialID); err != nil {
		return nil, err
	}
	prices, err := s.repo.VendorPrices(ctx, rawMaterialID)
	if err != nil {
		return nil, fmt.Errorf("vendor prices: %w", err)
	}
	return prices, nil
}

// ResolvePrice returns the newest price of a raw material from vendorID,
// narrowed to brandID when given.
func (s *Service) ResolvePrice(ctx context.Context, rawMaterialID, vendorID id.ID, brandID *id.ID) (*VendorPrice, error) {
	prices, err := s.repo.VendorPrices(ctx, rawMaterialID)
	if err != nil {
		return nil, fmt.Errorf("vendor prices: %w", err)
	}
	for i := range prices {
		if prices[i].Matches(vendorID, brandID) {
			return &prices[i], nil
		}
	}
	return nil, apperror.NewNotFound("vendor price", rawMaterialID).
		WithDetail("vendorId", vendorID)
}

// Upsert creates or replaces a catalog entry.
func (s *Service) Upsert(ctx context.Context, m *RawMaterial) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(m.ID) {
		m.ID = id.New()
	}
	if err := s.repo.Upsert(ctx, m); err != nil {
		return fmt.Errorf("upsert raw material: %w", err)
	}
	logger.Debug(ctx, "raw material upserted", "id", m.ID, "code", m.Code)
	return nil
}

// RecordPrice appends a vendor price observation.
func (s *Service) RecordPrice(ctx context.Context, p *VendorPrice) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(p.ID) {
		p.ID = id.New()
	}
	if p.RecordedAt.IsZero() {
		p.RecordedAt = time.Now().UTC()
	}
	if err := s.repo.RecordPrice(ctx, p); err != nil {
		return fmt.Errorf("record price: %w", err)
	}
	return nil
}
