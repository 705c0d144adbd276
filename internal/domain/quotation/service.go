package quotation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"recipecost/internal/core/apperror"
	appctx "recipecost/internal/core/context"
	"recipecost/internal/core/id"
	"recipecost/internal/core/tx"
	"recipecost/internal/domain"
	"recipecost/internal/domain/catalogs/rawmaterial"
	"recipecost/internal/domain/recipe"
	"recipecost/pkg/logger"
)

// NumberPrefix prefixes quotation numbers (QT-2026-00001).
const NumberPrefix = "QT"

// RecipeReader loads the recipe a quotation is built from.
type RecipeReader interface {
	GetByID(ctx context.Context, recipeID id.ID) (*recipe.Recipe, error)
}

// PriceResolver looks up the newest vendor price of a raw material.
type PriceResolver interface {
	ResolvePrice(ctx context.Context, rawMaterialID, vendorID id.ID, brandID *id.ID) (*rawmaterial.VendorPrice, error)
}

// Numerator issues quotation numbers.
type Numerator interface {
	Next(ctx context.Context, prefix string) (string, error)
}

// OverrideRequest selects another vendor for one raw material.
// Without a price the newest recorded price of that vendor is used.
type OverrideRequest struct {
	RawMaterialID id.ID               `json:"rawMaterialId"`
	VendorID      *id.ID              `json:"vendorId,omitempty"`
	VendorName    string              `json:"vendorName,omitempty"`
	BrandID       *id.ID              `json:"brandId,omitempty"`
	BrandName     string              `json:"brandName,omitempty"`
	Price         decimal.NullDecimal `json:"price"`
}

// PreviewRequest is the input of a scaling preview.
type PreviewRequest struct {
	RequiredQty decimal.Decimal   `json:"requiredQty"`
	Overrides   []OverrideRequest `json:"overrides,omitempty"`
}

// CreateRequest is the input of quotation creation.
type CreateRequest struct {
	PreviewRequest
	Meta
}

// Service provides quotation operations.
type Service struct {
	repo      Repository
	recipes   RecipeReader
	prices    PriceResolver
	numerator Numerator
	txManager tx.Manager
	hooks     *domain.HookRegistry[*Quotation]
}

// NewService creates a new quotation service.
func NewService(
	repo Repository,
	recipes RecipeReader,
	prices PriceResolver,
	numerator Numerator,
	txManager tx.Manager,
) *Service {
	svc := &Service{
		repo:      repo,
		recipes:   recipes,
		prices:    prices,
		numerator: numerator,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Quotation](),
	}

	svc.hooks.OnBeforeCreate(svc.validate)
	svc.hooks.OnBeforeUpdate(svc.validate)

	return svc
}

// validate rejects a quotation that would be stored in an inconsistent state.
func (s *Service) validate(ctx context.Context, q *Quotation) error {
	return q.Validate(ctx)
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Quotation] {
	return s.hooks
}

// Preview scales the current recipe without saving anything.
func (s *Service) Preview(ctx context.Context, recipeID id.ID, req PreviewRequest) (Calculation, error) {
	draft, err := s.buildDraft(ctx, recipeID, req)
	if err != nil {
		return Calculation{}, err
	}
	return draft.Calculation()
}

// Create scales the current recipe, validates the result and stores it as a pending quotation.
func (s *Service) Create(ctx context.Context, recipeID id.ID, req CreateRequest) (*Quotation, error) {
	draft, err := s.buildDraft(ctx, recipeID, req.PreviewRequest)
	if err != nil {
		return nil, err
	}

	q, err := draft.Create(req.Meta)
	if err != nil {
		return nil, err
	}
	q.Stamp(appctx.ChangedBy(ctx))

	if err := s.hooks.Run(ctx, domain.BeforeCreate, q); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numerator.Next(ctx, NumberPrefix)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		q.Number = number

		if err := s.repo.Create(ctx, q); err != nil {
			return fmt.Errorf("create quotation: %w", err)
		}
		if err := s.repo.SaveItems(ctx, q.ID, q.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, q); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "quotation created",
		"id", q.ID,
		"number", q.Number,
		"recipe_id", q.RecipeID,
		"total", q.TotalRecipeCost)

	return q, nil
}

// buildDraft opens a draft over the stored recipe and applies the requested overrides.
func (s *Service) buildDraft(ctx context.Context, recipeID id.ID, req PreviewRequest) (*Draft, error) {
	r, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	draft := NewDraft(SourceFromRecipe(r))
	draft.SetRequiredQty(req.RequiredQty)

	seen := make(map[id.ID]int, len(req.Overrides))
	for i, o := range req.Overrides {
		if first, dup := seen[o.RawMaterialID]; dup {
			return nil, apperror.NewFieldValidation(map[string]string{
				fmt.Sprintf("overrides[%d].rawMaterialId", i): fmt.Sprintf("raw material duplicates overrides[%d]", first),
			})
		}
		seen[o.RawMaterialID] = i

		ov := Override{
			VendorID:   o.VendorID,
			VendorName: o.VendorName,
			BrandID:    o.BrandID,
			BrandName:  o.BrandName,
			Price:      o.Price.Decimal,
		}

		if !o.Price.Valid {
			if o.VendorID == nil {
				return nil, apperror.NewFieldValidation(map[string]string{
					fmt.Sprintf("overrides[%d].vendorId", i): "vendor or price is required",
				})
			}
			ov.Price = s.resolvePrice(ctx, o, &ov)
		}

		if err := draft.ApplyOverride(o.RawMaterialID, ov); err != nil {
			return nil, err
		}
	}

	return draft, nil
}

// resolvePrice fills the override from the vendor price history.
// A failed lookup leaves the price at zero, which creation rejects as a missing price.
func (s *Service) resolvePrice(ctx context.Context, o OverrideRequest, ov *Override) decimal.Decimal {
	vp, err := s.prices.ResolvePrice(ctx, o.RawMaterialID, *o.VendorID, o.BrandID)
	if err != nil {
		logger.Warn(ctx, "vendor price lookup failed, price left empty",
			"component", "quotation",
			"raw_material_id", o.RawMaterialID,
			"vendor_id", *o.VendorID,
			"error", err)
		return decimal.Zero
	}
	if ov.VendorName == "" {
		ov.VendorName = vp.VendorName
	}
	if ov.BrandName == "" && vp.BrandName != nil {
		ov.BrandName = *vp.BrandName
	}
	return vp.Price
}

// GetByID retrieves a quotation with items.
func (s *Service) GetByID(ctx context.Context, quotationID id.ID) (*Quotation, error) {
	q, err := s.repo.GetByID(ctx, quotationID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, quotationID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	q.Items = items

	return q, nil
}

// ListByRecipe lists the quotations of a recipe, optionally by status.
func (s *Service) ListByRecipe(ctx context.Context, recipeID id.ID, filter domain.ListFilter) (domain.ListResult[*Quotation], error) {
	if filter.Status != "" {
		if _, ok := ParseStatus(filter.Status); !ok {
			return domain.ListResult[*Quotation]{}, apperror.NewFieldValidation(map[string]string{
				"status": "unknown status",
			})
		}
	}
	return s.repo.ListByRecipe(ctx, recipeID, filter.Normalize())
}

// Action is a status change request.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// SetStatus approves or rejects a pending quotation.
func (s *Service) SetStatus(ctx context.Context, quotationID id.ID, action Action) (*Quotation, error) {
	var q *Quotation
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if q, err = s.GetByID(ctx, quotationID); err != nil {
			return err
		}

		switch action {
		case ActionApprove:
			err = q.Approve()
		case ActionReject:
			err = q.Reject()
		default:
			err = apperror.NewValidation("unknown action").WithDetail("action", string(action))
		}
		if err != nil {
			return err
		}

		if err := s.hooks.Run(ctx, domain.BeforeUpdate, q); err != nil {
			return err
		}

		q.Stamp(appctx.ChangedBy(ctx))
		return s.repo.UpdateStatus(ctx, q)
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterUpdate, q); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}

	logger.Info(ctx, "quotation status changed",
		"id", q.ID,
		"number", q.Number,
		"status", q.Status)

	return q, nil
}

// Delete removes a quotation and its items.
func (s *Service) Delete(ctx context.Context, quotationID id.ID) error {
	var q *Quotation
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if q, err = s.repo.GetByID(ctx, quotationID); err != nil {
			return err
		}
		if err := s.hooks.Run(ctx, domain.BeforeDelete, q); err != nil {
			return err
		}
		return s.repo.Delete(ctx, quotationID)
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, domain.AfterDelete, q); err != nil {
		logger.Warn(ctx, "after-delete hook failed", "error", err)
	}

	logger.Info(ctx, "quotation deleted", "id", quotationID)
	return nil
}
