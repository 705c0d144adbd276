package quotation

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"recipecost/internal/core/apperror"
	"recipecost/internal/core/entity"
	"recipecost/internal/core/id"
)

var validate = validator.New()

// Draft is an in-progress quotation. It owns its copy of the recipe and its
// overrides; nothing it does reaches the recipe or other drafts.
type Draft struct {
	source      Source
	requiredQty decimal.Decimal
	overrides   map[id.ID]Override
}

// NewDraft opens a draft over a frozen source.
func NewDraft(src Source) *Draft {
	items := make([]SourceItem, len(src.Items))
	copy(items, src.Items)
	src.Items = items

	return &Draft{
		source:    src,
		overrides: make(map[id.ID]Override),
	}
}

// Source returns the frozen recipe copy.
func (d *Draft) Source() Source {
	return d.source
}

// RequiredQty returns the current target quantity.
func (d *Draft) RequiredQty() decimal.Decimal {
	return d.requiredQty
}

// SetRequiredQty changes the target quantity.
func (d *Draft) SetRequiredQty(qty decimal.Decimal) {
	d.requiredQty = qty
}

// ApplyOverride sets the vendor and price for one raw material of the draft,
// replacing any earlier override for it.
func (d *Draft) ApplyOverride(rawMaterialID id.ID, ov Override) error {
	if !d.hasItem(rawMaterialID) {
		return apperror.NewFieldValidation(map[string]string{
			"rawMaterialId": "raw material is not part of the recipe",
		})
	}
	if ov.Price.IsNegative() {
		return apperror.NewFieldValidation(map[string]string{
			"price": "price must not be negative",
		})
	}
	d.overrides[rawMaterialID] = ov
	return nil
}

// ClearOverride restores the recipe price of a raw material.
func (d *Draft) ClearOverride(rawMaterialID id.ID) {
	delete(d.overrides, rawMaterialID)
}

// Overrides returns a copy of the active overrides.
func (d *Draft) Overrides() map[id.ID]Override {
	out := make(map[id.ID]Override, len(d.overrides))
	for k, v := range d.overrides {
		out[k] = v
	}
	return out
}

// Calculation scales the source with the current quantity and overrides.
func (d *Draft) Calculation() (Calculation, error) {
	return Scale(d.source, d.requiredQty, d.overrides)
}

func (d *Draft) hasItem(rawMaterialID id.ID) bool {
	for _, it := range d.source.Items {
		if it.RawMaterialID == rawMaterialID {
			return true
		}
	}
	return false
}

// Meta is the customer information a quotation is created with.
type Meta struct {
	CompanyName string `json:"companyName"`
	Reason      string `json:"reason"`
	Unit        string `json:"unit"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Notes       string `json:"notes,omitempty"`
}

// Create validates the draft and folds it into a pending Quotation.
// Every offending field is reported at once.
func (d *Draft) Create(meta Meta) (*Quotation, error) {
	errs := make(map[string]string)
	required := map[string]string{
		"companyName": meta.CompanyName,
		"reason":      meta.Reason,
		"unit":        meta.Unit,
		"phone":       meta.Phone,
		"email":       meta.Email,
	}
	for field, v := range required {
		if strings.TrimSpace(v) == "" {
			errs[field] = field + " is required"
		}
	}
	if _, ok := errs["email"]; !ok {
		if err := validate.Var(strings.TrimSpace(meta.Email), "email"); err != nil {
			errs["email"] = "email is not valid"
		}
	}
	if !d.requiredQty.IsPositive() {
		errs["quantity"] = "quantity must be greater than zero"
	}

	calc, err := d.Calculation()
	if err != nil {
		return nil, err
	}
	if d.requiredQty.IsPositive() && calc.IsEmpty() {
		errs["items"] = "at least one item is required"
	}
	if len(errs) > 0 {
		return nil, apperror.NewFieldValidation(errs)
	}

	var missing []string
	for _, it := range calc.Items {
		if !it.UnitPrice.IsPositive() {
			missing = append(missing, it.RawMaterialID.String())
		}
	}
	if len(missing) > 0 {
		return nil, apperror.NewMissingPrice(missing)
	}

	return &Quotation{
		BaseDocument:    entity.NewBaseDocument(),
		RecipeID:        d.source.RecipeID,
		RecipeName:      d.source.RecipeName,
		RecipeCode:      d.source.RecipeCode,
		CompanyName:     strings.TrimSpace(meta.CompanyName),
		Reason:          strings.TrimSpace(meta.Reason),
		Unit:            strings.TrimSpace(meta.Unit),
		Phone:           strings.TrimSpace(meta.Phone),
		Email:           strings.TrimSpace(meta.Email),
		Notes:           meta.Notes,
		RequiredQty:     calc.RequiredQty,
		MasterBatchQty:  calc.MasterBatchQty,
		ScalingFactor:   calc.ScalingFactor,
		TotalRecipeCost: calc.TotalRecipeCost,
		PerUnitCost:     calc.PerUnitCost,
		Status:          StatusPending,
		Items:           calc.Items,
	}, nil
}
