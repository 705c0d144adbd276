package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"recipecost/internal/core/id"
	"recipecost/internal/domain/recipe"
)

// --- Request DTOs ---

// RecipeItemRequest is one raw material line in a save request.
// totalPrice is never accepted; it is always recomputed.
type RecipeItemRequest struct {
	RawMaterialID   string          `json:"rawMaterialId"`
	RawMaterialName string          `json:"rawMaterialName"`
	RawMaterialCode string          `json:"rawMaterialCode,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitID          string          `json:"unitId,omitempty"`
	UnitName        string          `json:"unitName,omitempty"`
	Price           decimal.Decimal `json:"price"`
	VendorID        *string         `json:"vendorId,omitempty"`
	VendorName      string          `json:"vendorName,omitempty"`
	BrandID         *string         `json:"brandId,omitempty"`
	BrandName       string          `json:"brandName,omitempty"`
}

func toItems(reqs []RecipeItemRequest, errs idErrors) []recipe.Item {
	items := make([]recipe.Item, len(reqs))
	for i, r := range reqs {
		prefix := fmt.Sprintf("items[%d].", i)
		items[i] = recipe.Item{
			RawMaterialID:   errs.parse(prefix+"rawMaterialId", r.RawMaterialID),
			RawMaterialName: r.RawMaterialName,
			RawMaterialCode: r.RawMaterialCode,
			Quantity:        r.Quantity,
			UnitID:          r.UnitID,
			UnitName:        r.UnitName,
			Price:           r.Price,
			VendorID:        errs.parseOptional(prefix+"vendorId", r.VendorID),
			VendorName:      r.VendorName,
			BrandID:         errs.parseOptional(prefix+"brandId", r.BrandID),
			BrandName:       r.BrandName,
		}
	}
	return items
}

// CreateRecipeRequest represents a request to create a recipe.
type CreateRecipeRequest struct {
	Name               string              `json:"name"`
	Code               string              `json:"code,omitempty"`
	BatchSize          decimal.Decimal     `json:"batchSize"`
	UnitID             string              `json:"unitId"`
	UnitName           string              `json:"unitName,omitempty"`
	Yield              decimal.NullDecimal `json:"yield"`
	MoisturePercentage decimal.NullDecimal `json:"moisturePercentage"`
	Items              []RecipeItemRequest `json:"items"`

	// Reason is recorded on the history snapshot.
	Reason string `json:"reason,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateRecipeRequest) ToEntity() (*recipe.Recipe, error) {
	errs := idErrors{}
	rec := recipe.NewRecipe(r.Name, r.BatchSize, r.UnitID)
	r.apply(rec, errs)
	if err := errs.err(); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *CreateRecipeRequest) apply(rec *recipe.Recipe, errs idErrors) {
	rec.Name = r.Name
	rec.Code = r.Code
	rec.BatchSize = r.BatchSize
	rec.UnitID = r.UnitID
	rec.UnitName = r.UnitName
	rec.Yield = r.Yield
	rec.MoisturePercentage = r.MoisturePercentage
	rec.SetItems(toItems(r.Items, errs))
}

// UpdateRecipeRequest replaces the whole recipe.
// Version must equal the version the client last read.
type UpdateRecipeRequest struct {
	CreateRecipeRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateRecipeRequest) ApplyTo(rec *recipe.Recipe) error {
	errs := idErrors{}
	r.apply(rec, errs)
	rec.Version = r.Version
	return errs.err()
}

// SaveItemsRequest replaces only the items of a recipe.
type SaveItemsRequest struct {
	Version int                 `json:"version" binding:"required,min=1"`
	Items   []RecipeItemRequest `json:"items"`
	Reason  string              `json:"reason,omitempty"`
}

// ToItems converts the request lines.
func (r *SaveItemsRequest) ToItems() ([]recipe.Item, error) {
	errs := idErrors{}
	items := toItems(r.Items, errs)
	if err := errs.err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CompareSnapshotsRequest selects exactly two snapshots of one recipe.
type CompareSnapshotsRequest struct {
	SnapshotIDs []string `json:"snapshotIds"`
}

// --- Response DTOs ---

// RecipeDisplay holds the recipe totals rounded for presentation.
type RecipeDisplay struct {
	TotalRawMaterialCost decimal.Decimal `json:"totalRawMaterialCost"`
	PricePerUnit         decimal.Decimal `json:"pricePerUnit"`
}

// RecipeResponse represents a recipe in API responses.
type RecipeResponse struct {
	ID                   string              `json:"id"`
	Version              int                 `json:"version"`
	Name                 string              `json:"name"`
	Code                 string              `json:"code"`
	BatchSize            decimal.Decimal     `json:"batchSize"`
	UnitID               string              `json:"unitId"`
	UnitName             string              `json:"unitName"`
	Yield                decimal.NullDecimal `json:"yield"`
	MoisturePercentage   decimal.NullDecimal `json:"moisturePercentage"`
	TotalRawMaterialCost decimal.Decimal     `json:"totalRawMaterialCost"`
	PricePerUnit         decimal.Decimal     `json:"pricePerUnit"`
	Items                []recipe.Item       `json:"items,omitempty"`
	Display              RecipeDisplay       `json:"display"`
	CreatedAt            time.Time           `json:"createdAt"`
	UpdatedAt            time.Time           `json:"updatedAt"`
	CreatedBy            string              `json:"createdBy,omitempty"`
	UpdatedBy            string              `json:"updatedBy,omitempty"`
}

// FromRecipe converts domain entity to response DTO.
func FromRecipe(r *recipe.Recipe) RecipeResponse {
	return RecipeResponse{
		ID:                   r.ID.String(),
		Version:              r.Version,
		Name:                 r.Name,
		Code:                 r.Code,
		BatchSize:            r.BatchSize,
		UnitID:               r.UnitID,
		UnitName:             r.UnitName,
		Yield:                r.Yield,
		MoisturePercentage:   r.MoisturePercentage,
		TotalRawMaterialCost: r.TotalRawMaterialCost,
		PricePerUnit:         r.PricePerUnit,
		Items:                r.Items,
		Display: RecipeDisplay{
			TotalRawMaterialCost: display(r.TotalRawMaterialCost),
			PricePerUnit:         display(r.PricePerUnit),
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		CreatedBy: r.CreatedBy,
		UpdatedBy: r.UpdatedBy,
	}
}

// FromRecipeSummary drops the items, for list views.
func FromRecipeSummary(r *recipe.Recipe) RecipeResponse {
	resp := FromRecipe(r)
	resp.Items = nil
	return resp
}

// SnapshotResponse is one history entry.
type SnapshotResponse struct {
	recipe.Snapshot
	Display RecipeDisplay `json:"display"`
}

// FromSnapshots converts history entries, newest first as stored.
func FromSnapshots(snaps []recipe.Snapshot) []SnapshotResponse {
	out := make([]SnapshotResponse, len(snaps))
	for i, s := range snaps {
		out[i] = SnapshotResponse{
			Snapshot: s,
			Display: RecipeDisplay{
				TotalRawMaterialCost: display(s.TotalRawMaterialCost),
				PricePerUnit:         display(s.PricePerUnit),
			},
		}
	}
	return out
}

// ComparisonResponse is the diff of two snapshots.
type ComparisonResponse struct {
	Newer   SnapshotResponse      `json:"newer"`
	Older   SnapshotResponse      `json:"older"`
	Changes []recipe.ChangeRecord `json:"changes"`
}

// FromComparison converts a snapshot comparison.
func FromComparison(c *recipe.Comparison) ComparisonResponse {
	snaps := FromSnapshots([]recipe.Snapshot{c.Newer, c.Older})
	changes := c.Changes
	if changes == nil {
		changes = []recipe.ChangeRecord{}
	}
	return ComparisonResponse{Newer: snaps[0], Older: snaps[1], Changes: changes}
}

// ParseSnapshotIDs validates the compare request.
func (r *CompareSnapshotsRequest) ParseSnapshotIDs() ([]id.ID, error) {
	return ParseIDs("snapshotIds", r.SnapshotIDs)
}
