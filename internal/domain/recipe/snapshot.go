package recipe

import (
	"time"

	"github.com/shopspring/decimal"

	"recipecost/internal/core/id"
)

// Reason tags recorded on snapshots when the caller gives none.
const (
	ReasonCreated        = "created"
	ReasonItemAdded      = "item_added"
	ReasonItemRemoved    = "item_removed"
	ReasonPriceUpdate    = "price_update"
	ReasonQuantityUpdate = "quantity_update"
	ReasonVendorUpdate   = "vendor_update"
	ReasonDetailsUpdate  = "details_update"
)

// Snapshot is an immutable copy of a recipe's items and totals taken on save.
type Snapshot struct {
	ID       id.ID `db:"id" json:"id"`
	RecipeID id.ID `db:"recipe_id" json:"recipeId"`

	// RecipeVersion is the recipe version the snapshot was taken at.
	RecipeVersion int `db:"recipe_version" json:"recipeVersion"`

	Items                []Item          `db:"-" json:"items"`
	TotalRawMaterialCost decimal.Decimal `db:"total_raw_material_cost" json:"totalRawMaterialCost"`
	PricePerUnit         decimal.Decimal `db:"price_per_unit" json:"pricePerUnit"`
	BatchSize            decimal.Decimal `db:"batch_size" json:"batchSize"`

	SnapshotDate  time.Time `db:"snapshot_date" json:"snapshotDate"`
	ChangedBy     string    `db:"changed_by" json:"changedBy"`
	CreatedReason string    `db:"created_reason" json:"createdReason"`
}

// NewSnapshot copies the recipe state at the given instant.
func NewSnapshot(r *Recipe, changedBy, reason string, at time.Time) *Snapshot {
	items := make([]Item, len(r.Items))
	copy(items, r.Items)
	for i := range items {
		items[i].VendorID = cloneID(items[i].VendorID)
		items[i].BrandID = cloneID(items[i].BrandID)
	}

	return &Snapshot{
		ID:                   id.New(),
		RecipeID:             r.ID,
		RecipeVersion:        r.Version,
		Items:                items,
		TotalRawMaterialCost: r.TotalRawMaterialCost,
		PricePerUnit:         r.PricePerUnit,
		BatchSize:            r.BatchSize,
		SnapshotDate:         at.UTC(),
		ChangedBy:            changedBy,
		CreatedReason:        reason,
	}
}

func cloneID(v *id.ID) *id.ID {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// ItemsFrom returns a snapshot-shaped view of the recipe's current items,
// used to diff an unsaved edit against the last stored state.
func ItemsFrom(r *Recipe) Snapshot {
	return Snapshot{RecipeID: r.ID, Items: r.Items}
}
