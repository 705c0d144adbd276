package recipe

import (
	"recipecost/internal/core/id"
)

// ChangeType classifies one difference between two snapshots.
type ChangeType string

const (
	ChangePrice    ChangeType = "price_change"
	ChangeQuantity ChangeType = "quantity_change"
	ChangeVendor   ChangeType = "vendor_change"
	ChangeRemoved  ChangeType = "item_removed"
	ChangeAdded    ChangeType = "item_added"
)

// ChangeRecord describes one change of one raw material.
// OldValue/NewValue hold a decimal for price and quantity, the vendor name for
// vendor changes, and the whole Item for additions and removals.
type ChangeRecord struct {
	Type            ChangeType `json:"type"`
	RawMaterialID   id.ID      `json:"rawMaterialId"`
	RawMaterialName string     `json:"rawMaterialName"`
	RawMaterialCode string     `json:"rawMaterialCode,omitempty"`
	OldValue        any        `json:"oldValue"`
	NewValue        any        `json:"newValue"`
}

// Diff compares newer against older and reports every change per raw material.
//
// Records follow newer's item order, then items removed since older in
// older's order. Per item the order is price, quantity, vendor. Neither
// snapshot is modified.
func Diff(newer, older Snapshot) []ChangeRecord {
	oldByID := make(map[id.ID]Item, len(older.Items))
	for _, it := range older.Items {
		oldByID[it.RawMaterialID] = it
	}

	changes := make([]ChangeRecord, 0)
	seen := make(map[id.ID]struct{}, len(newer.Items))

	for _, cur := range newer.Items {
		seen[cur.RawMaterialID] = struct{}{}

		prev, ok := oldByID[cur.RawMaterialID]
		if !ok {
			changes = append(changes, record(ChangeAdded, cur, nil, cur))
			continue
		}

		if !cur.Price.Equal(prev.Price) {
			changes = append(changes, record(ChangePrice, cur, prev.Price, cur.Price))
		}
		if !cur.Quantity.Equal(prev.Quantity) {
			changes = append(changes, record(ChangeQuantity, cur, prev.Quantity, cur.Quantity))
		}
		if cur.VendorName != prev.VendorName {
			changes = append(changes, record(ChangeVendor, cur, prev.VendorName, cur.VendorName))
		}
	}

	for _, prev := range older.Items {
		if _, ok := seen[prev.RawMaterialID]; ok {
			continue
		}
		changes = append(changes, record(ChangeRemoved, prev, prev, nil))
	}

	return changes
}

func record(t ChangeType, it Item, oldValue, newValue any) ChangeRecord {
	return ChangeRecord{
		Type:            t,
		RawMaterialID:   it.RawMaterialID,
		RawMaterialName: it.RawMaterialName,
		RawMaterialCode: it.RawMaterialCode,
		OldValue:        oldValue,
		NewValue:        newValue,
	}
}

// DeriveReason picks a snapshot tag from the changes of one save.
// The first change decides; a save with no item changes is a details update.
func DeriveReason(changes []ChangeRecord) string {
	if len(changes) == 0 {
		return ReasonDetailsUpdate
	}
	switch changes[0].Type {
	case ChangeAdded:
		return ReasonItemAdded
	case ChangeRemoved:
		return ReasonItemRemoved
	case ChangePrice:
		return ReasonPriceUpdate
	case ChangeQuantity:
		return ReasonQuantityUpdate
	case ChangeVendor:
		return ReasonVendorUpdate
	}
	return ReasonDetailsUpdate
}
