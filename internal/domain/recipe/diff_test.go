package recipe

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipecost/internal/core/id"
)

func snapshotOf(items ...Item) Snapshot {
	r := NewRecipe("Mix", d("100"), "kg")
	r.SetItems(items)
	return *NewSnapshot(r, "tester", "", time.Now())
}

func TestDiff_PriceChangeSymmetry(t *testing.T) {
	rm := id.New()
	older := snapshotOf(item(rm, "Chilli", "50", "10"))
	newer := snapshotOf(item(rm, "Chilli", "50", "12"))

	forward := Diff(newer, older)
	require.Len(t, forward, 1)
	assert.Equal(t, ChangePrice, forward[0].Type)
	assert.True(t, forward[0].OldValue.(decimal.Decimal).Equal(d("10")))
	assert.True(t, forward[0].NewValue.(decimal.Decimal).Equal(d("12")))

	backward := Diff(older, newer)
	require.Len(t, backward, 1)
	assert.Equal(t, ChangePrice, backward[0].Type)
	assert.True(t, backward[0].OldValue.(decimal.Decimal).Equal(d("12")))
	assert.True(t, backward[0].NewValue.(decimal.Decimal).Equal(d("10")))
}

func TestDiff_MultipleChangesOrdered(t *testing.T) {
	a, b, c, e := id.New(), id.New(), id.New(), id.New()

	oldA := item(a, "A", "1", "10")
	oldA.VendorName = "Acme"
	newA := item(a, "A", "2", "11")
	newA.VendorName = "Globex"

	older := snapshotOf(oldA, item(b, "B", "1", "1"), item(c, "C", "1", "1"))
	newer := snapshotOf(item(e, "E", "4", "4"), newA, item(c, "C", "1", "1"))

	changes := Diff(newer, older)

	var got []ChangeType
	for _, ch := range changes {
		got = append(got, ch.Type)
	}
	assert.Equal(t, []ChangeType{ChangeAdded, ChangePrice, ChangeQuantity, ChangeVendor, ChangeRemoved}, got)

	assert.Equal(t, e, changes[0].RawMaterialID)
	assert.Nil(t, changes[0].OldValue)
	assert.Equal(t, "Acme", changes[3].OldValue)
	assert.Equal(t, "Globex", changes[3].NewValue)
	assert.Equal(t, b, changes[4].RawMaterialID)
	assert.Nil(t, changes[4].NewValue)
}

func TestDiff_IdenticalAndEmpty(t *testing.T) {
	rm := id.New()
	s := snapshotOf(item(rm, "A", "1", "1"))

	assert.Empty(t, Diff(s, s))
	assert.Empty(t, Diff(Snapshot{}, Snapshot{}))

	added := Diff(s, Snapshot{})
	require.Len(t, added, 1)
	assert.Equal(t, ChangeAdded, added[0].Type)
}

func TestDiff_DoesNotMutate(t *testing.T) {
	rm := id.New()
	older := snapshotOf(item(rm, "A", "1", "1"))
	newer := snapshotOf(item(rm, "A", "2", "3"))
	before := older.Items[0]

	_ = Diff(newer, older)

	assert.Equal(t, before, older.Items[0])
}

func TestNewSnapshot_IsDetachedCopy(t *testing.T) {
	vendor := id.New()
	r := NewRecipe("Mix", d("100"), "kg")
	it := item(id.New(), "A", "1", "10")
	it.VendorID = &vendor
	require.NoError(t, r.AddItem(it))

	snap := NewSnapshot(r, "asha", ReasonCreated, time.Now())
	*r.Items[0].VendorID = id.New()
	require.NoError(t, r.EditItem(0, item(it.RawMaterialID, "A", "5", "99")))

	assert.True(t, snap.Items[0].Price.Equal(d("10")))
	assert.Equal(t, vendor, *snap.Items[0].VendorID)
	assert.True(t, snap.TotalRawMaterialCost.Equal(d("10")))
	assert.Equal(t, "asha", snap.ChangedBy)
}

func TestDeriveReason(t *testing.T) {
	assert.Equal(t, ReasonDetailsUpdate, DeriveReason(nil))
	assert.Equal(t, ReasonItemAdded, DeriveReason([]ChangeRecord{{Type: ChangeAdded}}))
	assert.Equal(t, ReasonPriceUpdate, DeriveReason([]ChangeRecord{{Type: ChangePrice}, {Type: ChangeRemoved}}))
	assert.Equal(t, ReasonItemRemoved, DeriveReason([]ChangeRecord{{Type: ChangeRemoved}}))
}
