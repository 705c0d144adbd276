// Package memstore implements the domain repositories in memory.
// Used by service and handler tests, and by the server when no database is configured.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"recipecost/internal/core/apperror"
	"recipecost/internal/core/id"
	"recipecost/internal/domain"
	"recipecost/internal/domain/catalogs/rawmaterial"
	"recipecost/internal/domain/costing"
	"recipecost/internal/domain/quotation"
	"recipecost/internal/domain/recipe"
)

// Store holds every in-memory table behind one lock.
type Store struct {
	mu sync.RWMutex

	recipes     map[id.ID]recipe.Recipe
	recipeItems map[id.ID][]recipe.Item
	snapshots   map[id.ID][]recipe.Snapshot
	labour      map[id.ID]map[costing.LabourType][]costing.LabourEntry
	packaging   map[id.ID]recipe.PackagingCost
	quotations  map[id.ID]quotation.Quotation
	quoteItems  map[id.ID][]quotation.CalculatedItem
	materials   map[id.ID]rawmaterial.RawMaterial
	prices      map[id.ID][]rawmaterial.VendorPrice
	sequences   map[string]int64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		recipes:     make(map[id.ID]recipe.Recipe),
		recipeItems: make(map[id.ID][]recipe.Item),
		snapshots:   make(map[id.ID][]recipe.Snapshot),
		labour:      make(map[id.ID]map[costing.LabourType][]costing.LabourEntry),
		packaging:   make(map[id.ID]recipe.PackagingCost),
		quotations:  make(map[id.ID]quotation.Quotation),
		quoteItems:  make(map[id.ID][]quotation.CalculatedItem),
		materials:   make(map[id.ID]rawmaterial.RawMaterial),
		prices:      make(map[id.ID][]rawmaterial.VendorPrice),
		sequences:   make(map[string]int64),
	}
}

// Recipes returns the recipe.Repository view of the store.
func (s *Store) Recipes() *RecipeRepo { return &RecipeRepo{s} }

// History returns the recipe.HistoryRepository view of the store.
func (s *Store) History() *HistoryRepo { return &HistoryRepo{s} }

// Labour returns the recipe.LabourRepository view of the store.
func (s *Store) Labour() *LabourRepo { return &LabourRepo{s} }

// Packaging returns the recipe.PackagingRepository view of the store.
func (s *Store) Packaging() *PackagingRepo { return &PackagingRepo{s} }

// Quotations returns the quotation.Repository view of the store.
func (s *Store) Quotations() *QuotationRepo { return &QuotationRepo{s} }

// RawMaterials returns the rawmaterial.Repository view of the store.
func (s *Store) RawMaterials() *RawMaterialRepo { return &RawMaterialRepo{s} }

func page[T any](items []T, f domain.ListFilter) domain.ListResult[T] {
	f = f.Normalize()
	total := len(items)
	start := min(f.Offset, total)
	end := min(start+f.Limit, total)
	return domain.ListResult[T]{
		Items:      items[start:end],
		TotalCount: int64(total),
		Limit:      f.Limit,
		Offset:     f.Offset,
	}
}

func matches(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

// --- recipes ---

// RecipeRepo implements recipe.Repository.
type RecipeRepo struct{ s *Store }

var _ recipe.Repository = (*RecipeRepo)(nil)

func (r *RecipeRepo) Create(ctx context.Context, rec *recipe.Recipe) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, other := range r.s.recipes {
		if rec.Code != "" && other.Code == rec.Code {
			return apperror.NewDuplicate("recipe", "code", rec.Code)
		}
	}
	cp := *rec
	cp.Items = nil
	r.s.recipes[rec.ID] = cp
	return nil
}

func (r *RecipeRepo) GetByID(ctx context.Context, recipeID id.ID) (*recipe.Recipe, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.recipes[recipeID]
	if !ok {
		return nil, apperror.NewNotFound("recipe", recipeID)
	}
	return &rec, nil
}

func (r *RecipeRepo) Update(ctx context.Context, rec *recipe.Recipe) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.recipes[rec.ID]
	if !ok {
		return apperror.NewNotFound("recipe", rec.ID)
	}
	if stored.Version != rec.Version {
		return apperror.NewConcurrentModification("recipe", rec.ID)
	}
	for otherID, other := range r.s.recipes {
		if otherID != rec.ID && rec.Code != "" && other.Code == rec.Code {
			return apperror.NewDuplicate("recipe", "code", rec.Code)
		}
	}
	rec.BaseEntity.Touch()
	cp := *rec
	cp.Items = nil
	r.s.recipes[rec.ID] = cp
	return nil
}

func (r *RecipeRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*recipe.Recipe], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*recipe.Recipe, 0, len(r.s.recipes))
	for _, rec := range r.s.recipes {
		if !matches(filter.Search, rec.Name, rec.Code) {
			continue
		}
		cp := rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, filter), nil
}

func (r *RecipeRepo) GetItems(ctx context.Context, recipeID id.ID) ([]recipe.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]recipe.Item{}, r.s.recipeItems[recipeID]...), nil
}

func (r *RecipeRepo) SaveItems(ctx context.Context, recipeID id.ID, items []recipe.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.recipeItems[recipeID] = append([]recipe.Item{}, items...)
	return nil
}

// --- history ---

// HistoryRepo implements recipe.HistoryRepository.
type HistoryRepo struct{ s *Store }

var _ recipe.HistoryRepository = (*HistoryRepo)(nil)

func (h *HistoryRepo) Append(ctx context.Context, snap *recipe.Snapshot) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	cp := *snap
	cp.Items = append([]recipe.Item{}, snap.Items...)
	h.s.snapshots[snap.RecipeID] = append(h.s.snapshots[snap.RecipeID], cp)
	return nil
}

func (h *HistoryRepo) ListByRecipe(ctx context.Context, recipeID id.ID) ([]recipe.Snapshot, error) {
	h.s.mu.RLock()
	defer h.s.mu.RUnlock()

	out := append([]recipe.Snapshot{}, h.s.snapshots[recipeID]...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SnapshotDate.Equal(out[j].SnapshotDate) {
			return out[i].RecipeVersion > out[j].RecipeVersion
		}
		return out[i].SnapshotDate.After(out[j].SnapshotDate)
	})
	return out, nil
}

func (h *HistoryRepo) GetByIDs(ctx context.Context, recipeID id.ID, snapshotIDs []id.ID) ([]recipe.Snapshot, error) {
	h.s.mu.RLock()
	defer h.s.mu.RUnlock()

	want := make(map[id.ID]bool, len(snapshotIDs))
	for _, sid := range snapshotIDs {
		want[sid] = true
	}
	var out []recipe.Snapshot
	for _, snap := range h.s.snapshots[recipeID] {
		if want[snap.ID] {
			out = append(out, snap)
		}
	}
	return out, nil
}

// --- labour ---

// LabourRepo implements recipe.LabourRepository.
type LabourRepo struct{ s *Store }

var _ recipe.LabourRepository = (*LabourRepo)(nil)

func (l *LabourRepo) ListByRecipe(ctx context.Context, recipeID id.ID, labourType costing.LabourType) ([]costing.LabourEntry, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return append([]costing.LabourEntry{}, l.s.labour[recipeID][labourType]...), nil
}

func (l *LabourRepo) Replace(ctx context.Context, recipeID id.ID, labourType costing.LabourType, entries []costing.LabourEntry) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	if l.s.labour[recipeID] == nil {
		l.s.labour[recipeID] = make(map[costing.LabourType][]costing.LabourEntry)
	}
	l.s.labour[recipeID][labourType] = append([]costing.LabourEntry{}, entries...)
	return nil
}

// --- packaging ---

// PackagingRepo implements recipe.PackagingRepository.
type PackagingRepo struct{ s *Store }

var _ recipe.PackagingRepository = (*PackagingRepo)(nil)

func (p *PackagingRepo) Get(ctx context.Context, recipeID id.ID) (*recipe.PackagingCost, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	pc, ok := p.s.packaging[recipeID]
	if !ok {
		return nil, apperror.NewNotFound("packaging cost", recipeID)
	}
	return &pc, nil
}

func (p *PackagingRepo) Upsert(ctx context.Context, pc *recipe.PackagingCost) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	p.s.packaging[pc.RecipeID] = *pc
	return nil
}

// --- quotations ---

// QuotationRepo implements quotation.Repository.
type QuotationRepo struct{ s *Store }

var _ quotation.Repository = (*QuotationRepo)(nil)

func (q *QuotationRepo) Create(ctx context.Context, quote *quotation.Quotation) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()

	cp := *quote
	cp.Items = nil
	q.s.quotations[quote.ID] = cp
	return nil
}

func (q *QuotationRepo) GetByID(ctx context.Context, quotationID id.ID) (*quotation.Quotation, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()

	quote, ok := q.s.quotations[quotationID]
	if !ok {
		return nil, apperror.NewNotFound("quotation", quotationID)
	}
	return &quote, nil
}

func (q *QuotationRepo) UpdateStatus(ctx context.Context, quote *quotation.Quotation) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()

	stored, ok := q.s.quotations[quote.ID]
	if !ok {
		return apperror.NewNotFound("quotation", quote.ID)
	}
	if stored.Version != quote.Version {
		return apperror.NewConcurrentModification("quotation", quote.ID)
	}
	quote.Touch()
	stored.Status = quote.Status
	stored.Version = quote.Version
	stored.UpdatedAt = quote.UpdatedAt
	stored.UpdatedBy = quote.UpdatedBy
	q.s.quotations[quote.ID] = stored
	return nil
}

func (q *QuotationRepo) Delete(ctx context.Context, quotationID id.ID) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()

	if _, ok := q.s.quotations[quotationID]; !ok {
		return apperror.NewNotFound("quotation", quotationID)
	}
	delete(q.s.quotations, quotationID)
	delete(q.s.quoteItems, quotationID)
	return nil
}

func (q *QuotationRepo) ListByRecipe(ctx context.Context, recipeID id.ID, filter domain.ListFilter) (domain.ListResult[*quotation.Quotation], error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()

	out := make([]*quotation.Quotation, 0)
	for _, quote := range q.s.quotations {
		if quote.RecipeID != recipeID {
			continue
		}
		if filter.Status != "" && string(quote.Status) != filter.Status {
			continue
		}
		if !matches(filter.Search, quote.Number, quote.CompanyName) {
			continue
		}
		cp := quote
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return page(out, filter), nil
}

func (q *QuotationRepo) GetItems(ctx context.Context, quotationID id.ID) ([]quotation.CalculatedItem, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()
	return append([]quotation.CalculatedItem{}, q.s.quoteItems[quotationID]...), nil
}

func (q *QuotationRepo) SaveItems(ctx context.Context, quotationID id.ID, items []quotation.CalculatedItem) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	q.s.quoteItems[quotationID] = append([]quotation.CalculatedItem{}, items...)
	return nil
}

// Next implements quotation.Numerator with a per-prefix counter.
func (s *Store) Next(ctx context.Context, prefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences[prefix]++
	return fmt.Sprintf("%s-%05d", prefix, s.sequences[prefix]), nil
}

// --- raw materials ---

// RawMaterialRepo implements rawmaterial.Repository.
type RawMaterialRepo struct{ s *Store }

var _ rawmaterial.Repository = (*RawMaterialRepo)(nil)

func (m *RawMaterialRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*rawmaterial.RawMaterial], error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	out := make([]*rawmaterial.RawMaterial, 0, len(m.s.materials))
	for _, rm := range m.s.materials {
		if !matches(filter.Search, rm.Name, rm.Code) {
			continue
		}
		out = append(out, m.withLatest(rm))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, filter), nil
}

func (m *RawMaterialRepo) GetByID(ctx context.Context, rawMaterialID id.ID) (*rawmaterial.RawMaterial, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	rm, ok := m.s.materials[rawMaterialID]
	if !ok {
		return nil, apperror.NewNotFound("raw material", rawMaterialID)
	}
	return m.withLatest(rm), nil
}

// withLatest fills the derived price fields; caller holds the lock.
func (m *RawMaterialRepo) withLatest(rm rawmaterial.RawMaterial) *rawmaterial.RawMaterial {
	rm.BrandIDs, rm.BrandNames = []string{}, []string{}
	prices := m.sortedPrices(rm.ID)
	if len(prices) > 0 {
		latest := prices[0]
		rm.LastPrice = latest.Price
		vendorID, vendorName := latest.VendorID, latest.VendorName
		rm.VendorID, rm.VendorName = &vendorID, &vendorName
	}
	seen := make(map[id.ID]bool)
	for _, p := range prices {
		if p.BrandID == nil || seen[*p.BrandID] {
			continue
		}
		seen[*p.BrandID] = true
		rm.BrandIDs = append(rm.BrandIDs, p.BrandID.String())
		name := ""
		if p.BrandName != nil {
			name = *p.BrandName
		}
		rm.BrandNames = append(rm.BrandNames, name)
	}
	return &rm
}

func (m *RawMaterialRepo) sortedPrices(rawMaterialID id.ID) []rawmaterial.VendorPrice {
	out := append([]rawmaterial.VendorPrice{}, m.s.prices[rawMaterialID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	return out
}

func (m *RawMaterialRepo) VendorPrices(ctx context.Context, rawMaterialID id.ID) ([]rawmaterial.VendorPrice, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return m.sortedPrices(rawMaterialID), nil
}

func (m *RawMaterialRepo) Upsert(ctx context.Context, rm *rawmaterial.RawMaterial) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.materials[rm.ID] = *rm
	return nil
}

func (m *RawMaterialRepo) RecordPrice(ctx context.Context, p *rawmaterial.VendorPrice) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.materials[p.RawMaterialID]; !ok {
		return apperror.NewNotFound("raw material", p.RawMaterialID)
	}
	m.s.prices[p.RawMaterialID] = append(m.s.prices[p.RawMaterialID], *p)
	return nil
}
