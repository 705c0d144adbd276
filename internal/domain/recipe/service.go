package recipe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"recipecost/internal/core/apperror"
	appctx "recipecost/internal/core/context"
	"recipecost/internal/core/id"
	"recipecost/internal/core/tx"
	"recipecost/internal/domain"
	"recipecost/internal/domain/costing"
	"recipecost/pkg/logger"
)

var tracer = otel.Tracer("recipecost/recipe")

// Service provides recipe operations: saving with history, labour and
// packaging overheads, and the combined cost breakdown.
type Service struct {
	repo      Repository
	history   HistoryRepository
	labour    LabourRepository
	packaging PackagingRepository
	txManager tx.Manager
	hooks     *domain.HookRegistry[*Recipe]
	now       func() time.Time
}

// NewService creates a new recipe service.
func NewService(
	repo Repository,
	history HistoryRepository,
	labour LabourRepository,
	packaging PackagingRepository,
	txManager tx.Manager,
) *Service {
	svc := &Service{
		repo:      repo,
		history:   history,
		labour:    labour,
		packaging: packaging,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Recipe](),
		now:       time.Now,
	}

	svc.hooks.OnBeforeCreate(svc.prepare)
	svc.hooks.OnBeforeUpdate(svc.prepare)

	return svc
}

// prepare trims the identifying fields before validation and storage.
func (s *Service) prepare(ctx context.Context, r *Recipe) error {
	r.Name = strings.TrimSpace(r.Name)
	r.Code = strings.TrimSpace(r.Code)
	r.UnitID = strings.TrimSpace(r.UnitID)
	r.UnitName = strings.TrimSpace(r.UnitName)
	return nil
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Recipe] {
	return s.hooks
}

// Create persists a new recipe and its first snapshot.
func (s *Service) Create(ctx context.Context, r *Recipe, reason string) error {
	if err := s.hooks.Run(ctx, domain.BeforeCreate, r); err != nil {
		return err
	}

	r.Recalculate()
	if err := r.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(r.ID) {
		r.ID = id.New()
	}
	r.Version = 1
	actor := appctx.ChangedBy(ctx)
	r.Stamp(actor)
	r.CreatedAt = s.now().UTC()
	r.UpdatedAt = r.CreatedAt

	if reason == "" {
		reason = ReasonCreated
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, r); err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		if err := s.repo.SaveItems(ctx, r.ID, r.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		if err := s.history.Append(ctx, NewSnapshot(r, actor, reason, r.UpdatedAt)); err != nil {
			return fmt.Errorf("append snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, r); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "recipe created",
		"id", r.ID,
		"code", r.Code,
		"items", len(r.Items))

	return nil
}

// Update saves the current state of an existing recipe and appends a snapshot.
// r.Version must match the stored version.
func (s *Service) Update(ctx context.Context, r *Recipe, reason string) error {
	if err := s.hooks.Run(ctx, domain.BeforeUpdate, r); err != nil {
		return err
	}

	r.Recalculate()
	if err := r.Validate(ctx); err != nil {
		return err
	}

	actor := appctx.ChangedBy(ctx)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		stored, err := s.GetByID(ctx, r.ID)
		if err != nil {
			return err
		}
		if stored.Version != r.Version {
			return apperror.NewConcurrentModification("recipe", r.ID)
		}

		if reason == "" {
			reason = DeriveReason(Diff(ItemsFrom(r), ItemsFrom(stored)))
		}

		r.CreatedAt = stored.CreatedAt
		r.CreatedBy = stored.CreatedBy
		r.Stamp(actor)
		r.UpdatedAt = s.now().UTC()

		if err := s.repo.Update(ctx, r); err != nil {
			return fmt.Errorf("update recipe: %w", err)
		}
		if err := s.repo.SaveItems(ctx, r.ID, r.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		if err := s.history.Append(ctx, NewSnapshot(r, actor, reason, r.UpdatedAt)); err != nil {
			return fmt.Errorf("append snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, domain.AfterUpdate, r); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}

	logger.Info(ctx, "recipe updated",
		"id", r.ID,
		"version", r.Version,
		"reason", reason)

	return nil
}

// SaveItems replaces the item list of a stored recipe and saves it.
func (s *Service) SaveItems(ctx context.Context, recipeID id.ID, version int, items []Item, reason string) (*Recipe, error) {
	r, err := s.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if version != 0 {
		r.Version = version
	}
	r.SetItems(items)

	if err := s.Update(ctx, r, reason); err != nil {
		return nil, err
	}
	return r, nil
}

// GetByID retrieves a recipe with its items.
func (s *Service) GetByID(ctx context.Context, recipeID id.ID) (*Recipe, error) {
	r, err := s.repo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	r.Items = items

	return r, nil
}

// GetItems returns the stored items of a recipe.
func (s *Service) GetItems(ctx context.Context, recipeID id.ID) ([]Item, error) {
	if _, err := s.repo.GetByID(ctx, recipeID); err != nil {
		return nil, err
	}
	return s.repo.GetItems(ctx, recipeID)
}

// List retrieves recipes without items.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Recipe], error) {
	return s.repo.List(ctx, filter.Normalize())
}

// History returns the snapshots of a recipe, newest first.
func (s *Service) History(ctx context.Context, recipeID id.ID) ([]Snapshot, error) {
	if _, err := s.repo.GetByID(ctx, recipeID); err != nil {
		return nil, err
	}
	return s.history.ListByRecipe(ctx, recipeID)
}

// Comparison is the diff between two snapshots of one recipe.
type Comparison struct {
	Newer   Snapshot       `json:"newer"`
	Older   Snapshot       `json:"older"`
	Changes []ChangeRecord `json:"changes"`
}

// CompareSnapshots diffs exactly two snapshots of a recipe, newer first.
func (s *Service) CompareSnapshots(ctx context.Context, recipeID id.ID, snapshotIDs []id.ID) (*Comparison, error) {
	if len(snapshotIDs) != 2 {
		return nil, apperror.NewFieldValidation(map[string]string{
			"snapshotIds": "exactly two snapshots must be selected",
		})
	}
	if snapshotIDs[0] == snapshotIDs[1] {
		return nil, apperror.NewFieldValidation(map[string]string{
			"snapshotIds": "select two different snapshots",
		})
	}

	snaps, err := s.history.GetByIDs(ctx, recipeID, snapshotIDs)
	if err != nil {
		return nil, err
	}
	if len(snaps) != 2 {
		missing := snapshotIDs[0]
		for _, sn := range snaps {
			if sn.ID == missing {
				missing = snapshotIDs[1]
			}
		}
		return nil, apperror.NewNotFound("recipe snapshot", missing)
	}

	sort.SliceStable(snaps, func(i, j int) bool {
		if snaps[i].SnapshotDate.Equal(snaps[j].SnapshotDate) {
			return snaps[i].RecipeVersion > snaps[j].RecipeVersion
		}
		return snaps[i].SnapshotDate.After(snaps[j].SnapshotDate)
	})

	return &Comparison{
		Newer:   snaps[0],
		Older:   snaps[1],
		Changes: Diff(snaps[0], snaps[1]),
	}, nil
}

// LabourSummary is one labour cohort of a recipe and its per-unit rate.
type LabourSummary struct {
	RecipeID    id.ID                 `json:"recipeId"`
	Type        costing.LabourType    `json:"type"`
	Entries     []costing.LabourEntry `json:"entries"`
	TotalPerDay decimal.Decimal       `json:"totalPerDay"`
	RatePerUnit decimal.Decimal       `json:"ratePerUnit"`
}

// Labour returns a labour cohort and its rate over the recipe batch size.
func (s *Service) Labour(ctx context.Context, recipeID id.ID, labourType costing.LabourType) (*LabourSummary, error) {
	r, err := s.repo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	entries, err := s.labour.ListByRecipe(ctx, recipeID, labourType)
	if err != nil {
		return nil, fmt.Errorf("list labour: %w", err)
	}

	return summarize(recipeID, labourType, entries, r.BatchSize), nil
}

// ReplaceLabour overwrites a labour cohort.
func (s *Service) ReplaceLabour(ctx context.Context, recipeID id.ID, labourType costing.LabourType, entries []costing.LabourEntry) (*LabourSummary, error) {
	errs := make(map[string]string)
	for i := range entries {
		prefix := fmt.Sprintf("entries[%d].", i)
		if strings.TrimSpace(entries[i].LabourerName) == "" {
			errs[prefix+"labourerName"] = "labourer name is required"
		}
		if entries[i].SalaryPerDay.IsNegative() {
			errs[prefix+"salaryPerDay"] = "salary must not be negative"
		}
		if id.IsNil(entries[i].ID) {
			entries[i].ID = id.New()
		}
		entries[i].RecipeID = recipeID
		entries[i].Type = labourType
	}
	if len(errs) > 0 {
		return nil, apperror.NewFieldValidation(errs)
	}

	var r *Recipe
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if r, err = s.repo.GetByID(ctx, recipeID); err != nil {
			return err
		}
		if err := s.labour.Replace(ctx, recipeID, labourType, entries); err != nil {
			return fmt.Errorf("replace labour: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "labour cohort replaced",
		"recipe_id", recipeID,
		"type", labourType,
		"entries", len(entries))

	return summarize(recipeID, labourType, entries, r.BatchSize), nil
}

func summarize(recipeID id.ID, labourType costing.LabourType, entries []costing.LabourEntry, batchSize decimal.Decimal) *LabourSummary {
	if entries == nil {
		entries = []costing.LabourEntry{}
	}
	return &LabourSummary{
		RecipeID:    recipeID,
		Type:        labourType,
		Entries:     entries,
		TotalPerDay: costing.LabourTotal(entries),
		RatePerUnit: costing.LabourRate(entries, batchSize),
	}
}

// Packaging returns the saved packaging cost of a recipe.
func (s *Service) Packaging(ctx context.Context, recipeID id.ID) (*PackagingCost, error) {
	if _, err := s.repo.GetByID(ctx, recipeID); err != nil {
		return nil, err
	}
	return s.packaging.Get(ctx, recipeID)
}

// SavePackaging recomputes the result from inputs and overwrites the stored value.
func (s *Service) SavePackaging(ctx context.Context, recipeID id.ID, inputs costing.PackagingInputs) (*PackagingCost, error) {
	if err := inputs.Validate(); err != nil {
		return nil, err
	}

	pc := &PackagingCost{
		RecipeID:  recipeID,
		Inputs:    inputs,
		Result:    costing.CalculatePackaging(inputs),
		UpdatedAt: s.now().UTC(),
		UpdatedBy: appctx.ChangedBy(ctx),
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, recipeID); err != nil {
			return err
		}
		return s.packaging.Upsert(ctx, pc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "packaging cost saved",
		"recipe_id", recipeID,
		"total", pc.Result.TotalPackagingHandlingCost)

	return pc, nil
}

// CostBreakdown is the full per-unit and per-batch cost of a recipe.
type CostBreakdown struct {
	RecipeID             id.ID           `json:"recipeId"`
	BatchSize            decimal.Decimal `json:"batchSize"`
	Yield                decimal.Decimal `json:"yield"`
	TotalRawMaterialCost decimal.Decimal `json:"totalRawMaterialCost"`
	costing.Breakdown
	Packaging *costing.PackagingResult `json:"packaging,omitempty"`

	// Degraded lists the inputs that could not be fetched and were taken as zero.
	Degraded []string `json:"degraded,omitempty"`
}

// CostBreakdown combines raw material, labour and packaging into one breakdown.
// Failed secondary fetches degrade to zero and are reported in Degraded.
func (s *Service) CostBreakdown(ctx context.Context, recipeID id.ID) (*CostBreakdown, error) {
	ctx, span := tracer.Start(ctx, "recipe.cost_breakdown")
	defer span.End()
	span.SetAttributes(attribute.String("recipe.id", recipeID.String()))

	r, err := s.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	r.Recalculate()

	out := &CostBreakdown{
		RecipeID:             r.ID,
		BatchSize:            r.BatchSize,
		Yield:                r.YieldValue(),
		TotalRawMaterialCost: r.TotalRawMaterialCost,
	}

	rates := make(map[costing.LabourType]decimal.Decimal, len(costing.LabourTypes))
	for _, lt := range costing.LabourTypes {
		entries, err := s.labour.ListByRecipe(ctx, recipeID, lt)
		if err != nil {
			logger.Warn(ctx, "labour fetch failed, using zero rate",
				"component", "cost_breakdown",
				"recipe_id", recipeID,
				"type", lt,
				"error", err)
			out.Degraded = append(out.Degraded, "labour:"+string(lt))
			rates[lt] = decimal.Zero
			continue
		}
		rates[lt] = costing.LabourRate(entries, r.BatchSize)
	}

	packagingTotal := decimal.Zero
	pc, err := s.packaging.Get(ctx, recipeID)
	switch {
	case err == nil:
		out.Packaging = &pc.Result
		packagingTotal = pc.Result.TotalPackagingHandlingCost
	case apperror.IsNotFound(err):
	default:
		logger.Warn(ctx, "packaging fetch failed, using zero cost",
			"component", "cost_breakdown",
			"recipe_id", recipeID,
			"error", err)
		out.Degraded = append(out.Degraded, "packaging")
	}

	out.Breakdown = costing.Combine(costing.BreakdownInputs{
		RMCostPerUnit:              r.PricePerUnit,
		ProductionLabourPerUnit:    rates[costing.LabourProduction],
		PackingLabourPerUnit:       rates[costing.LabourPacking],
		TotalPackagingHandlingCost: packagingTotal,
		Yield:                      r.YieldValue(),
	})

	span.SetAttributes(attribute.Int("recipe.degraded", len(out.Degraded)))

	return out, nil
}
