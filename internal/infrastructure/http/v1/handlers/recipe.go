package handlers

import (
	"github.com/gin-gonic/gin"

	"recipecost/internal/core/apperror"
	"recipecost/internal/domain/costing"
	"recipecost/internal/domain/recipe"
	"recipecost/internal/infrastructure/http/v1/dto"
)

// RecipeHandler serves recipes, their items, history, labour, packaging
// and the combined cost breakdown.
type RecipeHandler struct {
	*BaseHandler
	service *recipe.Service
}

// NewRecipeHandler creates a new recipe handler.
func NewRecipeHandler(base *BaseHandler, service *recipe.Service) *RecipeHandler {
	return &RecipeHandler{BaseHandler: base, service: service}
}

// List handles GET /recipes.
func (h *RecipeHandler) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), h.ListFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result, dto.FromRecipeSummary))
}

// Get handles GET /recipes/:id.
func (h *RecipeHandler) Get(c *gin.Context) {
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	r, err := h.service.GetByID(c.Request.Context(), recipeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromRecipe(r))
}

// Create handles POST /recipes.
func (h *RecipeHandler) Create(c *gin.Context) {
	var req dto.CreateRecipeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	r, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Create(c.Request.Context(), r, req.Reason); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromRecipe(r))
}

// Update handles PUT /recipes/:id.
func (h *RecipeHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateRecipeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	r, err := h.service.GetByID(ctx, recipeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := req.ApplyTo(r); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Update(ctx, r, req.Reason); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromRecipe(r))
}

// GetItems handles GET /recipes/:id/items.
func (h *RecipeHandler) GetItems(c *gin.Context) {
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	items, err := h.service.GetItems(c.Request.Context(), recipeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if items == nil {
		items = []recipe.Item{}
	}
	h.OK(c, gin.H{"items": items})
}

// SaveItems handles PUT /recipes/:id/items.
func (h *RecipeHandler) SaveItems(c *gin.Context) {
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.SaveItemsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	items, err := req.ToItems()
	if err != nil {
		h.Error(c, err)
		return
	}
	r, err := h.service.SaveItems(c.Request.Context(), recipeID, req.Version, items, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromRecipe(r))
}

// History handles GET /recipes/:id/history.
func (h *RecipeHandler) History(c *gin.Context) {
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	snaps, err := h.service.History(c.Request.Context(), recipeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": dto.FromSnapshots(snaps)})
}

// Compare handles POST /recipes/:id/history/compare.
func (h *RecipeHandler) Compare(c *gin.Context) {
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.CompareSnapshotsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ids, err := req.ParseSnapshotIDs()
	if err != nil {
		h.Error(c, err)
		return
	}
	cmp, err := h.service.CompareSnapshots(c.Request.Context(), recipeID, ids)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromComparison(cmp))
}

func (h *RecipeHandler) parseLabourType(c *gin.Context) (costing.LabourType, bool) {
	lt, err := costing.ParseLabourType(c.Param("type"))
	if err != nil {
		h.Error(c, apperror.NewValidation(err.Error()).WithDetail("type", c.Param("type")))
		return "", false
	}
	return lt, true
}

// Labour handles GET /recipes/:id/labour/:type.
func (h *RecipeHandler) Labour(c *gin.Context) {
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	lt, ok := h.parseLabourType(c)
	if !ok {
		return
	}
	summary, err := h.service.Labour(c.Request.Context(), recipeID, lt)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromLabourSummary(summary))
}

// ReplaceLabour handles PUT /recipes/:id/labour/:type.
func (h *RecipeHandler) ReplaceLabour(c *gin.Context) {
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	lt, ok := h.parseLabourType(c)
	if !ok {
		return
	}
	var req dto.ReplaceLabourRequest
	if !h.BindJSON(c, &req) {
		return
	}
	summary, err := h.service.ReplaceLabour(c.Request.Context(), recipeID, lt, req.ToEntries())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromLabourSummary(summary))
}

// Packaging handles GET /recipes/:id/packaging-costs.
func (h *RecipeHandler) Packaging(c *gin.Context) {
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	pc, err := h.service.Packaging(c.Request.Context(), recipeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPackagingCost(pc))
}

// SavePackaging handles PUT /recipes/:id/packaging-costs.
func (h *RecipeHandler) SavePackaging(c *gin.Context) {
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var inputs costing.PackagingInputs
	if !h.BindJSON(c, &inputs) {
		return
	}
	pc, err := h.service.SavePackaging(c.Request.Context(), recipeID, inputs)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPackagingCost(pc))
}

// CostBreakdown handles GET /recipes/:id/cost-breakdown.
func (h *RecipeHandler) CostBreakdown(c *gin.Context) {
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	b, err := h.service.CostBreakdown(c.Request.Context(), recipeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCostBreakdown(b))
}

// RegisterRoutes registers recipe routes.
func (h *RecipeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)

	rg.GET("/:id/items", h.GetItems)
	rg.PUT("/:id/items", h.SaveItems)

	rg.GET("/:id/history", h.History)
	rg.POST("/:id/history/compare", h.Compare)

	rg.GET("/:id/labour/:type", h.Labour)
	rg.PUT("/:id/labour/:type", h.ReplaceLabour)

	rg.GET("/:id/packaging-costs", h.Packaging)
	rg.PUT("/:id/packaging-costs", h.SavePackaging)

	rg.GET("/:id/cost-breakdown", h.CostBreakdown)
}
