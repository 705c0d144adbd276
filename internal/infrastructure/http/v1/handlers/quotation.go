package handlers

import (
	"github.com/gin-gonic/gin"

	"recipecost/internal/domain/quotation"
	"recipecost/internal/infrastructure/http/v1/dto"
)

// QuotationHandler serves quotation previews, creation and status changes.
type QuotationHandler struct {
	*BaseHandler
	service *quotation.Service
}

// NewQuotationHandler creates a new quotation handler.
func NewQuotationHandler(base *BaseHandler, service *quotation.Service) *QuotationHandler {
	return &QuotationHandler{BaseHandler: base, service: service}
}

// Preview handles POST /recipes/:id/quotations/preview.
func (h *QuotationHandler) Preview(c *gin.Context) {
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.PreviewQuotationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToPreview()
	if err != nil {
		h.Error(c, err)
		return
	}
	calc, err := h.service.Preview(c.Request.Context(), recipeID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCalculation(calc))
}

// Create handles POST /recipes/:id/quotations.
func (h *QuotationHandler) Create(c *gin.Context) {
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateQuotationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToCreate()
	if err != nil {
		h.Error(c, err)
		return
	}
	q, err := h.service.Create(c.Request.Context(), recipeID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromQuotation(q))
}

// ListByRecipe handles GET /recipes/:id/quotations.
func (h *QuotationHandler) ListByRecipe(c *gin.Context) {
	recipeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	result, err := h.service.ListByRecipe(c.Request.Context(), recipeID, h.ListFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result, dto.FromQuotation))
}

// Get handles GET /quotations/:id.
func (h *QuotationHandler) Get(c *gin.Context) {
	quotationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	q, err := h.service.GetByID(c.Request.Context(), quotationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromQuotation(q))
}

// SetStatus handles PUT /quotations/:id/status/:action.
func (h *QuotationHandler) SetStatus(c *gin.Context) {
	quotationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	q, err := h.service.SetStatus(c.Request.Context(), quotationID, quotation.Action(c.Param("action")))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromQuotation(q))
}

// Delete handles DELETE /quotations/:id.
func (h *QuotationHandler) Delete(c *gin.Context) {
	quotationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), quotationID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// RegisterRecipeRoutes registers the routes nested under /recipes.
func (h *QuotationHandler) RegisterRecipeRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/quotations/preview", h.Preview)
	rg.GET("/:id/quotations", h.ListByRecipe)
	rg.POST("/:id/quotations", h.Create)
}

// RegisterRoutes registers the routes under /quotations.
// statusGuards run before status changes.
func (h *QuotationHandler) RegisterRoutes(rg *gin.RouterGroup, statusGuards ...gin.HandlerFunc) {
	rg.GET("/:id", h.Get)
	rg.PUT("/:id/status/:action", append(statusGuards, h.SetStatus)...)
	rg.DELETE("/:id", h.Delete)
}
