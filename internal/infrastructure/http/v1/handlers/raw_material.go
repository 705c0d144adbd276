package handlers

import (
	"github.com/gin-gonic/gin"

	"recipecost/internal/domain/catalogs/rawmaterial"
	"recipecost/internal/infrastructure/http/v1/dto"
)

// RawMaterialHandler serves the raw material catalog and its vendor prices.
type RawMaterialHandler struct {
	*BaseHandler
	service *rawmaterial.Service
}

// NewRawMaterialHandler creates a new raw material handler.
func NewRawMaterialHandler(base *BaseHandler, service *rawmaterial.Service) *RawMaterialHandler {
	return &RawMaterialHandler{BaseHandler: base, service: service}
}

// List handles GET /catalog/raw-materials.
func (h *RawMaterialHandler) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), h.ListFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result, func(m *rawmaterial.RawMaterial) *rawmaterial.RawMaterial { return m }))
}

// Get handles GET /catalog/raw-materials/:id.
func (h *RawMaterialHandler) Get(c *gin.Context) {
	rawMaterialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	m, err := h.service.GetByID(c.Request.Context(), rawMaterialID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// Upsert handles POST /catalog/raw-materials.
func (h *RawMaterialHandler) Upsert(c *gin.Context) {
	var req dto.UpsertRawMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}
	m, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Upsert(c.Request.Context(), m); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.NewIDResponse(m.ID))
}

// VendorPrices handles GET /catalog/raw-materials/:id/vendor-prices.
func (h *RawMaterialHandler) VendorPrices(c *gin.Context) {
	rawMaterialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	prices, err := h.service.VendorPrices(c.Request.Context(), rawMaterialID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if prices == nil {
		prices = []rawmaterial.VendorPrice{}
	}
	h.OK(c, gin.H{"items": prices})
}

// RecordPrice handles POST /catalog/raw-materials/:id/vendor-prices.
func (h *RawMaterialHandler) RecordPrice(c *gin.Context) {
	rawMaterialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.RecordVendorPriceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := req.ToEntity(rawMaterialID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.RecordPrice(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p)
}

// RegisterRoutes registers catalog routes.
func (h *RawMaterialHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Upsert)
	rg.GET("/:id", h.Get)
	rg.GET("/:id/vendor-prices", h.VendorPrices)
	rg.POST("/:id/vendor-prices", h.RecordPrice)
}
