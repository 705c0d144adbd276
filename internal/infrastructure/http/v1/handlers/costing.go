package handlers

import (
	"github.com/gin-gonic/gin"

	"recipecost/internal/domain/costing"
	"recipecost/internal/infrastructure/http/v1/dto"
)

// CostingHandler exposes the stateless calculators.
type CostingHandler struct {
	*BaseHandler
}

// NewCostingHandler creates a new costing handler.
func NewCostingHandler(base *BaseHandler) *CostingHandler {
	return &CostingHandler{BaseHandler: base}
}

// CalculatePackaging handles POST /costing/packaging/calculate.
// Nothing is saved.
func (h *CostingHandler) CalculatePackaging(c *gin.Context) {
	var inputs costing.PackagingInputs
	if !h.BindJSON(c, &inputs) {
		return
	}
	if err := inputs.Validate(); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewPackagingPreview(inputs, costing.CalculatePackaging(inputs)))
}

// RegisterRoutes registers costing routes.
func (h *CostingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/packaging/calculate", h.CalculatePackaging)
}
