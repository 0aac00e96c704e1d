package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/port-russell/service-marina/internal/application"
	"github.com/port-russell/service-marina/internal/platform/auth"
	"github.com/port-russell/service-marina/internal/platform/response"
)

// CatwayHandler handles HTTP requests for catway operations.
type CatwayHandler struct {
	service *application.CatwayService
}

// NewCatwayHandler creates a new CatwayHandler.
func NewCatwayHandler(service *application.CatwayService) *CatwayHandler {
	return &CatwayHandler{service: service}
}

// RegisterRoutes registers all catway routes on the given router group.
// Reads are public; every write needs an authenticated port staff member.
func (h *CatwayHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	catways := r.Group("/catways")
	{
		catways.GET("", h.ListCatways)
		catways.GET("/:id", h.GetCatway)
	}

	writes := catways.Group("", protect(jwtManager)...)
	{
		writes.POST("", h.CreateCatway)
		writes.PUT("/:id", h.UpdateCatway)
		writes.PATCH("/:id", h.PatchCatwayState)
		writes.DELETE("/:id", h.DeleteCatway)
	}
}

// ListCatways handles GET /catways.
func (h *CatwayHandler) ListCatways(c *gin.Context) {
	page, limit, err := parsePagination(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ListCatways(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, *result)
}

// GetCatway handles GET /catways/:id.
func (h *CatwayHandler) GetCatway(c *gin.Context) {
	number, err := parseCatwayNumber(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.GetCatway(c.Request.Context(), number)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CreateCatway handles POST /catways.
func (h *CatwayHandler) CreateCatway(c *gin.Context) {
	var req application.CreateCatwayRequest
	if msg, ok := bindJSON(c, &req); !ok {
		response.BadRequest(c, msg)
		return
	}

	result, err := h.service.CreateCatway(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateCatway handles PUT /catways/:id.
func (h *CatwayHandler) UpdateCatway(c *gin.Context) {
	number, err := parseCatwayNumber(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var req application.UpdateCatwayRequest
	if msg, ok := bindJSON(c, &req); !ok {
		response.BadRequest(c, msg)
		return
	}

	result, err := h.service.UpdateCatway(c.Request.Context(), number, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// PatchCatwayState handles PATCH /catways/:id.
func (h *CatwayHandler) PatchCatwayState(c *gin.Context) {
	number, err := parseCatwayNumber(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var req application.PatchCatwayStateRequest
	if msg, ok := bindJSON(c, &req); !ok {
		response.BadRequest(c, msg)
		return
	}

	result, err := h.service.PatchCatwayState(c.Request.Context(), number, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteCatway handles DELETE /catways/:id.
func (h *CatwayHandler) DeleteCatway(c *gin.Context) {
	number, err := parseCatwayNumber(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.DeleteCatway(c.Request.Context(), number); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, "catway deleted")
}
