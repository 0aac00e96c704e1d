package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/port-russell/service-marina/internal/application"
	"github.com/port-russell/service-marina/internal/platform/auth"
	"github.com/port-russell/service-marina/internal/platform/response"
)

// ReservationHandler handles HTTP requests for reservation operations.
type ReservationHandler struct {
	service *application.ReservationService
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(service *application.ReservationService) *ReservationHandler {
	return &ReservationHandler{service: service}
}

// RegisterRoutes registers all reservation routes on the given router group.
func (h *ReservationHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	staff := r.Group("", protect(jwtManager)...)
	staff.GET("/reservations", h.ListReservations)

	nested := r.Group("/catways/:id/reservations")
	{
		nested.GET("", h.ListCatwayReservations)
		nested.GET("/:reservationId", h.GetReservation)
	}

	writes := nested.Group("", protect(jwtManager)...)
	{
		writes.POST("", h.CreateReservation)
		writes.PUT("/:reservationId", h.UpdateReservation)
		writes.DELETE("/:reservationId", h.DeleteReservation)
	}
}

// ListReservations handles GET /reservations.
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	page, limit, err := parsePagination(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ListReservations(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, *result)
}

// ListCatwayReservations handles GET /catways/:id/reservations.
func (h *ReservationHandler) ListCatwayReservations(c *gin.Context) {
	number, err := parseCatwayNumber(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ListCatwayReservations(c.Request.Context(), number)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, result)
}

// GetReservation handles GET /catways/:id/reservations/:reservationId.
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	number, err := parseCatwayNumber(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, err := parseReservationID(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.GetReservation(c.Request.Context(), number, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CreateReservation handles POST /catways/:id/reservations.
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	number, err := parseCatwayNumber(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var req application.CreateReservationRequest
	if msg, ok := bindJSON(c, &req); !ok {
		response.BadRequest(c, msg)
		return
	}

	result, err := h.service.CreateReservation(c.Request.Context(), number, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateReservation handles PUT /catways/:id/reservations/:reservationId.
func (h *ReservationHandler) UpdateReservation(c *gin.Context) {
	number, err := parseCatwayNumber(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, err := parseReservationID(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var req application.UpdateReservationRequest
	if msg, ok := bindJSON(c, &req); !ok {
		response.BadRequest(c, msg)
		return
	}

	result, err := h.service.UpdateReservation(c.Request.Context(), number, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteReservation handles DELETE /catways/:id/reservations/:reservationId.
func (h *ReservationHandler) DeleteReservation(c *gin.Context) {
	number, err := parseCatwayNumber(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, err := parseReservationID(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.DeleteReservation(c.Request.Context(), number, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, "reservation deleted")
}
