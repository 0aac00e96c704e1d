package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/port-russell/service-marina/internal/platform/auth"
	"github.com/port-russell/service-marina/internal/platform/middleware"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// parsePagination reads page and limit. Values outside page >= 1 and
// 1 <= limit <= 100 are rejected rather than clamped.
func parsePagination(c *gin.Context) (int, int, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(defaultPage)))
	if err != nil || page < 1 {
		return 0, 0, fmt.Errorf("page must be an integer >= 1")
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 || limit > maxLimit {
		return 0, 0, fmt.Errorf("limit must be an integer between 1 and %d", maxLimit)
	}
	return page, limit, nil
}

// parseCatwayNumber reads the :id path parameter, a positive catway number.
func parseCatwayNumber(c *gin.Context) (int, error) {
	n, err := strconv.Atoi(c.Param("id"))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid catway id")
	}
	return n, nil
}

func parseReservationID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("reservationId"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid reservation id")
	}
	return id, nil
}

// protect is the chain for routes that need a signed-in port staff member.
// Any role the service issues is accepted.
func protect(jwtManager *auth.JWTManager) gin.HandlersChain {
	return gin.HandlersChain{
		middleware.AuthMiddleware(jwtManager),
		middleware.RequireRole(auth.RoleAdmin, auth.RoleStaff),
	}
}
