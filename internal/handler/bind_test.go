package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/port-russell/service-marina/internal/application"
)

func TestBindJSON_Messages(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing field", `{"clientName":"A","checkIn":"2030-01-05","checkOut":"2030-01-06"}`, "boatName is required"},
		{"wrong type", `{"clientName":42}`, "clientName has the wrong type"},
		{"bad date", `{"clientName":"A","boatName":"B","checkIn":"tomorrow","checkOut":"2030-01-06"}`, "date must be RFC3339 or YYYY-MM-DD"},
		{"malformed", `{"clientName":`, "request body is not valid JSON"},
		{"syntax error", `{clientName}`, "request body is not valid JSON"},
		{"empty", ``, "request body is required"},
		{"not an object", `"hello"`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var req application.CreateReservationRequest
			msg, ok := bindJSON(c, &req)
			assert.False(t, ok)
			assert.Equal(t, tt.want, msg)
		})
	}
}

func TestBindJSON_LoginEmail(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"not-an-email","password":"x"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req application.LoginRequest
	msg, ok := bindJSON(c, &req)
	assert.False(t, ok)
	assert.Equal(t, "email must be a valid email", msg)
}
