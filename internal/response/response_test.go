package response

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eventdesk/service-booking/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"validation", domain.NewValidationError("Missing email"), http.StatusBadRequest, `{"error":"Missing email"}`},
		{"wrapped not found", fmt.Errorf("lookup: %w", domain.NewNotFoundError("Booking", "x")), http.StatusNotFound, `{"error":"Booking not found"}`},
		{"conflict", domain.NewConflictError("already exists"), http.StatusConflict, `{"error":"already exists"}`},
		{"internal", fmt.Errorf("connection reset"), http.StatusInternalServerError, `{"error":"Server error"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rr)
			Error(c, tc.err)

			assert.Equal(t, tc.code, rr.Code)
			assert.JSONEq(t, tc.body, rr.Body.String())
		})
	}
}

func TestError_InternalIsRecordedOnContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)

	Error(c, fmt.Errorf("disk full"))
	if assert.Len(t, c.Errors, 1) {
		assert.EqualError(t, c.Errors[0].Err, "disk full")
	}
}

func TestMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	Message(c, "Booking deleted", nil)
	assert.JSONEq(t, `{"success":true,"message":"Booking deleted"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rr)
	Message(c, "Status updated", gin.H{"id": "a"})
	assert.JSONEq(t, `{"success":true,"message":"Status updated","data":{"id":"a"}}`, rr.Body.String())
}
