package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func performWithError(err error) *httptest.ResponseRecorder {
	h := &BaseHandler{}
	router := gin.New()
	router.GET("/test", func(c *gin.Context) {
		h.HandleError(c, err)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, "ERR_NOT_FOUND"},
		{"already exists", shared.ErrAlreadyExists, http.StatusConflict, "ERR_ALREADY_EXISTS"},
		{"unauthorized", shared.ErrUnauthorized, http.StatusUnauthorized, "ERR_UNAUTHORIZED"},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden, "ERR_FORBIDDEN"},
		{"empty cart", shared.ErrEmptyCart, http.StatusUnprocessableEntity, "ERR_EMPTY_CART"},
		{"invalid otp", shared.ErrInvalidCode, http.StatusUnprocessableEntity, "ERR_OTP_INVALID"},
		{"used otp", shared.ErrCodeUsed, http.StatusUnprocessableEntity, "ERR_OTP_USED"},
		{"expired otp", shared.ErrCodeExpired, http.StatusUnprocessableEntity, "ERR_OTP_EXPIRED"},
		{"payment declined", shared.NewDomainError("PAYMENT_FAILED", "declined"), http.StatusUnprocessableEntity, "ERR_PAYMENT_FAILED"},
		{"domain validation", shared.NewDomainError("INVALID_QUANTITY", "too low"), http.StatusBadRequest, "ERR_INVALID_INPUT"},
		{"not configured", shared.ErrNotConfigured, http.StatusInternalServerError, "ERR_NOT_CONFIGURED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := performWithError(tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantCode)
		})
	}
}

func TestHandleError_UnexpectedErrorIsGeneric(t *testing.T) {
	rec := performWithError(errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went wrong")
	// Internal details never reach the client
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestHandleError_NilIsNoop(t *testing.T) {
	h := &BaseHandler{}
	router := gin.New()
	router.GET("/test", func(c *gin.Context) {
		h.HandleError(c, nil)
		h.Success(c, gin.H{"done": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
