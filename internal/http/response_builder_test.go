package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"kakeibo/internal/services"
	"kakeibo/internal/storage"
)

func TestResponseBuilder(t *testing.T) {
	rr := httptest.NewRecorder()
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/categories/c1").
		JSON(map[string]string{"id": "c1"}).
		Write(rr)

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d", rr.Code)
	}
	if rr.Header().Get("Location") != "/api/categories/c1" {
		t.Errorf("Location = %q", rr.Header().Get("Location"))
	}
	if got := rr.Body.String(); got != "{\"id\":\"c1\"}\n" {
		t.Errorf("body = %q", got)
	}
}

func TestResponseBuilderNoBody(t *testing.T) {
	rr := httptest.NewRecorder()
	NewResponse().Status(http.StatusNoContent).Write(rr)
	if rr.Code != http.StatusNoContent || rr.Body.Len() != 0 {
		t.Errorf("status = %d, body = %q", rr.Code, rr.Body)
	}
	if rr.Header().Get("Content-Type") != "" {
		t.Error("empty response should have no content type")
	}
}

func TestServiceError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/transactions/x", nil)

	tests := []struct {
		name string
		err  error
		want int
		msg  string
	}{
		{"invalid input", fmt.Errorf("%w: invalid amount", services.ErrInvalidInput), http.StatusUnprocessableEntity, "invalid input: invalid amount"},
		{"not found", fmt.Errorf("get transaction: %w", storage.ErrNotFound), http.StatusNotFound, "get transaction: not found"},
		{"conflict", fmt.Errorf("category name: %w", storage.ErrConflict), http.StatusConflict, "category name: conflict"},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ServiceError(r, tt.err)
			if b.StatusCode() != tt.want {
				t.Errorf("status = %d, want %d", b.StatusCode(), tt.want)
			}
			rr := httptest.NewRecorder()
			b.Write(rr)
			if got := decode[errorBody](t, rr).Error; got != tt.msg {
				t.Errorf("message = %q, want %q", got, tt.msg)
			}
		})
	}
}
