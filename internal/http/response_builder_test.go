package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"giftwallet/internal/core"
)

func TestJSONResponseBuilder_Body(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		Body(map[string]string{"id": "1"}).
		Write(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" || w.Header().Get("X-Custom") != "value" {
		t.Errorf("headers = %v", w.Header())
	}
	if strings.TrimSpace(w.Body.String()) != `{"id":"1"}` {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_NoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Body("ignored").Write(w, httptest.NewRequest(http.MethodDelete, "/", nil))
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("status = %d, body = %q", w.Code, w.Body.String())
	}
}

func TestJSONResponseBuilder_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Body(make(chan int)).Write(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", w.Code)
	}
}

func TestErrorResponseMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrCardNotFound, http.StatusNotFound},
		{fmt.Errorf("save card: %w", core.ErrInvalidBalance), http.StatusUnprocessableEntity},
		{core.ErrInvalidLastFour, http.StatusUnprocessableEntity},
		{core.ErrInvalidExpiry, http.StatusUnprocessableEntity},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		errorResponse(tt.err).Write(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, w.Code, tt.want)
		}
		if !strings.Contains(w.Body.String(), `"error"`) {
			t.Errorf("%v: body = %s", tt.err, w.Body.String())
		}
	}
}

func TestErrorResponse_HidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	errorResponse(errors.New("password=hunter2")).Write(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Contains(w.Body.String(), "hunter2") {
		t.Errorf("internal error leaked: %s", w.Body.String())
	}
}

func TestTooManyRequestsError(t *testing.T) {
	w := httptest.NewRecorder()
	TooManyRequestsError().Write(w, httptest.NewRequest(http.MethodPost, "/", nil))
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "60" {
		t.Errorf("status = %d, headers = %v", w.Code, w.Header())
	}
}
