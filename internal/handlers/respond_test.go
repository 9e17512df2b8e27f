package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, http.StatusNotFound, "scheme not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"scheme not found"}`, rec.Body.String())
}

func TestRespondFieldErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	respondFieldErrors(rec, map[string]string{"title": "required"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"errors":{"title":"required"}}`, rec.Body.String())
}

func requestWithIDParam(value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", value)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestParseIDParam(t *testing.T) {
	id, ok := parseIDParam(requestWithIDParam("42"), "id")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"0", "-5", "abc", ""} {
		_, ok := parseIDParam(requestWithIDParam(bad), "id")
		assert.False(t, ok, bad)
	}
}
