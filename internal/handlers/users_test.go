package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func patchJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestUpdateMeRejectsInvalidJSON(t *testing.T) {
	h := NewUserHandler(nil, nil, zap.NewNop())
	rec := patchJSON(t, h.UpdateMe, "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateMeRejectsBlankUsername(t *testing.T) {
	h := NewUserHandler(nil, nil, zap.NewNop())
	rec := patchJSON(t, h.UpdateMe, `{"username":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "username")
}

func TestUpdateMeRejectsBadEmail(t *testing.T) {
	h := NewUserHandler(nil, nil, zap.NewNop())
	rec := patchJSON(t, h.UpdateMe, `{"email":"not-an-address"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")
}
