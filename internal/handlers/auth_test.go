package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Validation runs before any storage access, so a handler with no
// repository behind it exercises the reject paths.
func newValidationAuthHandler() *AuthHandler {
	return NewAuthHandler(nil, "test-secret", zap.NewNop())
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRegisterRejectsInvalidJSON(t *testing.T) {
	rec := postJSON(t, newValidationAuthHandler().Register, "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid JSON body"}`, rec.Body.String())
}

func TestRegisterFieldValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want []string
	}{
		{"all missing", `{}`, []string{"email", "username", "password"}},
		{"bad email", `{"email":"nope","username":"u","password":"secret1"}`, []string{"email"}},
		{"short password", `{"email":"u@example.com","username":"u","password":"abc"}`, []string{"password"}},
		{"blank username", `{"email":"u@example.com","username":"   ","password":"secret1"}`, []string{"username"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, newValidationAuthHandler().Register, tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp struct {
				Errors map[string]string `json:"errors"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			for _, field := range tc.want {
				assert.Contains(t, resp.Errors, field)
			}
		})
	}
}

func TestLoginRejectsInvalidJSON(t *testing.T) {
	rec := postJSON(t, newValidationAuthHandler().Login, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
