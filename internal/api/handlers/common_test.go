package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	var payload struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"tuneup"}`))
	require.NoError(t, DecodeJSON(req, &payload))
	assert.Equal(t, "tuneup", payload.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
	assert.Error(t, DecodeJSON(req, &payload))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	assert.EqualError(t, DecodeJSON(req, &payload), "empty request body")
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondServiceUnavailable(rec, "попробуйте позже")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":503,"message":"попробуйте позже"}`, rec.Body.String())
}
