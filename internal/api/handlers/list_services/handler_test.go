package list_services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/catalog"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func TestHandle(t *testing.T) {
	c, err := catalog.New([]domain.ServiceDefinition{
		{Key: "tuneup", Name: "Tune-up", DurationMinutes: 300},
		{Key: "tire-repair", DurationMinutes: 60, Aliases: []string{"tires"}},
	}, domain.DefaultServiceDurationMinutes)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	NewHandler(c, nopLogger{}).Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/services", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body ServiceListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Services, 2)
	assert.Equal(t, "tire-repair", body.Services[0].Key)
	assert.Equal(t, []string{"tires"}, body.Services[0].Aliases)
	assert.Equal(t, 300, body.Services[1].DurationMinutes)
	assert.Equal(t, domain.DefaultServiceDurationMinutes, body.DefaultDurationMinutes)
}
