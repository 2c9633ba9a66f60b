package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := NewValidationErrors([]ValidationError{{Field: "Period", Message: "Period must be one of [last_month all]"}})

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", err.ErrorCode)
	assert.Equal(t, "Request validation failed", err.Error())
	require.IsType(t, []ValidationError{}, err.Details)
	assert.Equal(t, "Period", err.Details.([]ValidationError)[0].Field)
}

func TestAppError(t *testing.T) {
	cause := stderrors.New("sheet missing")
	err := NewSourceError("dataset could not be loaded", cause).WithContext("sheet", "BD_PGNL")

	assert.Equal(t, "[SOURCE] dataset could not be loaded: sheet missing", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "BD_PGNL", err.Context["sheet"])
	assert.True(t, IsType(err, ErrTypeSource))
	assert.False(t, IsType(err, ErrTypeRender))
	assert.False(t, IsType(cause, ErrTypeSource))

	wrapped := stderrors.Join(stderrors.New("outer"), err)
	assert.True(t, IsType(wrapped, ErrTypeSource))

	assert.Equal(t, "[NOT_FOUND] chart torta not found", NewNotFoundError("chart torta", nil).Error())
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "chart x not found", "/api/data/charts/x.png").
		WithExtension("trace_id", "abc")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, TypeNotFound, got["type"])
	assert.Equal(t, float64(404), got["status"])
	assert.Equal(t, "abc", got["trace_id"])
	assert.Equal(t, "/api/data/charts/x.png", got["instance"])
}

func TestProblemDetails_ExtensionsCannotOverrideStandardMembers(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "", "").
		WithExtension("status", 200)

	data, err := json.Marshal(pd)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":400`)
	assert.NotContains(t, string(data), `"detail"`)
}
