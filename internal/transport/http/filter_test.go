package http

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "gnlreports/internal/errors"
	"gnlreports/internal/period"
	"gnlreports/internal/services"
)

func TestParseFilter(t *testing.T) {
	v := testValidator(t)

	tests := []struct {
		name     string
		target   string
		wantMode period.Mode
		wantErr  bool
	}{
		{name: "defaults", target: "/", wantMode: period.DefaultMode},
		{name: "explicit", target: "/?period=explicit&start=2024-01-01&end=2024-01-31", wantMode: period.ModeExplicit},
		{name: "unknown period", target: "/?period=weekly", wantErr: true},
		{name: "bad date", target: "/?period=all&start=01-01-2024", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseFilter(httptest.NewRequest("GET", tt.target, nil), v)
			if tt.wantErr {
				var apiErr *apierrors.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, 400, apiErr.StatusCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, q.Mode)
		})
	}
}

func TestParseFilter_AcceptsEveryMode(t *testing.T) {
	v := testValidator(t)
	for _, m := range period.Modes {
		q, err := ParseFilter(httptest.NewRequest("GET", "/?period="+string(m), nil), v)
		require.NoError(t, err, m)
		assert.Equal(t, m, q.Mode)
	}
}

func TestParseFilter_Dates(t *testing.T) {
	q, err := ParseFilter(httptest.NewRequest("GET", "/?start=2024-02-01", nil), testValidator(t))
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", services.FormatDate(q.Start))
	assert.Nil(t, q.End)
}
