package period

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"", ModeLastMonth},
		{"last_month", ModeLastMonth},
		{"LAST_3_MONTHS", ModeLast3Months},
		{"last_6_months", ModeLast6Months},
		{"last_year", ModeLastYear},
		{"current_year", ModeCurrentYear},
		{"all", ModeAll},
		{"explicit", ModeExplicit},
		{"Último Mes", ModeLastMonth},
		{"ultimos 3 meses", ModeLast3Months},
		{"Último Año", ModeLastYear},
		{"Todo", ModeAll},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseMode("last_fortnight")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestModeLabel(t *testing.T) {
	assert.Equal(t, "Último Mes", ModeLastMonth.Label())
	assert.Equal(t, "Todo", ModeAll.Label())
	assert.Equal(t, "weekly", Mode("weekly").Label())
	for _, m := range Modes {
		parsed, err := ParseMode(m.Label())
		require.NoError(t, err)
		assert.Equal(t, m, parsed, "label %q round-trips", m.Label())
	}
}
