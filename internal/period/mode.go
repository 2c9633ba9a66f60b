package period

import (
	"errors"
	"fmt"
	"strings"

	"gnlreports/internal/schema"
)

// ErrInvalidMode is returned for a period name that is not recognized.
var ErrInvalidMode = errors.New("invalid period mode")

// Mode selects how the reporting window is derived from the data.
type Mode string

const (
	ModeLastMonth   Mode = "last_month"
	ModeLast3Months Mode = "last_3_months"
	ModeLast6Months Mode = "last_6_months"
	ModeLastYear    Mode = "last_year"
	ModeCurrentYear Mode = "current_year"
	ModeAll         Mode = "all"
	ModeExplicit    Mode = "explicit"
)

// DefaultMode is the period preselected by the dashboard.
const DefaultMode = ModeLastMonth

// Modes lists every mode in dashboard order.
var Modes = []Mode{
	ModeLastMonth,
	ModeLast3Months,
	ModeLast6Months,
	ModeLastYear,
	ModeCurrentYear,
	ModeAll,
	ModeExplicit,
}

var labels = map[Mode]string{
	ModeLastMonth:   "Último Mes",
	ModeLast3Months: "Últimos 3 Meses",
	ModeLast6Months: "Últimos 6 Meses",
	ModeLastYear:    "Último Año",
	ModeCurrentYear: "Año en Curso",
	ModeAll:         "Todo",
	ModeExplicit:    "Rango de Fechas",
}

// Label returns the Spanish dashboard label of m.
func (m Mode) Label() string {
	if l, ok := labels[m]; ok {
		return l
	}
	return string(m)
}

// months is the length of a relative window, zero for non-relative modes.
func (m Mode) months() int {
	switch m {
	case ModeLastMonth:
		return 1
	case ModeLast3Months:
		return 3
	case ModeLast6Months:
		return 6
	case ModeLastYear:
		return 12
	}
	return 0
}

// ParseMode accepts a canonical mode name or its Spanish label, ignoring case
// and accents. The empty string selects DefaultMode.
func ParseMode(s string) (Mode, error) {
	key := schema.NormalizeHeader(s)
	if key == "" {
		return DefaultMode, nil
	}
	for _, m := range Modes {
		if key == schema.NormalizeHeader(string(m)) || key == schema.NormalizeHeader(labels[m]) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}
