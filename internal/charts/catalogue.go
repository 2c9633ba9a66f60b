package charts

import (
	"errors"
	"fmt"

	"gnlreports/internal/schema"
)

var (
	// ErrUnknownChart is returned for a chart id that is not in the catalogue.
	ErrUnknownChart = errors.New("unknown chart")
	// ErrFieldUnavailable means a chart needs a column the dataset does not have.
	ErrFieldUnavailable = errors.New("field unavailable")
)

// Kind is the chart geometry.
type Kind string

const (
	KindBar  Kind = "bar"
	KindLine Kind = "line"
	KindArea Kind = "area"
)

// Spec describes one dashboard chart.
type Spec struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Kind    Kind     `json:"kind"`
	Fields  []string `json:"fields"`
	YLabel  string   `json:"y_label"`
	Colors  []string `json:"colors"`
	Markers bool     `json:"markers"`
}

// Chart ids.
const (
	ChartProduccionM3   = "produccion_m3"
	ChartGasAGNL        = "gas_a_gnl"
	ChartPSLCombustible = "psl_combustible"
	ChartProduccionTN   = "produccion_tn"
	ChartDespacho       = "despacho_m3"
)

var catalogue = []Spec{
	{
		ID:     ChartProduccionM3,
		Title:  "Producción diaria de GNL (M³)",
		Kind:   KindBar,
		Fields: []string{schema.FieldProduccionM3},
		YLabel: "m³",
		Colors: []string{"#74b9ff"},
	},
	{
		ID:      ChartGasAGNL,
		Title:   "Gas procesado hacia GNL (MMPCD)",
		Kind:    KindLine,
		Fields:  []string{schema.FieldPSLGasAGNLMMPCD, schema.FieldGASYRGGasAGNLMMPCD},
		YLabel:  "MMPCD",
		Colors:  []string{"#55efc4", "#ffeaa7"},
		Markers: true,
	},
	{
		ID:      ChartPSLCombustible,
		Title:   "Consumo de Combustible – Gas PSL (MMPCD)",
		Kind:    KindLine,
		Fields:  []string{schema.FieldPSLCombustibleMMPCD},
		YLabel:  "MMPCD",
		Colors:  []string{"#00cc96"},
		Markers: true,
	},
	{
		ID:     ChartProduccionTN,
		Title:  "Producción diaria de GNL (TN)",
		Kind:   KindArea,
		Fields: []string{schema.FieldProduccionTN},
		YLabel: "t",
		Colors: []string{"#0984e3"},
	},
	{
		ID:     ChartDespacho,
		Title:  "Despacho diario de GNL (M³)",
		Kind:   KindBar,
		Fields: []string{schema.FieldDespachoM3},
		YLabel: "m³",
		Colors: []string{"#fdcb6e"},
	},
}

// Catalogue returns the dashboard charts in display order.
func Catalogue() []Spec {
	out := make([]Spec, len(catalogue))
	copy(out, catalogue)
	return out
}

// Lookup finds a chart by id.
func Lookup(id string) (Spec, error) {
	for _, s := range catalogue {
		if s.ID == id {
			return s, nil
		}
	}
	return Spec{}, fmt.Errorf("%w: %q", ErrUnknownChart, id)
}
