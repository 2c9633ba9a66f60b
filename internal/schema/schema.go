package schema

import (
	"fmt"

	"gnlreports/pkg/contracts/domain"
)

// Version identifies the revision of the header mapping table. Bump it
// whenever an alias is added or a canonical field changes meaning.
const Version = "2024.1"

// DefaultSheet is the sheet name of the master workbook.
const DefaultSheet = "BD_PGNL"

// Canonical field identifiers.
const (
	FieldFecha               = "fecha"
	FieldProduccionTN        = "gnl_produccion_tn"
	FieldProduccionM3        = "gnl_produccion_m3"
	FieldPSLCombustibleMMPCD = "gas_psl_combustible_mmpcd"
	FieldPSLGasAGNLMMPCD     = "gas_psl_a_gnl_mmpcd"
	FieldGASYRGGasAGNLMMPCD  = "gas_gasyrg_a_gnl_mmpcd"
	FieldDespachoTN          = "gnl_despacho_tn"
	FieldDespachoM3          = "gnl_despacho_m3"
)

// Field describes one canonical column.
type Field struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Unit     string   `json:"unit"`
	Numeric  bool     `json:"numeric"`
	Required bool     `json:"required"`
	Aliases  []string `json:"aliases"`
}

// Mapping is a versioned set of canonical fields and their raw header variants.
type Mapping struct {
	Version string  `json:"version"`
	Fields  []Field `json:"fields"`
}

// Default returns the mapping for the BD_PGNL master workbook.
func Default() *Mapping {
	return &Mapping{
		Version: Version,
		Fields: []Field{
			{
				Name:     FieldFecha,
				Label:    "Fecha",
				Required: true,
				Aliases:  []string{"FECHA", "Fecha", "DIA", "FECHA REPORTE"},
			},
			{
				Name:     FieldProduccionTN,
				Label:    "Producción GNL",
				Unit:     "TN",
				Numeric:  true,
				Required: true,
				Aliases: []string{
					"GNL\nPRODUCCION GNL\n(TN)",
					"PRODUCCION GNL (TN)",
					"Producción GNL (Tn)",
					"PRODUCCION GNL TN",
				},
			},
			{
				Name:     FieldProduccionM3,
				Label:    "Producción GNL",
				Unit:     "M3",
				Numeric:  true,
				Required: true,
				Aliases: []string{
					"GNL\nPRODUCCION GNL\n(M3)",
					"PRODUCCION GNL (M3)",
					"Producción GNL (m³)",
					"PRODUCCION GNL M3",
				},
			},
			{
				Name:    FieldPSLCombustibleMMPCD,
				Label:   "Gas PSL combustible",
				Unit:    "MMPCD",
				Numeric: true,
				Aliases: []string{
					"GAS PSL\nCOMBUSTIBLE\n(MMPCD)",
					"GAS PSL COMBUSTIBLE (MMPCD)",
					"COMBUSTIBLE PSL (MMPCD)",
				},
			},
			{
				Name:    FieldPSLGasAGNLMMPCD,
				Label:   "Gas PSL a GNL",
				Unit:    "MMPCD",
				Numeric: true,
				Aliases: []string{
					"GAS PSL\nGAS A GNL\n(MMPCD)",
					"GAS PSL GAS A GNL (MMPCD)",
					"PSL GAS A GNL (MMPCD)",
				},
			},
			{
				Name:    FieldGASYRGGasAGNLMMPCD,
				Label:   "Gas GASYRG a GNL",
				Unit:    "MMPCD",
				Numeric: true,
				Aliases: []string{
					"GAS GASYRG\nGAS A GNL\n(MMPCD)",
					"GAS GASYRG GAS A GNL (MMPCD)",
					"GASYRG GAS A GNL (MMPCD)",
				},
			},
			{
				Name:    FieldDespachoTN,
				Label:   "Despacho GNL",
				Unit:    "TN",
				Numeric: true,
				Aliases: []string{
					"GNL\nDESPACHO GNL\n(TN)",
					"DESPACHO GNL (TN)",
					"DESPACHOS GNL (TN)",
				},
			},
			{
				Name:    FieldDespachoM3,
				Label:   "Despacho GNL",
				Unit:    "M3",
				Numeric: true,
				Aliases: []string{
					"GNL\nDESPACHO GNL\n(M3)",
					"DESPACHO GNL (M3)",
					"DESPACHOS GNL (M3)",
				},
			},
		},
	}
}

// DateField returns the canonical name of the date column.
func (m *Mapping) DateField() string {
	return FieldFecha
}

// NumericFields returns the canonical names of every numeric field, in table order.
func (m *Mapping) NumericFields() []string {
	names := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		if f.Numeric {
			names = append(names, f.Name)
		}
	}
	return names
}

// Field looks up a canonical field by name.
func (m *Mapping) Field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// DisplayName renders "Label (UNIT)" for chart axes and table headers.
func (m *Mapping) DisplayName(name string) string {
	f, ok := m.Field(name)
	if !ok {
		return name
	}
	if f.Unit == "" {
		return f.Label
	}
	return fmt.Sprintf("%s (%s)", f.Label, f.Unit)
}

// RenameMap returns raw header → canonical name for every alias, for the
// canonical names themselves and for display names, so both an already-renamed
// sheet and an exported table load unchanged.
func (m *Mapping) RenameMap() map[string]string {
	rename := make(map[string]string)
	for _, f := range m.Fields {
		rename[f.Name] = f.Name
		rename[m.DisplayName(f.Name)] = f.Name
		for _, alias := range f.Aliases {
			rename[alias] = f.Name
		}
	}
	return rename
}

// Validate checks a raw header row against the mapping and returns one
// diagnostic per required field that no header maps to.
func (m *Mapping) Validate(headers []string) []domain.Diagnostic {
	keys := make(map[string]string, len(headers))
	for raw, canonical := range m.RenameMap() {
		keys[NormalizeHeader(raw)] = canonical
	}

	found := make(map[string]bool)
	for _, h := range headers {
		if canonical, ok := keys[NormalizeHeader(h)]; ok {
			found[canonical] = true
		}
	}

	var diags []domain.Diagnostic
	for _, f := range m.Fields {
		if f.Required && !found[f.Name] {
			diags = append(diags, domain.Diagnostic{
				Field:   f.Name,
				Code:    domain.DiagnosticUnmappedHeader,
				Message: fmt.Sprintf("no header in the sheet maps to required field %q (schema %s)", f.Name, m.Version),
			})
		}
	}
	return diags
}
