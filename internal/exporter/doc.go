// Package exporter writes the filtered table as CSV or XLSX.
//
// Both writers share one Table layout: a date column followed by one column
// per numeric field, headed by the field's display name. CSV output carries a
// UTF-8 BOM so Excel opens accented headers correctly.
//
//	table := exporter.NewTable(records, fields, mapping.DisplayName)
//	err := exporter.Write(w, exporter.FormatXLSX, table)
package exporter
