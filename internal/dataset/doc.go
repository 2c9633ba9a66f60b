// Package dataset loads the plant's daily operational sheet and normalizes it
// into a domain.Dataset.
//
// # Loading
//
// A Loader resolves a source identifier to a Source (a local .xlsx workbook,
// or a Google Sheets spreadsheet addressed as "gsheets://<spreadsheet-id>"),
// reads the whole cell grid of the requested sheet and hands it to Normalize:
//
//	loader := dataset.NewLoader(dataset.NewResolver(nil), logger)
//	ds, err := loader.Load(ctx, "1. MASTER_BD_GNL.xlsx", dataset.LoadOptions{
//	    Sheet:         "BD_PGNL",
//	    DateField:     "fecha",
//	    NumericFields: []string{"gnl_produccion_m3"},
//	    Rename:        schema.Default().RenameMap(),
//	})
//
// # Normalization rules
//
//   - headers are renamed through the rename map, matched on schema.NormalizeHeader keys
//   - the date field becomes a time.Time, or the absent date marker when it cannot be parsed
//   - declared numeric fields become numbers; blanks and garbage become 0 with Present=false
//   - declared fields missing from the header row are reported as diagnostics, not errors
//
// Only an unreadable workbook, a missing sheet, or a sheet without a header row
// fails the load.
//
// # Caching
//
// Cache memoizes successful loads per (source, sheet) for the life of the
// process. The workbook is treated as static input, so entries are never
// invalidated.
package dataset
