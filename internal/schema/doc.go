// Package schema defines the canonical field identifiers of the LNG plant
// sheet and the versioned table that maps the raw header spellings found in
// the workbooks onto them.
//
// Raw headers drift between workbook revisions: embedded line breaks
// ("GNL\nPRODUCCION GNL\n(TN)"), accents, case, and spacing around units.
// Matching is therefore done on NormalizeHeader keys, never on the raw text.
//
//	m := schema.Default()
//	ds, err := loader.Load(ctx, path, dataset.LoadOptions{
//	    Sheet:         "BD_PGNL",
//	    DateField:     m.DateField(),
//	    NumericFields: m.NumericFields(),
//	    Rename:        m.RenameMap(),
//	})
package schema
