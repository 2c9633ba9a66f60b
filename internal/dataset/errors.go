package dataset

import "errors"

var (
	// ErrSourceUnreadable means the workbook is missing, unreadable or corrupt.
	ErrSourceUnreadable = errors.New("source unreadable")
	// ErrSheetNotFound means the workbook has no sheet with the requested name.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrEmptySheet means the sheet has no header row.
	ErrEmptySheet = errors.New("sheet has no header row")
)
