package domain

import "errors"

// Structural failures. Each aborts a pipeline run; callers wrap them with
// context and test with errors.Is.
var (
	ErrSourceNotFound = errors.New("source not found")
	ErrSheetNotFound  = errors.New("sheet not found")
	ErrParse          = errors.New("parse error")
	ErrSchema         = errors.New("schema error")
	ErrPersist        = errors.New("persist error")
)

// CoercionWarning records a cell that could not be coerced to its column
// kind. The cell is stored as null; the run continues.
type CoercionWarning struct {
	Row    int // zero-based data row index in the source sheet
	Column string
	Raw    string
	Reason string
}
