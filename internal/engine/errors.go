package engine

import "errors"

var (
	// ErrFatalConfig means no report can be served from the dataset.
	ErrFatalConfig = errors.New("fatal dataset configuration")
	// ErrInvalidSelection means a year outside the dataset was selected.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrUnsupportedField means a field cannot play the requested role in a group-by.
	ErrUnsupportedField = errors.New("unsupported field")
)
