package fetcher

import (
	"errors"
	"fmt"
)

// SourceError reports that an input could not be opened or read before any
// record was produced.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source unavailable: %s: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// IsSourceUnavailable returns true if the error (or any error in its chain)
// is a SourceError.
func IsSourceUnavailable(err error) bool {
	var se *SourceError
	return errors.As(err, &se)
}

// RowError reports a single malformed row. The reader stays usable and the
// next call to Next continues with the following row.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// IsRowError returns true if the error (or any error in its chain) is a RowError.
func IsRowError(err error) bool {
	var re *RowError
	return errors.As(err, &re)
}
