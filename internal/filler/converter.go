package filler

import (
	"context"
	"errors"
	"fmt"

	"workbook-generator/internal/domain"
)

// Converter turns a filled document into a PDF. The PDF is written to
// outDir under the input's base name with a .pdf extension and its path
// returned.
type Converter interface {
	ConvertToPDF(ctx context.Context, inputPath, outDir string) (string, error)
}

// ConversionError reports a failed conversion of Input.
type ConversionError struct {
	Input string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s: %v", e.Input, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// retryable reports whether another attempt could succeed. A missing
// converter executable or a cancelled request never recovers.
func retryable(err error) bool {
	return !errors.Is(err, domain.ErrConverterUnavailable) &&
		!errors.Is(err, context.Canceled)
}
