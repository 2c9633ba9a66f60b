package services

import (
	"context"
	"errors"
	"fmt"

	"gnlreports/internal/charts"
	"gnlreports/internal/dataset"
	apierrors "gnlreports/internal/errors"
	"gnlreports/internal/period"
)

var (
	// ErrInvalidDate is returned for a date parameter that is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
	// ErrUnsupportedFormat is returned for an unknown chart or export format.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrNotReady means the configured dataset cannot be loaded yet.
	ErrNotReady = errors.New("dataset not ready")
)

// classify wraps domain errors into typed application errors so the HTTP
// layer can map them to statuses. Already classified errors and context
// errors pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apierrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	switch {
	case errors.Is(err, dataset.ErrSourceUnreadable), errors.Is(err, dataset.ErrSheetNotFound):
		return apierrors.NewSourceError("no se pudo leer la fuente de datos", err)
	case errors.Is(err, dataset.ErrEmptySheet):
		return apierrors.NewParsingError("la hoja no contiene datos", err)
	case errors.Is(err, period.ErrInvalidMode), errors.Is(err, ErrInvalidDate), errors.Is(err, ErrUnsupportedFormat):
		return apierrors.NewValidationError("parámetro inválido", err)
	case errors.Is(err, charts.ErrUnknownChart):
		return apierrors.NewNotFoundError("chart", err)
	case errors.Is(err, charts.ErrFieldUnavailable):
		return apierrors.NewUnavailableError("datos no disponibles para el gráfico", err)
	}
	return err
}

func invalidFormat(err error) error {
	return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
}
