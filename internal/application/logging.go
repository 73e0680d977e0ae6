package application

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/example/clinic-scheduler/internal/logging"
)

func defaultLogger(logger *zerolog.Logger) zerolog.Logger {
	if logger != nil {
		return *logger
	}
	return zerolog.Nop()
}

func serviceLogger(ctx context.Context, base zerolog.Logger, serviceName, operation string) zerolog.Logger {
	logger := base
	if ctxLogger := logging.FromContext(ctx); ctxLogger != nil {
		logger = *ctxLogger
	}

	lc := logger.With().Str("service", serviceName)
	if operation != "" {
		lc = lc.Str("operation", operation)
	}
	return lc.Logger()
}

// ErrorKind maps sentinel and typed errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	}

	var cErr *ConflictError
	if errors.As(err, &cErr) {
		return "conflict"
	}

	var sErr *SeriesIntegrityError
	if errors.As(err, &sErr) {
		return "series_integrity"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
