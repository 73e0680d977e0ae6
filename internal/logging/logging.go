package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds the process root logger writing JSON lines to w. Unknown level
// strings fall back to info.
func New(w io.Writer, level string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// ContextWithLogger returns a derived context that carries the provided logger.
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	if ctx == nil {
		return ctx
	}
	return logger.WithContext(ctx)
}

// FromContext extracts a logger previously attached to the context. It returns
// nil when the context carries no logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return nil
	}
	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		return nil
	}
	return logger
}
