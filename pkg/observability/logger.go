package observability

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

// Logger is the global structured logger
var Logger *slog.Logger

// InitLogger initializes the structured logger on stdout
func InitLogger(level string, format string) *slog.Logger {
	return InitLoggerTo(os.Stdout, level, format)
}

// InitLoggerTo initializes the structured logger on w and makes it the default
func InitLoggerTo(w io.Writer, level string, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Rename fields for better compatibility with log aggregators
			if a.Key == slog.TimeKey {
				a.Key = "timestamp"
			}
			if a.Key == slog.LevelKey {
				a.Key = "level"
			}
			if a.Key == slog.MessageKey {
				a.Key = "message"
			}
			return a
		},
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
	return Logger
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithContext adds request and trace identifiers to the logger
func WithContext(ctx context.Context) *slog.Logger {
	logger := Logger
	if logger == nil {
		logger = slog.Default()
	}
	return Enrich(ctx, logger)
}

// Enrich adds request and trace identifiers from ctx to logger
func Enrich(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if ctx == nil {
		return logger
	}

	if requestID := middleware.GetReqID(ctx); requestID != "" {
		logger = logger.With("request_id", requestID)
	}

	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		logger = logger.With("trace_id", sc.TraceID().String())
	}

	return logger
}

// LogError logs an error with context
func LogError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	logger := WithContext(ctx)
	args := make([]any, 0, len(attrs)*2+2)
	args = append(args, "error", err.Error())
	for _, attr := range attrs {
		args = append(args, attr.Key, attr.Value.Any())
	}
	logger.Error(msg, args...)
}
