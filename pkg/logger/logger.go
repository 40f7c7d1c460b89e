package logger

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
)

type ctxKey struct{}

// New builds a JSON logger tagged with the service name and hostname and
// installs it as the slog default.
func New(w io.Writer, service string, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = fallbackHostname()
	}

	l := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})).
		With("service", service, "hostname", hostname)
	slog.SetDefault(l)
	return l
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithRequestID stores the request id for FromContext.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestID)
}

// FromContext returns l annotated with the request id carried by ctx, if any.
func FromContext(ctx context.Context, l *slog.Logger) *slog.Logger {
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return l.With("request_id", id)
	}
	return l
}

func fallbackHostname() string {
	addrs, _ := net.InterfaceAddrs()
	if len(addrs) > 0 {
		return addrs[0].String()
	}
	return "unknown-host"
}
