package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// ctxlog keys the request scoped [slog.Logger] in a [context.Context].
type ctxlog struct{}

func (key ctxlog) from(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(key).(*slog.Logger); ok {
		return logger
	}
	return fallback
}

// loggerMiddleware scopes a logger to the request and logs the request once served.
// Requests without an X-Request-Id get a generated one, echoed in the response.
func (key ctxlog) loggerMiddleware(parent *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		requestID := ctx.Header(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.SetHeader(requestIDHeader, requestID)

		op := ctx.Operation()
		logger := parent.With("request", requestID, "op", op.OperationID)

		start := time.Now()
		next(huma.WithValue(ctx, key, logger))

		u := ctx.URL()
		logger.LogAttrs(ctx.Context(), slog.LevelInfo, "request served",
			slog.String("method", op.Method),
			slog.String("path", u.Path),
			slog.String("proto", ctx.Version().Proto),
			slog.String("from", ctx.RemoteAddr()),
			slog.String("ua", ctx.Header("User-Agent")),
			slog.Int("status", ctx.Status()),
			slog.Duration("dur", time.Since(start)),
		)
	}
}

// recoverMiddleware turns a panic into a 500 response and logs it with the stack.
func (key ctxlog) recoverMiddleware(fallback *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			key.from(ctx.Context(), fallback).LogAttrs(ctx.Context(), slog.LevelError, "panic occurred",
				slog.Any("recovered", v),
				slog.String("stack", string(debug.Stack())),
			)
			ctx.SetStatus(http.StatusInternalServerError)
		}()
		next(ctx)
	}
}

// errorHandler logs handler errors, client errors at warn level.
func (key ctxlog) errorHandler(fallback *slog.Logger) func(context.Context, error) {
	return func(ctx context.Context, err error) {
		level := slog.LevelError
		attrs := []slog.Attr{slog.Any("err", err)}

		var statusErr huma.StatusError
		if errors.As(err, &statusErr) {
			level = statusLevel(statusErr.GetStatus())
			attrs = append(attrs, slog.Int("status", statusErr.GetStatus()))
		}
		key.from(ctx, fallback).LogAttrs(ctx, level, "error occurred", attrs...)
	}
}

func statusLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// meterRequests counts requests and observes their duration by operation and status.
func meterRequests(set *metrics.Set) func(huma.Context, func(huma.Context)) {
	buckets := metrics.ExponentialBuckets(1e-3, 5, 6) //nolint: mnd // 1ms to ~3s

	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()
		next(ctx)

		labels := fmt.Sprintf(`{operation=%q,status="%d"}`, ctx.Operation().OperationID, ctx.Status())
		set.GetOrCreateCounter("http_requests_total" + labels).Inc()
		set.GetOrCreatePrometheusHistogramExt("http_request_duration_seconds"+labels, buckets).UpdateDuration(start)
	}
}
