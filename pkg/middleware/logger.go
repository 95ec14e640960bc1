package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewStructuredLogger is a custom middleware that provides structured logging for requests.
func NewStructuredLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	logger = logger.With(zap.String("component", "http"))

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			tww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			tStart := time.Now()
			defer func() {
				status := tww.Status()
				if status == 0 {
					status = http.StatusOK
				}

				requestAttrs := zap.Dict("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)

				responseAttrs := zap.Dict("response",
					zap.Int("status", status),
					zap.Int("bytes", tww.BytesWritten()),
					zap.Duration("latency", time.Since(tStart)),
				)

				level := zapcore.InfoLevel
				msg := "request completed"
				if status >= 500 {
					level = zapcore.ErrorLevel
					msg = "server error"
				}
				logger.Log(level, msg, requestAttrs, responseAttrs)
			}()

			next.ServeHTTP(tww, r)
		}
		return http.HandlerFunc(fn)
	}
}
