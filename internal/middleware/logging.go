package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// quietRoutes are logged at Debug so probes and scrapes don't drown
// user traffic.
var quietRoutes = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// Logging writes one access log line per request. Requests on a user
// carry its user_id, and change feed sessions are logged when they end
// with their lifetime.
func Logging(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec, w := recorderFor(w)

			next.ServeHTTP(w, r)

			route := routeOf(r)
			fields := make([]zap.Field, 0, 9)
			fields = append(fields,
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("request_id", RequestIDFrom(r.Context())),
			)
			if id := userIDOf(r); id != "" {
				fields = append(fields, zap.String("user_id", id))
			}

			switch {
			case rec.hijacked:
				logger.Info("change feed session ended", fields...)
			case quietRoutes[route]:
				logger.Debug("http request", fields...)
			case rec.Status() >= http.StatusInternalServerError:
				logger.Warn("http request", fields...)
			default:
				fields = append(fields, zap.Int("bytes", rec.bytes))
				logger.Info("http request", fields...)
			}
		})
	}
}
