package testutil

import (
	"net/http"
	"time"

	"github.com/wb-go/wbf/zlog"
)

func logRequests(logger *zlog.Zerolog) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", r.Header.Get("X-Request-ID")).
				Dur("duration", time.Since(start)).
				Msg("Fake backend request")
		})
	}
}

// recoverer turns a handler panic into a 500 envelope. http.ErrAbortHandler
// is re-raised so dropped connections stay dropped.
func recoverer(logger *zlog.Zerolog) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error().Interface("error", err).Str("path", r.URL.Path).Msg("Panic recovered")
					respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
