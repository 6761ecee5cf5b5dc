package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	httperrors "3tcapital/ms_extraccion_facturas/internal/infrastructure/http"
)

// RateLimit rejects requests with 429 once the shared token bucket is empty.
// The bucket refills at rps tokens per second up to burst. A non-positive rps
// disables limiting.
func RateLimit(rps float64, burst int, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rps <= 0 {
			return next
		}
		if burst <= 0 {
			burst = 1
		}
		limiter := rate.NewLimiter(rate.Limit(rps), burst)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reservation := limiter.Reserve()
			if delay := reservation.Delay(); delay > 0 {
				reservation.Cancel()
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(delay)))
				httperrors.WriteError(w, http.StatusTooManyRequests, httperrors.MessageTooManyRequests,
					[]string{"Se ha superado el límite de documentos por segundo"}, log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterSeconds(d time.Duration) int {
	s := int(d.Round(time.Second) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}
