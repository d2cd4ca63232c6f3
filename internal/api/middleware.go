package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"daynav/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// WithObservability logs each request and records latency and status in the
// Prometheus registry. Paths are reduced to their route shape so plan and
// trip ids do not explode label cardinality.
func WithObservability(next http.Handler, log zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)
		route := routeShape(r.URL.Path)
		status := strconv.Itoa(rec.status)
		metrics.HTTPRequests.WithLabelValues(r.Method, route, status).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route, status).Observe(elapsed.Seconds())
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", elapsed).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

// routeShape collapses resource ids into placeholders for metric labels.
func routeShape(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if i > 0 && len(p) > 0 {
			switch parts[i-1] {
			case "trips", "plans", "subscriptions":
				parts[i] = ":id"
			}
		}
	}
	return "/" + strings.Join(parts, "/")
}

type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*rate.Limiter
	rps     rate.Limit
	burst   int
}

func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	return &rateLimiter{
		clients: map[string]*rate.Limiter{},
		rps:     rate.Limit(perSecond),
		burst:   burst,
	}
}

func (rl *rateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	lim, ok := rl.clients[key]
	if !ok {
		lim = rate.NewLimiter(rl.rps, rl.burst)
		rl.clients[key] = lim
	}
	return lim
}

// WithRateLimit applies a per-client token bucket keyed by remote IP.
func WithRateLimit(next http.Handler, perSecond float64, burst int) http.Handler {
	if perSecond <= 0 {
		return next
	}
	rl := newRateLimiter(perSecond, burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !rl.limiter(host).Allow() {
			writeProblem(w, http.StatusTooManyRequests, "rate limited", "too many requests", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}
