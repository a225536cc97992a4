package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/DocChat/internal/auth"
	"github.com/akolanti/DocChat/internal/metrics"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
	limited    bool
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

// Middleware runs trace injection, authentication and, on limited routes, the
// per-ip rate limiter in front of a handler.
type Middleware struct {
	verifier *auth.Verifier
	limiter  *IPRateLimiter
}

func New(verifier *auth.Verifier, limiter *IPRateLimiter) *Middleware {
	return &Middleware{verifier: verifier, limiter: limiter}
}

func (m *Middleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return m.wrap(next, false)
}

// WrapLimited is Wrap plus the rate limiter, for routes that call out to providers.
func (m *Middleware) WrapLimited(next http.HandlerFunc) http.HandlerFunc {
	return m.wrap(next, true)
}

func (m *Middleware) wrap(next http.HandlerFunc, limited bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK} //metrics
		re := m.processRequest(requestResponseStruct{req: r, writer: rec, limited: limited})

		if !handleBadRequest(re) {
			metrics.HttpRequestsTotal.WithLabelValues(routeLabel(r), strconv.Itoa(re.badRequest.httpCode)).Inc()
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(routeLabel(r), strconv.Itoa(rec.Status)).Inc() //metrics
	}
}

func (m *Middleware) processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re = injectTrace(re)
	if re.badRequest.isBadRequest {
		return re
	}
	re.logger.Debug("New request received", "method", re.req.Method, "path", re.req.URL.Path)
	re = m.authenticate(re)
	if re.badRequest.isBadRequest || !re.limited {
		return re
	}
	return m.rateLimiter(re)
}
