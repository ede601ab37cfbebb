package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nkiryanov/petauth/internal/apperrors"
)

// Operations observed by auth service handlers
const (
	OpRegister = "register"
	OpLogin    = "login"
	OpRefresh  = "refresh"
	OpLogout   = "logout"
	OpMe       = "me"
)

const ResultOK = "ok"

// Outcome label of every known error. Checked in order, so more specific errors go first
var results = []struct {
	err   error
	label string
}{
	{apperrors.ErrUsernameTaken, "username_taken"},
	{apperrors.ErrInvalidCredentials, "invalid_credentials"},
	{apperrors.ErrInvalidRefreshToken, "invalid_refresh_token"},
	{apperrors.ErrRefreshTokenExpired, "refresh_token_expired"},
	{apperrors.ErrUserNotFound, "user_not_found"},
	{apperrors.ErrInvalidToken, "invalid_token"},
}

// Counters of auth operations outcomes
type AuthMetrics struct {
	operations *prometheus.CounterVec
}

func New(reg prometheus.Registerer) (*AuthMetrics, error) {
	operations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_operations_total",
			Help: "Number of auth operations by outcome.",
		},
		[]string{"operation", "result"},
	)

	if err := reg.Register(operations); err != nil {
		return nil, err
	}

	return &AuthMetrics{operations: operations}, nil
}

// Count operation outcome. Nil error is counted as success
func (m *AuthMetrics) Observe(operation string, err error) {
	m.operations.WithLabelValues(operation, Result(err)).Inc()
}

// Label of the error outcome. Unknown errors are "error"
func Result(err error) string {
	if err == nil {
		return ResultOK
	}

	for _, r := range results {
		if errors.Is(err, r.err) {
			return r.label
		}
	}

	return "error"
}

// Serve metrics gathered by g in Prometheus exposition format
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
