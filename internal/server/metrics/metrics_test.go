package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.Registration(ResultOK)
	m.Registration("DUPLICATE_EMAIL")
	m.Verification(ResultOK)
	m.CredentialCheck("INVALID_CREDENTIALS")
	m.AddressWrite("add", ResultOK)
	m.EventPublished("account.changed", ResultError)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations.WithLabelValues("DUPLICATE_EMAIL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verifications.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CredentialChecks.WithLabelValues("INVALID_CREDENTIALS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AddressWrites.WithLabelValues("add", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("account.changed", ResultError)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Registration(ResultOK)
		m.Verification(ResultOK)
		m.CredentialCheck(ResultOK)
		m.AddressWrite("add", ResultOK)
		m.EventPublished("t", ResultOK)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.Registration(ResultOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `accounts_registrations_total{result="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
