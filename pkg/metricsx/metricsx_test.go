package metricsx_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kaszm/imagegallery/pkg/metricsx"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCounters(t *testing.T) {
	m := metricsx.New("idp")
	m.CredentialCheck(true)
	m.CredentialCheck(false)
	m.MFAChallenge("verify", false)
	m.OwnershipDecision("not_owner")
	m.TokenIssued("password")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `credential_checks_total{result="failure",service="idp"} 1`)
	require.Contains(t, string(body), `ownership_decisions_total{reason="not_owner",service="idp"} 1`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metricsx.Metrics
	require.NotPanics(t, func() {
		m.CredentialCheck(true)
		m.MFAChallenge("confirm", true)
		m.OwnershipDecision("ok")
		m.TokenIssued("refresh_token")
	})
}
