package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/kaszm/imagegallery/pkg/httpx"
	"github.com/stretchr/testify/require"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func hit(h http.Handler, target, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIPKeyExtractor(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"remote addr", nil, "192.168.1.1"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, "203.0.113.1"},
		{"real ip", map[string]string{"X-Real-IP": "203.0.113.2"}, "203.0.113.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.168.1.1:5000"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, httpx.IPKeyExtractor(req))
		})
	}
}

func TestFormFieldKeyExtractor(t *testing.T) {
	form := url.Values{"username": {"ada@example.com"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	require.Equal(t, "ada@example.com", httpx.FormFieldKeyExtractor("username")(req))
	require.Equal(t, "", httpx.FormFieldKeyExtractor("missing")(req))
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := httpx.RateLimitConfig{Requests: 2, Window: time.Minute, Burst: 2}

	t.Run("blocks after burst", func(t *testing.T) {
		h := httpx.RateLimitByIP(cfg)(ok)
		require.Equal(t, http.StatusOK, hit(h, "/", "10.0.0.1:1").Code)
		require.Equal(t, http.StatusOK, hit(h, "/", "10.0.0.1:2").Code)

		rec := hit(h, "/", "10.0.0.1:3")
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		require.Contains(t, rec.Body.String(), "rate_limit_exceeded")
	})

	t.Run("keys are independent", func(t *testing.T) {
		h := httpx.RateLimitByIP(cfg)(ok)
		hit(h, "/", "10.0.0.1:1")
		hit(h, "/", "10.0.0.1:1")
		require.Equal(t, http.StatusTooManyRequests, hit(h, "/", "10.0.0.1:1").Code)
		require.Equal(t, http.StatusOK, hit(h, "/", "10.0.0.2:1").Code)
	})

	t.Run("ip and form field", func(t *testing.T) {
		h := httpx.RateLimitByIPAndFormField(cfg, "username")(ok)
		hit(h, "/?username=ada", "10.0.0.1:1")
		hit(h, "/?username=ada", "10.0.0.1:1")
		require.Equal(t, http.StatusTooManyRequests, hit(h, "/?username=ada", "10.0.0.1:1").Code)
		require.Equal(t, http.StatusOK, hit(h, "/?username=grace", "10.0.0.1:1").Code)
	})

	t.Run("missing key passes", func(t *testing.T) {
		h := httpx.RateLimitMiddleware(httpx.RateLimitConfig{Requests: 1, Window: time.Minute, Burst: 1},
			func(*http.Request) string { return "" })(ok)
		for range 3 {
			require.Equal(t, http.StatusOK, hit(h, "/", "10.0.0.1:1").Code)
		}
	})
}

func TestRateLimitFromEnv(t *testing.T) {
	t.Setenv("RATELIMIT_TEST_REQUESTS", "7")
	t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "10")
	t.Setenv("RATELIMIT_TEST_BURST", "-1")

	got := httpx.RateLimitFromEnv("TEST", httpx.RateLimitConfig{Requests: 1, Window: time.Minute, Burst: 3})
	require.Equal(t, 7, got.Requests)
	require.Equal(t, 10*time.Second, got.Window)
	require.Equal(t, 3, got.Burst)
}

func TestProfilesAreOrdered(t *testing.T) {
	require.Less(t, httpx.StrictLimit.Requests, httpx.ModerateLimit.Requests)
	require.Less(t, httpx.ModerateLimit.Requests, httpx.LenientLimit.Requests)
	require.Less(t, httpx.LenientLimit.Requests, httpx.PublicLimit.Requests)
}
