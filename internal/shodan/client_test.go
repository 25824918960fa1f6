package shodan_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/CZERTAINLY/kevhost/internal/model"
	"github.com/CZERTAINLY/kevhost/internal/shodan"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...shodan.Option) *shodan.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	c, err := shodan.NewClient("s3cr3t", append([]shodan.Option{shodan.WithBaseURL(base)}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestHost(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/shodan/host/192.0.2.10", r.URL.Path)
		require.Equal(t, "s3cr3t", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"ip_str": "192.0.2.10",
			"org": "Example Org",
			"hostnames": ["a.example.net", "b.example.net"],
			"vulns": ["CVE-2021-1234", "CVE-2020-0001", "CVE-2021-1234"],
			"ports": [22, 443]
		}`))
	})

	host, err := c.Host(t.Context(), "192.0.2.10")
	require.NoError(t, err)
	require.Equal(t, "192.0.2.10", host.IP)
	org, ok := host.Org()
	require.True(t, ok)
	require.Equal(t, "Example Org", org)
	require.Equal(t, []string{"a.example.net", "b.example.net"}, host.Hostnames)
	require.Equal(t, model.VulnSet{"CVE-2021-1234", "CVE-2020-0001"}, host.Vulnerabilities)
}

func TestHostOptionalFields(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ip_str": "192.0.2.11"}`))
	})

	host, err := c.Host(t.Context(), "192.0.2.11")
	require.NoError(t, err)
	_, ok := host.Org()
	require.False(t, ok)
	require.False(t, host.HasHostnames())
	require.False(t, host.HasVulnerabilities())
}

func TestHostVulnsObject(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ip_str": "192.0.2.12", "hostnames": [], "vulns": {"CVE-2021-9": {"verified": false}, "CVE-2019-1": {}}}`))
	})

	host, err := c.Host(t.Context(), "192.0.2.12")
	require.NoError(t, err)
	require.True(t, host.HasHostnames())
	require.Empty(t, host.Hostnames)
	require.Equal(t, model.VulnSet{"CVE-2019-1", "CVE-2021-9"}, host.Vulnerabilities)
}

func TestHostErrors(t *testing.T) {
	t.Parallel()

	var testCases = []struct {
		scenario    string
		status      int
		contentType string
		body        string
		kind        model.LookupKind
		message     string
		retryable   bool
	}{
		{
			scenario:    "invalid key",
			status:      http.StatusUnauthorized,
			contentType: "application/json",
			body:        `{"error": "Please provide a valid API key"}`,
			kind:        model.LookupAuth,
			message:     "Please provide a valid API key",
		},
		{
			scenario:    "not found",
			status:      http.StatusNotFound,
			contentType: "application/json; charset=utf-8",
			body:        `{"error": "No information available for that IP."}`,
			kind:        model.LookupNotFound,
			message:     "No information available for that IP.",
		},
		{
			scenario:    "rate limit",
			status:      http.StatusTooManyRequests,
			contentType: "text/plain",
			body:        "slow down\n",
			kind:        model.LookupRateLimited,
			message:     "slow down",
			retryable:   true,
		},
		{
			scenario:    "server error",
			status:      http.StatusBadGateway,
			contentType: "text/html",
			body:        "",
			kind:        model.LookupTransient,
			message:     "502 Bad Gateway",
			retryable:   true,
		},
		{
			scenario:    "teapot",
			status:      http.StatusTeapot,
			contentType: "application/json",
			body:        `{}`,
			kind:        model.LookupUnknown,
			message:     "{}",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tc.contentType)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := c.Host(t.Context(), "192.0.2.13")
			require.Error(t, err)

			var le *model.LookupError
			require.True(t, errors.As(err, &le))
			require.Equal(t, tc.kind, le.Kind)
			require.Equal(t, tc.status, le.StatusCode)
			require.Equal(t, tc.message, le.Message)
			require.Equal(t, tc.retryable, le.Retryable())
			require.Equal(t, model.ExitLookup, model.ExitCode(err))
		})
	}
}

func TestHostMalformedBody(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ip_str": `))
	})

	_, err := c.Host(t.Context(), "192.0.2.14")
	var le *model.LookupError
	require.True(t, errors.As(err, &le))
	require.Equal(t, model.LookupInvalid, le.Kind)
}

func TestHostTimeout(t *testing.T) {
	t.Parallel()
	done := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-r.Context().Done():
		}
	}, shodan.WithTimeout(50*time.Millisecond))
	t.Cleanup(func() { close(done) })

	_, err := c.Host(t.Context(), "192.0.2.15")
	var le *model.LookupError
	require.True(t, errors.As(err, &le))
	require.Equal(t, model.LookupTransient, le.Kind)
	require.True(t, le.Retryable())
	require.NotContains(t, err.Error(), "s3cr3t")
}

func TestHostCanceled(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := c.Host(ctx, "192.0.2.16")
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Parallel()
	_, err := shodan.NewClient("")
	var ce *model.ConfigError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, model.KeyShodanAPIKey, ce.Key)
}
