package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDetector_Inspect(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		agent  string
		want   Verdict
	}{
		{"clean api call", http.MethodGet, "/api/expenses", "Mozilla/5.0", Clean},
		{"path traversal", http.MethodGet, "/api/../etc/passwd", "", Blocked},
		{"encoded traversal in query", http.MethodGet, "/api/reports?range=%2e%2e", "", Blocked},
		{"probe for env file", http.MethodGet, "/.env", "", Suspicious},
		{"scanner agent", http.MethodGet, "/api/expenses", "sqlmap/1.7", Suspicious},
		{"trace method", "TRACE", "/", "", Suspicious},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "http://example.com/", nil)
			r.URL.Path, r.URL.RawQuery, _ = strings.Cut(tt.target, "?")
			r.Header.Set("User-Agent", tt.agent)
			if got := NewDetector().Inspect(r); got != tt.want {
				t.Errorf("Inspect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetector_Middleware(t *testing.T) {
	d := NewDetector()
	h := d.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.URL.Path = "/static/../../etc/passwd"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if d.GetMetrics().BlockedRequests != 1 {
		t.Errorf("BlockedRequests = %d, want 1", d.GetMetrics().BlockedRequests)
	}
}

func TestDetector_ExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"direct client", "203.0.113.5:1234", "", "203.0.113.5"},
		{"trusted proxy forwards", "10.0.0.2:1234", "198.51.100.7, 10.0.0.2", "198.51.100.7"},
		{"untrusted peer cannot spoof", "203.0.113.5:1234", "198.51.100.7", "203.0.113.5"},
		{"invalid forwarded value", "127.0.0.1:1234", "not-an-ip", "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := NewDetector().ExtractClientIP(r); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/expenses", nil))
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("X-Frame-Options missing")
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("API responses should be no-store")
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.TLS = &tls.ConnectionState{}
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HSTS missing over TLS")
	}
	if rec.Header().Get("Cache-Control") != "" {
		t.Error("non-API responses should not be forced no-store")
	}
}
