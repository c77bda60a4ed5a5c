package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func probe(s *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_Healthz(t *testing.T) {
	s := NewServer(":0", nil)

	rec := probe(s, "/healthz")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestServer_ReadyzFollowsReadiness(t *testing.T) {
	ready := false
	s := NewServer(":0", func() bool { return ready })

	rec := probe(s, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before ready, got %d", rec.Code)
	}

	ready = true
	rec = probe(s, "/readyz")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 once ready, got %d", rec.Code)
	}
	if rec.Body.String() != "ready" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestServer_NilReadyFuncAlwaysReady(t *testing.T) {
	s := NewServer(":0", nil)

	rec := probe(s, "/readyz")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with nil ready func, got %d", rec.Code)
	}
}

func TestServer_MetricsEndpointRegistered(t *testing.T) {
	s := NewServer(":0", nil)

	rec := probe(s, "/metrics")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 from /metrics, got %d", rec.Code)
	}
}
