package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

func TestHealthz(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeAnswerer{}, &fakeIngester{}, nil)

	rec := doJSON(t, s, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status field: got %q", resp["status"])
	}
}

func TestReadyz_AllHealthy(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeAnswerer{}, &fakeIngester{}, &Config{
		Pingers: []Pinger{
			NewPinger("qdrant", func(context.Context) error { return nil }),
			NewPinger("postgres", func(context.Context) error { return nil }),
		},
	})

	rec := doJSON(t, s, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var resp readyResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Ready {
		t.Error("ready: got false, want true")
	}
	if len(resp.Checks) != 2 {
		t.Errorf("checks: got %d, want 2", len(resp.Checks))
	}
}

func TestReadyz_DependencyDown(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeAnswerer{}, &fakeIngester{}, &Config{
		Pingers: []Pinger{
			NewPinger("qdrant", func(context.Context) error { return nil }),
			NewPinger("postgres", func(context.Context) error { return fmt.Errorf("dial tcp: connection refused") }),
		},
	})

	rec := doJSON(t, s, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", rec.Code)
	}
	var resp readyResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Ready {
		t.Error("ready: got true, want false")
	}
	var failed *readyCheck
	for i := range resp.Checks {
		if !resp.Checks[i].OK {
			failed = &resp.Checks[i]
		}
	}
	if failed == nil || failed.Name != "postgres" {
		t.Errorf("expected postgres check to fail: %+v", resp.Checks)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeAnswerer{}, &fakeIngester{}, nil)

	rec := doJSON(t, s, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
}
