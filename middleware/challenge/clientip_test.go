package challenge

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP_PrefersFirstForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	r.Header.Set("X-Forwarded-For", "203.0.113.1, 198.51.100.2")
	r.Header.Set("X-Real-IP", "198.51.100.9")

	if got := ClientIP(r); got != "203.0.113.1" {
		t.Fatalf("expected first XFF ip, got %q", got)
	}
}

func TestClientIP_FallsBackToRealIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	r.Header.Set("X-Real-IP", "198.51.100.9")

	if got := ClientIP(r); got != "198.51.100.9" {
		t.Fatalf("expected X-Real-IP, got %q", got)
	}
}

func TestClientIP_FallsBackToRemoteAddrHost(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"

	if got := ClientIP(r); got != "10.0.0.9" {
		t.Fatalf("expected remote host, got %q", got)
	}
}

func TestClientIP_RemoteAddrWithoutPort(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9"

	if got := ClientIP(r); got != "10.0.0.9" {
		t.Fatalf("expected raw remote addr, got %q", got)
	}
}

func TestClientIP_NeverEmpty(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = ""

	if got := ClientIP(r); got != "unknown" {
		t.Fatalf("expected sentinel, got %q", got)
	}
	if got := ClientIP(nil); got != "unknown" {
		t.Fatalf("expected sentinel for nil request, got %q", got)
	}
}

func TestForwardedChain_ParsesAllEntries(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.Header.Set("X-Forwarded-For", " 203.0.113.1 , 198.51.100.2,, 192.0.2.3 ")

	got := ForwardedChain(r)
	want := []string{"203.0.113.1", "198.51.100.2", "192.0.2.3"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestForwardedChain_EmptyWhenHeaderAbsent(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	if got := ForwardedChain(r); len(got) != 0 {
		t.Fatalf("expected empty chain, got %v", got)
	}
}
