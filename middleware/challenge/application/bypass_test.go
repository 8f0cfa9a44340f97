package application

import (
	"sync"
	"testing"
	"time"

	"setlist-gateway/middleware/challenge/domain"
)

type fakeGrants struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newFakeGrants() *fakeGrants {
	return &fakeGrants{keys: make(map[string]bool)}
}

func (g *fakeGrants) TryGet(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.keys[key]
}

func (g *fakeGrants) Set(key string, _ time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.keys[key] = true
}

func TestBypassService_GrantThenTryGet(t *testing.T) {
	s := BypassService{Grants: newFakeGrants()}

	if s.TryGetBypass("203.0.113.1") {
		t.Fatalf("expected no bypass before grant")
	}
	s.GrantBypass("203.0.113.1", time.Minute)
	if !s.TryGetBypass("203.0.113.1") {
		t.Fatalf("expected bypass after grant")
	}
	if s.TryGetBypass("203.0.113.2") {
		t.Fatalf("expected bypass to be per-IP")
	}
}

func TestBypassService_UnknownIPNeverGetsBypass(t *testing.T) {
	grants := newFakeGrants()
	s := BypassService{Grants: grants}

	s.GrantBypass(domain.UnknownIP, time.Minute)
	s.GrantBypass("", time.Minute)

	if len(grants.keys) != 0 {
		t.Fatalf("expected no grants for unresolved origins, got %v", grants.keys)
	}
	if s.TryGetBypass(domain.UnknownIP) || s.TryGetBypass("") {
		t.Fatalf("expected no bypass for unresolved origins")
	}
}

func TestBypassService_NilStoreIsSafe(t *testing.T) {
	s := BypassService{}
	s.GrantBypass("203.0.113.1", time.Minute)
	if s.TryGetBypass("203.0.113.1") {
		t.Fatalf("expected no bypass with nil store")
	}
}
