package domain

import "testing"

func baseFacts() *RequestFacts {
	return &RequestFacts{
		Method:    "GET",
		Path:      "/api/songs",
		UserAgent: "Mozilla/5.0",
		SessionID: "sess-1",
		ClientIP:  "203.0.113.1",
	}
}

func TestDeriveFingerprint_Deterministic(t *testing.T) {
	a := DeriveFingerprint(baseFacts())
	b := DeriveFingerprint(baseFacts())
	if a != b {
		t.Fatalf("expected identical fingerprints, got %q vs %q", a, b)
	}
	if len(a) != FingerprintLength {
		t.Fatalf("expected fixed length %d, got %d (%q)", FingerprintLength, len(a), a)
	}
}

func TestDeriveFingerprint_ChangesWithEachFactor(t *testing.T) {
	base := DeriveFingerprint(baseFacts())

	// variando um fator por vez, o fingerprint deve mudar
	byIP := baseFacts()
	byIP.ClientIP = "198.51.100.7"
	if DeriveFingerprint(byIP) == base {
		t.Fatalf("expected different fingerprint for different IP")
	}

	bySession := baseFacts()
	bySession.SessionID = "sess-2"
	if DeriveFingerprint(bySession) == base {
		t.Fatalf("expected different fingerprint for different session")
	}

	byAgent := baseFacts()
	byAgent.UserAgent = "curl/8.0"
	if DeriveFingerprint(byAgent) == base {
		t.Fatalf("expected different fingerprint for different user-agent")
	}
}

func TestDeriveFingerprint_AuthenticatedUsesPrincipalNotIP(t *testing.T) {
	a := baseFacts()
	a.Authenticated = true
	a.PrincipalName = "alice"

	b := baseFacts()
	b.Authenticated = true
	b.PrincipalName = "alice"
	b.ClientIP = "198.51.100.7" // IP diferente, mesmo usuário

	if DeriveFingerprint(a) != DeriveFingerprint(b) {
		t.Fatalf("expected same fingerprint for same authenticated principal across IPs")
	}
}

func TestDeriveFingerprint_NilFactsReturnsSentinel(t *testing.T) {
	if got := DeriveFingerprint(nil); got != FingerprintAnonymous {
		t.Fatalf("expected %q for nil facts, got %q", FingerprintAnonymous, got)
	}
}

func TestDeriveFingerprint_MissingIPStillDeterministic(t *testing.T) {
	a := &RequestFacts{UserAgent: "Mozilla/5.0"}
	b := &RequestFacts{UserAgent: "Mozilla/5.0"}
	if DeriveFingerprint(a) != DeriveFingerprint(b) {
		t.Fatalf("expected deterministic fingerprint with missing IP")
	}
	if len(DeriveFingerprint(a)) != FingerprintLength {
		t.Fatalf("expected fixed length even with missing factors")
	}
}
