package application

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"setlist-gateway/middleware/challenge/domain"

	"github.com/rs/zerolog"
)

// fakeCounters é um CounterStore em memória sem expiração, suficiente para
// observar quais chaves o avaliador incrementa.
type fakeCounters struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeCounters() *fakeCounters {
	return &fakeCounters{counts: make(map[string]int64)}
}

func (s *fakeCounters) Increment(key string, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key]++
	return s.counts[key], nil
}

func (s *fakeCounters) Peek(key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[key], nil
}

func (s *fakeCounters) set(key string, v int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key] = v
}

// failingCounters simula um cache indisponível.
type failingCounters struct{}

func (failingCounters) Increment(string, time.Duration) (int64, error) {
	return 0, errors.New("cache down")
}

func (failingCounters) Peek(string) (int64, error) {
	return 0, errors.New("cache down")
}

func cleanFacts() *domain.RequestFacts {
	return &domain.RequestFacts{
		Method:    "GET",
		Path:      "/setlists",
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64)",
		ClientIP:  "203.0.113.1",
	}
}

func newTestEvaluator(cfg Config, counters domain.CounterStore) *Evaluator {
	ledger := Ledger{Counters: counters, ViolationWindow: time.Minute}
	return NewEvaluator(cfg, ledger, zerolog.Nop())
}

func TestEvaluator_CleanRequestPasses(t *testing.T) {
	e := newTestEvaluator(Config{}, newFakeCounters())
	if e.ShouldRequireCaptcha(cleanFacts()) {
		t.Fatalf("expected clean request to pass")
	}
}

func TestEvaluator_NilFactsNeverChallenges(t *testing.T) {
	e := newTestEvaluator(Config{}, newFakeCounters())
	if e.ShouldRequireCaptcha(nil) {
		t.Fatalf("expected nil facts to pass without panic")
	}
}

func TestEvaluator_ViolationThresholdTriggers(t *testing.T) {
	counters := newFakeCounters()
	e := newTestEvaluator(Config{ViolationLimit: 3}, counters)

	fp := domain.DeriveFingerprint(cleanFacts())
	counters.set("violation:"+fp, 3)

	if !e.ShouldRequireCaptcha(cleanFacts()) {
		t.Fatalf("expected challenge at violation threshold")
	}
}

func TestEvaluator_SuspiciousAgents(t *testing.T) {
	e := newTestEvaluator(Config{}, newFakeCounters())

	for _, ua := range []string{"", "curl/8.0", "Python-requests/2.31", "GoogleBot/2.1", "my-SCRAPER"} {
		f := cleanFacts()
		f.UserAgent = ua
		if !e.ShouldRequireCaptcha(f) {
			t.Fatalf("expected challenge for user-agent %q", ua)
		}
	}

	f := cleanFacts()
	if e.ShouldRequireCaptcha(f) {
		t.Fatalf("expected browser user-agent to pass")
	}
}

func TestEvaluator_EndpointBurstLowerForHighRiskPaths(t *testing.T) {
	counters := newFakeCounters()
	e := newTestEvaluator(Config{EndpointBurst: 30, HighRiskBurst: 3}, counters)

	f := cleanFacts()
	f.Path = "/account/profile"

	// as primeiras 3 avaliações passam; a partir daí o contador excede o
	// limiar baixo dos caminhos sensíveis
	for i := 0; i < 3; i++ {
		if e.ShouldRequireCaptcha(f) {
			t.Fatalf("expected request %d to pass", i+1)
		}
	}
	if !e.ShouldRequireCaptcha(f) {
		t.Fatalf("expected burst challenge on high-risk path")
	}

	// caminho comum com o mesmo volume continua passando
	g := cleanFacts()
	for i := 0; i < 10; i++ {
		if e.ShouldRequireCaptcha(g) {
			t.Fatalf("expected ordinary path to pass at low volume")
		}
	}
}

func TestEvaluator_SegmentBurstAggregatesForwardedIPs(t *testing.T) {
	counters := newFakeCounters()
	e := newTestEvaluator(Config{SegmentBurst: 5}, counters)

	// IPs distintos do mesmo /24, como um ataque distribuído por trás de
	// proxies rotativos
	for i := 0; i < 5; i++ {
		f := cleanFacts()
		f.ClientIP = "198.51.100." + strconv.Itoa(i+1)
		f.ForwardedChain = []string{f.ClientIP}
		if e.ShouldRequireCaptcha(f) {
			t.Fatalf("expected request %d under segment threshold to pass", i+1)
		}
	}

	f := cleanFacts()
	f.ClientIP = "198.51.100.99"
	f.ForwardedChain = []string{f.ClientIP}
	if !e.ShouldRequireCaptcha(f) {
		t.Fatalf("expected segment burst challenge")
	}
}

func TestEvaluator_EvaluationIncrementsBurstCounters(t *testing.T) {
	counters := newFakeCounters()
	e := newTestEvaluator(Config{}, counters)

	f := cleanFacts()
	e.ShouldRequireCaptcha(f)
	e.ShouldRequireCaptcha(f)

	// observar também é registrar: a própria avaliação incrementa as rajadas
	if n, _ := counters.Peek("endpoint:203.0.113.1:/setlists"); n != 2 {
		t.Fatalf("expected endpoint counter=2, got %d", n)
	}
	seg := domain.NetworkSegment("203.0.113.1")
	if n, _ := counters.Peek("segment:" + seg); n != 2 {
		t.Fatalf("expected segment counter=2, got %d", n)
	}

	// mas o contador de violações NÃO é tocado pela avaliação
	fp := domain.DeriveFingerprint(f)
	if n, _ := counters.Peek("violation:" + fp); n != 0 {
		t.Fatalf("expected violation counter untouched, got %d", n)
	}
}

func TestEvaluator_FailsOpenWhenCacheDown(t *testing.T) {
	e := newTestEvaluator(Config{}, failingCounters{})

	// cache fora do ar degrada para "nenhum sinal", nunca bloqueia
	if e.ShouldRequireCaptcha(cleanFacts()) {
		t.Fatalf("expected fail-open pass when cache is down")
	}

	// mas heurísticas sem cache (user-agent) continuam valendo
	f := cleanFacts()
	f.UserAgent = "curl/8.0"
	if !e.ShouldRequireCaptcha(f) {
		t.Fatalf("expected suspicious agent to still challenge with cache down")
	}
}

func TestEvaluator_AlternateTablesAreRespected(t *testing.T) {
	e := newTestEvaluator(Config{
		SuspiciousAgents: []string{"banjo"},
		HighRiskPrefixes: []string{"/gigs"},
		HighRiskBurst:    1,
	}, newFakeCounters())

	f := cleanFacts()
	f.UserAgent = "banjo-agent/1.0"
	if !e.ShouldRequireCaptcha(f) {
		t.Fatalf("expected custom agent table to apply")
	}

	g := cleanFacts()
	g.Path = "/gigs/42"
	e.ShouldRequireCaptcha(g)
	if !e.ShouldRequireCaptcha(g) {
		t.Fatalf("expected custom high-risk prefix to apply")
	}

	// "curl" não está na tabela customizada
	h := cleanFacts()
	h.UserAgent = "curl/8.0"
	if strings.Contains(h.UserAgent, "banjo") {
		t.Fatalf("sanity")
	}
	if e.ShouldRequireCaptcha(h) {
		t.Fatalf("expected default agent table to be replaced, not merged")
	}
}
