package infra

import (
	"sync"
	"time"

	"setlist-gateway/middleware/challenge/domain"

	"golang.org/x/time/rate"
)

// PolicyRate é a taxa de uma política nomeada.
type PolicyRate struct {
	RPS   float64
	Burst int
}

// DefaultPolicyRates retorna a tabela de referência por política.
// Endpoints de autenticação e verbos sensíveis são bem mais apertados que o
// tráfego geral; usuários autenticados ganham folga.
func DefaultPolicyRates() map[domain.Policy]PolicyRate {
	return map[domain.Policy]PolicyRate{
		domain.PolicyGlobal:           {RPS: 10, Burst: 20},
		domain.PolicyAuth:             {RPS: 0.5, Burst: 3},
		domain.PolicyApi:              {RPS: 5, Burst: 10},
		domain.PolicyAuthenticatedApi: {RPS: 10, Burst: 20},
		domain.PolicyAuthenticated:    {RPS: 15, Burst: 30},
		domain.PolicyStrict:           {RPS: 1, Burst: 3},
		domain.PolicySensitive:        {RPS: 0.5, Burst: 2},
	}
}

// PolicyStore mantém um token bucket (x/time/rate) por (política, chave),
// com cache e limpeza periódica de entradas ociosas.
//
// É a facility de enforcement que consome o nome de política escolhido por
// domain.SelectPolicy; a decisão de desafio CAPTCHA é independente dela.
type PolicyStore struct {
	mu      sync.Mutex
	entries map[string]*policyEntry

	rates        map[domain.Policy]PolicyRate
	fallback     PolicyRate
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type policyEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type PolicyStoreOption func(*PolicyStore)

func WithPolicyIdleTTL(d time.Duration) PolicyStoreOption {
	return func(s *PolicyStore) { s.idleTTL = d }
}

func WithPolicyCleanupEvery(d time.Duration) PolicyStoreOption {
	return func(s *PolicyStore) { s.cleanupEvery = d }
}

func NewPolicyStore(rates map[domain.Policy]PolicyRate, opts ...PolicyStoreOption) *PolicyStore {
	if rates == nil {
		rates = DefaultPolicyRates()
	}
	s := &PolicyStore{
		entries:      make(map[string]*policyEntry),
		rates:        rates,
		fallback:     PolicyRate{RPS: 10, Burst: 20},
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	if g, ok := rates[domain.PolicyGlobal]; ok {
		s.fallback = g
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rate devolve a taxa configurada para a política (fallback = global).
func (s *PolicyStore) Rate(p domain.Policy) PolicyRate {
	if r, ok := s.rates[p]; ok {
		return r
	}
	return s.fallback
}

// Get devolve o limiter da (política, chave), criando na primeira vez.
// A mesma chave sob políticas diferentes tem buckets independentes.
func (s *PolicyStore) Get(p domain.Policy, key string) *rate.Limiter {
	now := time.Now()
	mapKey := string(p) + "|" + key

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[mapKey]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	r := s.Rate(p)
	lim := rate.NewLimiter(rate.Limit(r.RPS), r.Burst)
	s.entries[mapKey] = &policyEntry{lim: lim, lastSeen: now}
	return lim
}

func (s *PolicyStore) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa buckets ociosos
// periodicamente. Pare cancelando o contexto.
func (s *PolicyStore) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
