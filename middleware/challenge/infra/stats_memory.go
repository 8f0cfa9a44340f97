package infra

import (
	"context"
	"sync"

	"setlist-gateway/middleware/challenge/domain"
)

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   map[domain.Outcome]int64
	byRoute map[string]map[domain.Outcome]int64
}

func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{
		total:   make(map[domain.Outcome]int64),
		byRoute: make(map[string]map[domain.Outcome]int64),
	}
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total[ev.Outcome]++
	if s.byRoute[route] == nil {
		s.byRoute[route] = make(map[domain.Outcome]int64)
	}
	s.byRoute[route][ev.Outcome]++
	return nil
}

func (s *MemoryStatsStore) Total(o domain.Outcome) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total[o]
}

func (s *MemoryStatsStore) ByRoute() map[string]map[domain.Outcome]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]map[domain.Outcome]int64, len(s.byRoute))
	for route, counters := range s.byRoute {
		c := make(map[domain.Outcome]int64, len(counters))
		for o, n := range counters {
			c[o] = n
		}
		out[route] = c
	}
	return out
}
