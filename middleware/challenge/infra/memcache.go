package infra

import (
	"sync"
	"time"
)

// MemCache é o cache de processo com expiração que sustenta o ledger e os
// bypass grants. É o ÚNICO mecanismo de persistência do subsistema: nada
// sobrevive a restart, por construção.
//
// Incrementos são atômicos sob o mutex — N incrementos concorrentes na mesma
// chave resultam em exatamente N. Entradas expiram de forma preguiçosa na
// leitura; o janitor periódico só existe para conter o crescimento do mapa.
type MemCache struct {
	mu      sync.Mutex
	entries map[string]memEntry

	cleanupEvery time.Duration
}

type memEntry struct {
	count     int64
	expiresAt time.Time
}

type MemCacheOption func(*MemCache)

func WithCleanupEvery(d time.Duration) MemCacheOption {
	return func(c *MemCache) { c.cleanupEvery = d }
}

func NewMemCache(opts ...MemCacheOption) *MemCache {
	c := &MemCache{
		entries:      make(map[string]memEntry),
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Increment implementa domain.CounterStore com janela deslizante: além de
// incrementar, renova o TTL para a janela cheia. Entrada expirada recomeça
// do zero.
func (c *MemCache) Increment(key string, window time.Duration) (int64, error) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || now.After(e.expiresAt) {
		e = memEntry{}
	}
	e.count++
	e.expiresAt = now.Add(window)
	c.entries[key] = e
	return e.count, nil
}

// Peek lê o contador sem tocar no TTL. Ausente ou expirado => 0.
func (c *MemCache) Peek(key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return 0, nil
	}
	return e.count, nil
}

// TryGet implementa domain.GrantStore: presença não expirada da chave.
func (c *MemCache) TryGet(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return ok && !time.Now().After(e.expiresAt)
}

// Set grava uma marca de presença com o TTL dado.
func (c *MemCache) Set(key string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memEntry{count: 1, expiresAt: time.Now().Add(ttl)}
}

// Len retorna o número de entradas (inclusive expiradas ainda não varridas).
func (c *MemCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Cleanup remove as entradas expiradas.
func (c *MemCache) Cleanup() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que varre entradas expiradas
// periodicamente. Pare cancelando o contexto.
func (c *MemCache) StartJanitor(ctx DoneContext) {
	if c.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(c.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				c.Cleanup()
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context sem importar
// context aqui. (Permite reuso em libs sem acoplar.)
type DoneContext interface {
	Done() <-chan struct{}
}
