// Package infra contém implementações concretas (infraestrutura) para os
// contratos definidos no pacote domain.
//
// Exemplos:
//   - MemCache: cache de processo com TTL, contadores atômicos e janitor
//   - TurnstileVerifier: cliente HTTP do siteverify do Cloudflare Turnstile
//   - PolicyStore: token bucket por (política, chave) usando golang.org/x/time/rate
//   - RedisStatsStore / MemoryStatsStore: estatísticas best-effort de desfecho
package infra
