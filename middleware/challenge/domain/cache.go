package domain

import "time"

// CounterStore é o contrato de contadores com expiração usado pelo ledger.
//
// A semântica da janela é deslizante: cada Increment renova o TTL para a
// janela cheia, então abuso repetido mantém a entrada viva. A implementação
// DEVE ser atômica sob concorrência — duas requisições simultâneas na mesma
// chave não podem ambas ler "0" e gravar "1" (updates perdidos enfraquecem a
// detecção).
type CounterStore interface {
	// Increment incrementa o contador da chave e renova o TTL.
	// Retorna o novo valor.
	Increment(key string, window time.Duration) (int64, error)

	// Peek lê o valor atual sem efeito colateral (0 se ausente/expirado).
	Peek(key string) (int64, error)
}

// GrantStore guarda marcas presença-com-TTL, usado para os bypass grants.
//
// Só o challenge middleware grava; a presença de um grant é um skip
// incondicional do avaliador de risco, não um insumo das heurísticas.
type GrantStore interface {
	TryGet(key string) bool
	Set(key string, ttl time.Duration)
}
