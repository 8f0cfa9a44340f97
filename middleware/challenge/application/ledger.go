package application

import (
	"time"

	"setlist-gateway/middleware/challenge/domain"

	"github.com/rs/zerolog"
)

// Prefixos das famílias de chave do ledger.
const (
	violationKeyPrefix = "violation:"
	endpointKeyPrefix  = "endpoint:"
	segmentKeyPrefix   = "segment:"
)

// Ledger registra violações e rajadas em contadores com expiração.
//
// Todo o estado fica no CounterStore injetado (cache de processo); nada
// sobrevive a restart. Janela deslizante: cada incremento renova o TTL, então
// abuso contínuo mantém o contador vivo.
type Ledger struct {
	Counters domain.CounterStore

	// ViolationWindow é o TTL do contador de violações por fingerprint.
	// Se <= 0, usa 30 minutos.
	ViolationWindow time.Duration

	Logger zerolog.Logger
}

const defaultViolationWindow = 30 * time.Minute

// RecordViolation registra uma violação para o fingerprint: log estruturado
// em Warn + incremento do contador violation:<fp>.
//
// Aceita facts nulo ou fingerprint vazio sem entrar em pânico (no-op com log
// em Debug).
func (l Ledger) RecordViolation(f *domain.RequestFacts, fingerprint string) {
	if f == nil || fingerprint == "" {
		l.Logger.Debug().Msg("violation ignored: nil request facts or empty fingerprint")
		return
	}

	ev := l.Logger.Warn().
		Str("fingerprint", fingerprint).
		Str("path", f.Path).
		Str("ip", f.ClientIP)
	if f.Authenticated && f.PrincipalName != "" {
		ev = ev.Str("user", f.PrincipalName)
	}
	ev.Msg("abuse violation recorded")

	window := l.ViolationWindow
	if window <= 0 {
		window = defaultViolationWindow
	}
	l.Bump(violationKeyPrefix+fingerprint, window)
}

// ViolationCount lê o contador de violações do fingerprint, sem efeito
// colateral. Falha de leitura degrada para 0 (fail open: um cache doente
// reduz a detecção, nunca bloqueia tráfego).
func (l Ledger) ViolationCount(fingerprint string) int64 {
	if l.Counters == nil || fingerprint == "" {
		return 0
	}
	n, err := l.Counters.Peek(violationKeyPrefix + fingerprint)
	if err != nil {
		l.Logger.Debug().Err(err).Msg("violation peek failed, assuming zero")
		return 0
	}
	return n
}

// Bump incrementa um contador arbitrário do ledger com janela deslizante e
// retorna o novo valor. Erros degradam para 0 (fail open).
func (l Ledger) Bump(key string, window time.Duration) int64 {
	if l.Counters == nil || key == "" {
		return 0
	}
	n, err := l.Counters.Increment(key, window)
	if err != nil {
		l.Logger.Debug().Err(err).Str("key", key).Msg("counter increment failed, assuming zero")
		return 0
	}
	return n
}
