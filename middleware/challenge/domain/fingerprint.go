package domain

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Sentinelas usadas na derivação do fingerprint.
const (
	// FingerprintAnonymous é retornado quando não há requisição alguma.
	FingerprintAnonymous = "anonymous"

	// UnknownIP é o IP sentinela quando nenhuma origem pôde ser resolvida.
	UnknownIP = "unknown"

	noSession = "nosession"
)

// FingerprintLength é o tamanho fixo do fingerprint (64 bits em hex).
const FingerprintLength = 16

// DeriveFingerprint deriva uma chave opaca e determinística a partir dos
// sinais de identidade da requisição: nome do usuário autenticado (ou IP
// resolvido), sessão e user-agent.
//
// O fingerprint é usado apenas como chave de cache. Colisões entre clientes
// reais distintos são um falso compartilhamento aceitável; o que importa é a
// distribuição uniforme e o determinismo (mesmas entradas => mesma saída,
// senão o ledger não acumula). Por isso xxhash (rápido, não criptográfico)
// basta aqui.
//
// Nunca retorna vazio e nunca entra em pânico: facts nulo vira o sentinela
// "anonymous".
func DeriveFingerprint(f *RequestFacts) string {
	if f == nil {
		return FingerprintAnonymous
	}

	identity := ""
	if f.Authenticated {
		identity = strings.TrimSpace(f.PrincipalName)
	}
	if identity == "" {
		identity = strings.TrimSpace(f.ClientIP)
	}
	if identity == "" {
		identity = UnknownIP
	}

	session := f.SessionID
	if session == "" {
		session = noSession
	}

	var b strings.Builder
	b.WriteString(identity)
	b.WriteByte('|')
	b.WriteString(session)
	b.WriteByte('|')
	b.WriteString(f.UserAgent)

	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}
