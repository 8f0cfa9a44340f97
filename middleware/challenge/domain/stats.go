package domain

import (
	"context"
	"time"
)

// Outcome é o desfecho da passagem de uma requisição pelo gate.
type Outcome string

const (
	// OutcomePassed: avaliada e liberada sem desafio.
	OutcomePassed Outcome = "passed"
	// OutcomeBypassed: liberada por bypass grant vigente (avaliador nem roda).
	OutcomeBypassed Outcome = "bypassed"
	// OutcomeChallenged: interrompida com 429 + desafio.
	OutcomeChallenged Outcome = "challenged"
	// OutcomeValidated: token de resposta validado; bypass concedido.
	OutcomeValidated Outcome = "validated"
	// OutcomeRejected: token presente mas inválido (ou verificador falhou).
	OutcomeRejected Outcome = "rejected"
)

// StatsEvent representa um desfecho do gate para fins de observabilidade.
//
// Observação: cuidado com cardinalidade — gravar Fingerprint/Path sem
// controle pode explodir o número de chaves em uma base como Redis.
type StatsEvent struct {
	Fingerprint string
	Outcome     Outcome

	Method string
	Path   string

	At time.Time
}

// StatsStore é a estratégia de persistência das estatísticas de desfecho.
//
// O middleware trata erro como best-effort (não derruba a requisição).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
