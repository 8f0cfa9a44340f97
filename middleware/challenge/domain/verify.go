package domain

import "context"

// Verifier valida a resposta de um desafio junto ao serviço externo de
// verificação (a única operação com I/O de rede do subsistema).
//
// Erro de transporte é distinto de "token inválido": o chamador trata ambos
// como validação falhada (fail closed), mas loga diferente.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}
