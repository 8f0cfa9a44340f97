package application

import (
	"time"

	"setlist-gateway/middleware/challenge/domain"

	"github.com/rs/zerolog"
)

const bypassKeyPrefix = "bypass:"

// BypassService administra as isenções temporárias de desafio, chaveadas pelo
// IP resolvido do cliente.
//
// Um grant vigente é um override duro: o avaliador de risco nem chega a
// rodar. Só o challenge middleware concede grants (após validação bem
// sucedida); a vida útil é curta de propósito (minutos, não horas).
type BypassService struct {
	Grants domain.GrantStore

	// TTL padrão de um grant quando GrantBypass recebe duração <= 0.
	// Se também zerado, usa 10 minutos.
	TTL time.Duration

	Logger zerolog.Logger
}

const defaultBypassTTL = 10 * time.Minute

// TryGetBypass informa se o IP tem um grant vigente. IP vazio ou sentinela
// "unknown" nunca tem bypass (não faz sentido isentar origem não resolvida).
func (s BypassService) TryGetBypass(ip string) bool {
	if s.Grants == nil || ip == "" || ip == domain.UnknownIP {
		return false
	}
	return s.Grants.TryGet(bypassKeyPrefix + ip)
}

// GrantBypass concede uma isenção ao IP pelo período dado.
func (s BypassService) GrantBypass(ip string, d time.Duration) {
	if s.Grants == nil || ip == "" || ip == domain.UnknownIP {
		return
	}
	if d <= 0 {
		d = s.TTL
	}
	if d <= 0 {
		d = defaultBypassTTL
	}
	s.Grants.Set(bypassKeyPrefix+ip, d)
	s.Logger.Info().Str("ip", ip).Dur("ttl", d).Msg("challenge bypass granted")
}
