package challenge

import (
	"net"
	"net/http"
	"strings"

	"setlist-gateway/middleware/challenge/domain"
)

// ClientIP resolve o melhor IP do cliente, na ordem:
// X-Forwarded-For (primeira entrada) -> X-Real-IP -> RemoteAddr -> "unknown".
//
// É a ÚNICA utilidade de resolução de IP do subsistema: fingerprint, bypass e
// contadores de segmento usam todos o mesmo valor. Se cada um resolvesse por
// conta própria, clientes atrás de proxy compartilhado seriam punidos e
// atacantes com proxies rotativos escapariam.
//
// Nunca retorna vazio e nunca entra em pânico.
func ClientIP(r *http.Request) string {
	if r == nil {
		return domain.UnknownIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return domain.UnknownIP
}

// ForwardedChain devolve todos os IPs de X-Forwarded-For, na ordem, já sem
// espaços e sem entradas vazias. Alimenta o contador por segmento de rede.
func ForwardedChain(r *http.Request) []string {
	if r == nil {
		return nil
	}
	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		return nil
	}

	parts := strings.Split(xff, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if ip := strings.TrimSpace(p); ip != "" {
			out = append(out, ip)
		}
	}
	return out
}
