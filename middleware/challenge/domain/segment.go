package domain

import (
	"net/netip"
	"strings"
)

// NetworkSegment agrega um IP no prefixo de rede usado pelo detector de
// ataque distribuído: /24 para IPv4 e /64 para IPv6.
//
// Muitos IPs distintos no mesmo segmento se comportando como um único ator
// coordenado acumulam no mesmo contador. IP inválido retorna "" (o chamador
// simplesmente ignora).
func NetworkSegment(ip string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return ""
	}

	bits := 64
	if addr.Is4() || addr.Is4In6() {
		addr = addr.Unmap()
		bits = 24
	}

	prefix, err := addr.Prefix(bits)
	if err != nil {
		return ""
	}
	return prefix.String()
}
