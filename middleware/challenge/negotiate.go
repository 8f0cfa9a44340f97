package challenge

import (
	"net/http"
	"strings"
)

// Format é o formato da resposta de desafio.
type Format int

const (
	FormatHTML Format = iota
	FormatJSON
)

// Negotiate decide o "shape" da resposta de desafio: requisições com cara de
// API/XHR recebem o payload JSON (com site key), navegadores recebem a página
// HTML com o widget.
//
// Sinais (qualquer um basta): Accept ou Content-Type com application/json,
// header X-Requested-With: XMLHttpRequest, ou caminho sob /api.
// É uma função pura, testável isoladamente.
func Negotiate(r *http.Request) Format {
	if r == nil {
		return FormatHTML
	}

	if strings.Contains(strings.ToLower(r.Header.Get("Accept")), "application/json") {
		return FormatJSON
	}
	if strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return FormatJSON
	}
	if strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") {
		return FormatJSON
	}

	path := strings.ToLower(r.URL.Path)
	if path == "/api" || strings.HasPrefix(path, "/api/") {
		return FormatJSON
	}
	return FormatHTML
}
