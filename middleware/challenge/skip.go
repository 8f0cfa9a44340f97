package challenge

import "strings"

// defaultSkipPrefixes lista caminhos que nunca passam pelo avaliador de
// risco: assets estáticos, bundles internos do framework e endpoints
// operacionais. Comparação case-insensitive, por prefixo.
var defaultSkipPrefixes = []string{
	"/css/",
	"/js/",
	"/img/",
	"/images/",
	"/fonts/",
	"/static/",
	"/assets/",
	"/_content/",
	"/_framework/",
	"/favicon.ico",
	"/robots.txt",
	"/health",
	"/healthz",
	"/ready",
	"/live",
	"/metrics",
}

// defaultSkipSuffixes cobre assets servidos fora dos diretórios padrão.
var defaultSkipSuffixes = []string{
	".css", ".js", ".map",
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".webp",
	".woff", ".woff2", ".ttf", ".eot",
}

func skipPath(path string, prefixes, suffixes []string) bool {
	p := strings.ToLower(path)
	for _, pre := range prefixes {
		if strings.HasPrefix(p, pre) {
			return true
		}
	}
	for _, suf := range suffixes {
		if strings.HasSuffix(p, suf) {
			return true
		}
	}
	return false
}
