package domain

import "strings"

// Policy nomeia a política de rate limit escolhida para uma requisição.
//
// A escolha é recalculada a cada requisição (stateless) e consumida pela
// infraestrutura de enforcement; este pacote só classifica.
type Policy string

const (
	PolicyGlobal           Policy = "global"
	PolicyAuth             Policy = "auth"
	PolicyApi              Policy = "api"
	PolicyAuthenticatedApi Policy = "authenticated-api"
	PolicyAuthenticated    Policy = "authenticated"
	PolicyStrict           Policy = "strict"
	PolicySensitive        Policy = "sensitive"
)

// Precedência da classificação (primeira que casar vence):
// endpoints de autenticação > caminhos de admin/alto risco > verbos mutantes
// sensíveis > API (autenticado/anônimo) > resto (autenticado/anônimo).
var (
	authPathPrefixes = []string{
		"/account/login",
		"/account/register",
		"/account/forgot",
		"/auth/",
	}

	strictPathPrefixes = []string{
		"/admin",
		"/account",
		"/settings",
	}

	sensitiveMethods = []string{"DELETE"}
)

// SelectPolicy classifica a requisição em uma política nomeada.
//
// É uma função pura: não lê contadores, não incrementa nada. Requisição nula
// cai na política global; nunca entra em pânico.
func SelectPolicy(f *RequestFacts) Policy {
	if f == nil {
		return PolicyGlobal
	}

	path := strings.ToLower(f.Path)

	if hasAnyPrefix(path, authPathPrefixes) {
		return PolicyAuth
	}
	if hasAnyPrefix(path, strictPathPrefixes) {
		return PolicyStrict
	}
	for _, m := range sensitiveMethods {
		if strings.EqualFold(f.Method, m) {
			return PolicySensitive
		}
	}
	if path == "/api" || strings.HasPrefix(path, "/api/") {
		if f.Authenticated {
			return PolicyAuthenticatedApi
		}
		return PolicyApi
	}
	if f.Authenticated {
		return PolicyAuthenticated
	}
	return PolicyGlobal
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
