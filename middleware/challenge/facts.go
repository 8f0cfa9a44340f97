package challenge

import (
	"net/http"

	"setlist-gateway/middleware/challenge/domain"
)

// PrincipalFunc extrai o usuário autenticado da requisição (nome estável +
// flag). O host decide de onde vem (claim, header de SSO, sessão, ...).
type PrincipalFunc func(r *http.Request) (name string, authenticated bool)

// SessionFunc extrai o identificador de sessão, se houver.
type SessionFunc func(r *http.Request) string

// AnonymousPrincipal é o PrincipalFunc padrão: ninguém autenticado.
func AnonymousPrincipal(*http.Request) (string, bool) { return "", false }

// CookieSession devolve um SessionFunc que lê a sessão de um cookie.
func CookieSession(name string) SessionFunc {
	return func(r *http.Request) string {
		if r == nil {
			return ""
		}
		c, err := r.Cookie(name)
		if err != nil || c == nil {
			return ""
		}
		return c.Value
	}
}

// Facts monta os RequestFacts de domínio a partir do *http.Request, usando a
// utilidade única de resolução de IP. Requisição nula => nil (os consumidores
// tratam nil com sentinelas, nunca com pânico).
func Facts(r *http.Request, principal PrincipalFunc, session SessionFunc) *domain.RequestFacts {
	if r == nil {
		return nil
	}

	f := &domain.RequestFacts{
		Method:         r.Method,
		Path:           r.URL.Path,
		UserAgent:      r.Header.Get("User-Agent"),
		ClientIP:       ClientIP(r),
		ForwardedChain: ForwardedChain(r),
	}
	if principal != nil {
		f.PrincipalName, f.Authenticated = principal(r)
	}
	if session != nil {
		f.SessionID = session(r)
	}
	return f
}
