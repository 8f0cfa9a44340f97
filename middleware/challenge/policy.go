package challenge

import (
	"net/http"
	"time"

	"setlist-gateway/middleware/challenge/domain"
	"setlist-gateway/middleware/challenge/infra"

	"github.com/rs/zerolog"
)

// PolicyOptions configura o enforcement de rate limit por política nomeada.
type PolicyOptions struct {
	Store *infra.PolicyStore

	Principal PrincipalFunc

	RejectStatus int
	RetryAfter   time.Duration

	// AddPolicyHeader expõe a política escolhida em X-RateLimit-Policy
	// (útil para depurar a classificação).
	AddPolicyHeader bool

	Logger zerolog.Logger
}

// PolicyMiddleware aplica o token bucket da política que domain.SelectPolicy
// escolhe para a requisição, chaveado pelo IP resolvido. A classificação é
// recomputada a cada requisição; nada é armazenado.
func PolicyMiddleware(opts PolicyOptions) func(next http.Handler) http.Handler {
	if opts.Store == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.Principal == nil {
		opts.Principal = AnonymousPrincipal
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			facts := Facts(r, opts.Principal, nil)
			policy := domain.SelectPolicy(facts)

			if opts.AddPolicyHeader {
				pr := opts.Store.Rate(policy)
				w.Header().Set("X-RateLimit-Policy", string(policy))
				w.Header().Set("X-RateLimit-RPS", formatFloat(pr.RPS))
				w.Header().Set("X-RateLimit-Burst", formatInt(pr.Burst))
			}

			lim := opts.Store.Get(policy, facts.ClientIP)
			if !lim.Allow() {
				opts.Logger.Warn().
					Str("policy", string(policy)).
					Str("ip", facts.ClientIP).
					Str("path", r.URL.Path).
					Msg("rate limit exceeded")
				w.Header().Set("Retry-After", formatInt(int(opts.RetryAfter.Seconds())))
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
