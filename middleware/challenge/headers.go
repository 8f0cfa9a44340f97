package challenge

import (
	"math"
	"net/http"
	"time"

	"setlist-gateway/middleware/challenge/domain"
	"setlist-gateway/middleware/challenge/infra"
)

// Nomes dos headers informativos de rate limit.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRateLimitWindow    = "X-RateLimit-Window"
)

// HeaderOptions configura o anotador de headers.
type HeaderOptions struct {
	// Limit e Window anunciados quando não há PolicyStore para consultar.
	Limit  int
	Window time.Duration

	// Floor é o piso do Remaining (nunca anunciamos menos que isso; o
	// enforcement real é de quem bloqueia, não deste anotador).
	Floor int

	// Limiters, se presente, deriva Limit/Remaining dos tokens reais do
	// bucket da política da requisição.
	Limiters *infra.PolicyStore

	Principal PrincipalFunc
}

// HeadersMiddleware estampa os headers informativos de rate limit em toda
// resposta, sem nunca sobrescrever valores já presentes (compõe com o
// enforcement externo). Os headers são aplicados ANTES de chamar o próximo
// handler, então continuam na resposta mesmo que o downstream entre em
// pânico — e o pânico segue propagando.
//
// Este componente não carrega peso de segurança: Remaining é uma conta
// ilustrativa limitada (nunca abaixo do piso, nunca acima do limite) e nada
// aqui bloqueia ou falha o pipeline.
func HeadersMiddleware(opts HeaderOptions) func(next http.Handler) http.Handler {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	if opts.Window <= 0 {
		opts.Window = time.Minute
	}
	if opts.Floor <= 0 {
		opts.Floor = 1
	}
	if opts.Principal == nil {
		opts.Principal = AnonymousPrincipal
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit, remaining := opts.compute(r)

			h := w.Header()
			setIfAbsent(h, HeaderRateLimitLimit, formatInt(limit))
			setIfAbsent(h, HeaderRateLimitRemaining, formatInt(remaining))
			reset := time.Now().Truncate(opts.Window).Add(opts.Window).Unix()
			setIfAbsent(h, HeaderRateLimitReset, formatInt(int(reset)))
			setIfAbsent(h, HeaderRateLimitWindow, formatInt(int(opts.Window.Seconds())))

			next.ServeHTTP(w, r)
		})
	}
}

func (opts HeaderOptions) compute(r *http.Request) (limit, remaining int) {
	limit = opts.Limit

	if opts.Limiters != nil {
		facts := Facts(r, opts.Principal, nil)
		policy := domain.SelectPolicy(facts)
		pr := opts.Limiters.Rate(policy)
		if pr.Burst > 0 {
			limit = pr.Burst
		}
		tokens := opts.Limiters.Get(policy, facts.ClientIP).Tokens()
		remaining = int(math.Floor(tokens))
	} else {
		// sem limiters, um valor ilustrativo que varia com o relógio
		elapsed := time.Now().Unix() % int64(opts.Window.Seconds()+1)
		remaining = limit - int(elapsed)
	}

	if remaining > limit {
		remaining = limit
	}
	if remaining < opts.Floor {
		remaining = opts.Floor
	}
	return limit, remaining
}

func setIfAbsent(h http.Header, key, value string) {
	if h.Get(key) == "" {
		h.Set(key, value)
	}
}
