package challenge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"setlist-gateway/middleware/challenge/application"
	"setlist-gateway/middleware/challenge/domain"

	"github.com/rs/zerolog"
)

// Options configura o challenge middleware.
type Options struct {
	Evaluator *application.Evaluator
	Ledger    application.Ledger
	Bypass    application.BypassService
	Verifier  domain.Verifier

	// Stats recebe os desfechos (best-effort; erro nunca afeta a requisição).
	Stats domain.StatsStore

	Logger zerolog.Logger

	Principal PrincipalFunc
	Session   SessionFunc

	// SiteKey é a chave pública do CAPTCHA, embutida no payload/página.
	SiteKey string

	// BypassTTL é a vida útil do grant após validação (padrão: o TTL do
	// BypassService).
	BypassTTL time.Duration

	// VerifyTimeout limita a chamada ao serviço de verificação (padrão 5s).
	VerifyTimeout time.Duration

	// SkipPrefixes substitui a skip-list padrão se não-nulo.
	SkipPrefixes []string

	// Nomes dos portadores do token de resposta, na ordem de busca:
	// campo de formulário -> header -> query string.
	TokenFormField string
	TokenHeader    string
	TokenQuery     string
}

const (
	defaultTokenFormField = "cf-turnstile-response"
	defaultTokenHeader    = "X-Captcha-Token"
	defaultTokenQuery     = "captcha_token"
	defaultVerifyTimeout  = 5 * time.Second
)

// Middleware intercepta o pipeline com o gate de desafio.
//
// Máquina de estados por requisição:
//
//	SKIP             caminho estático/operacional ou bypass vigente
//	EVALUATE         avaliador de risco consultado
//	CHALLENGE_ISSUED 429 com desafio (JSON ou HTML)
//	VALIDATING       havia token de resposta; valida no serviço externo
//	BYPASS_GRANTED   validação ok: grant gravado, pipeline segue
//	CHALLENGE_FAILED token reprovado ou verificador com erro: 429 de novo
//
// Detecção falha aberta (erro/pânico no avaliador => segue o pipeline);
// validação falha fechada (erro no verificador => desafio reemitido).
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.Principal == nil {
		opts.Principal = AnonymousPrincipal
	}
	if opts.TokenFormField == "" {
		opts.TokenFormField = defaultTokenFormField
	}
	if opts.TokenHeader == "" {
		opts.TokenHeader = defaultTokenHeader
	}
	if opts.TokenQuery == "" {
		opts.TokenQuery = defaultTokenQuery
	}
	if opts.VerifyTimeout <= 0 {
		opts.VerifyTimeout = defaultVerifyTimeout
	}
	skipPrefixes := opts.SkipPrefixes
	if skipPrefixes == nil {
		skipPrefixes = defaultSkipPrefixes
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// SKIP: assets e endpoints operacionais nem tocam no avaliador.
			if skipPath(r.URL.Path, skipPrefixes, defaultSkipSuffixes) {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r)

			// SKIP: bypass vigente é um override duro.
			if opts.Bypass.TryGetBypass(ip) {
				record(opts, r, "", domain.OutcomeBypassed)
				next.ServeHTTP(w, r)
				return
			}

			// EVALUATE
			facts := Facts(r, opts.Principal, opts.Session)
			if !evaluateSafe(opts, facts) {
				record(opts, r, "", domain.OutcomePassed)
				next.ServeHTTP(w, r)
				return
			}

			fp := domain.DeriveFingerprint(facts)
			token := extractToken(r, opts)
			if token == "" {
				// CHALLENGE_ISSUED
				opts.Ledger.RecordViolation(facts, fp)
				record(opts, r, fp, domain.OutcomeChallenged)
				opts.Logger.Info().
					Str("fingerprint", fp).
					Str("path", r.URL.Path).
					Str("ip", ip).
					Msg("captcha challenge issued")
				writeChallenge(w, r, opts)
				return
			}

			// VALIDATING — única chamada de rede; sempre com timeout.
			ctx, cancel := context.WithTimeout(r.Context(), opts.VerifyTimeout)
			ok, err := verify(ctx, opts.Verifier, token, ip)
			cancel()

			if err != nil || !ok {
				// CHALLENGE_FAILED: fail closed — erro do verificador não
				// vira bypass grátis.
				ev := opts.Logger.Warn().
					Str("fingerprint", fp).
					Str("path", r.URL.Path).
					Str("ip", ip)
				if err != nil {
					ev = ev.Err(err)
				}
				ev.Msg("captcha validation failed")

				opts.Ledger.RecordViolation(facts, fp)
				record(opts, r, fp, domain.OutcomeRejected)
				writeChallenge(w, r, opts)
				return
			}

			// BYPASS_GRANTED
			opts.Bypass.GrantBypass(ip, opts.BypassTTL)
			record(opts, r, fp, domain.OutcomeValidated)
			opts.Logger.Info().
				Str("fingerprint", fp).
				Str("ip", ip).
				Msg("captcha validated, bypass granted")
			next.ServeHTTP(w, r)
		})
	}
}

// evaluateSafe isola o avaliador: erro interno ou pânico degrada para
// "desafio não exigido" (fail open), nunca bloqueia tráfego legítimo porque o
// próprio detector está doente.
func evaluateSafe(opts Options, facts *domain.RequestFacts) (required bool) {
	defer func() {
		if rec := recover(); rec != nil {
			opts.Logger.Warn().Interface("panic", rec).Msg("risk evaluator panicked, failing open")
			required = false
		}
	}()

	if opts.Evaluator == nil {
		return false
	}
	return opts.Evaluator.ShouldRequireCaptcha(facts)
}

// verify protege contra Verifier nulo e devolve o resultado cru.
func verify(ctx context.Context, v domain.Verifier, token, ip string) (bool, error) {
	if v == nil {
		return false, nil
	}
	return v.Verify(ctx, token, ip)
}

// extractToken procura o token de resposta na ordem: campo de formulário,
// header customizado, query string.
func extractToken(r *http.Request, opts Options) string {
	if v := r.PostFormValue(opts.TokenFormField); v != "" {
		return v
	}
	if v := r.Header.Get(opts.TokenHeader); v != "" {
		return v
	}
	return r.URL.Query().Get(opts.TokenQuery)
}

func record(opts Options, r *http.Request, fp string, outcome domain.Outcome) {
	if opts.Stats == nil {
		return
	}
	_ = opts.Stats.Record(r.Context(), domain.StatsEvent{
		Fingerprint: fp,
		Outcome:     outcome,
		Method:      r.Method,
		Path:        r.URL.Path,
		At:          time.Now(),
	})
}

type challengePayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	SiteKey string `json:"siteKey"`
}

// Página mínima com o widget; o formulário reenvia para o mesmo caminho com o
// token no campo padrão do Turnstile.
const challengePage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Verification required</title>
  <script src="https://challenges.cloudflare.com/turnstile/v0/api.js" async defer></script>
</head>
<body>
  <h1>Please verify you are human</h1>
  <p>Unusual traffic was detected from your connection. Complete the challenge below to continue.</p>
  <form method="POST" action="%s">
    <div class="cf-turnstile" data-sitekey="%s"></div>
    <button type="submit">Continue</button>
  </form>
</body>
</html>
`

func writeChallenge(w http.ResponseWriter, r *http.Request, opts Options) {
	if Negotiate(r) == FormatJSON {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(challengePayload{
			Error:   "captcha_required",
			Message: "complete the challenge and retry with the response token",
			SiteKey: opts.SiteKey,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	fmt.Fprintf(w, challengePage, r.URL.Path, opts.SiteKey)
}
