package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"setlist-gateway/middleware/challenge/domain"
)

// Endpoint siteverify do Cloudflare Turnstile.
const defaultSiteverifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// TurnstileVerifier valida tokens de resposta de desafio contra o serviço
// externo de verificação. É a única chamada de rede do subsistema, sempre com
// timeout: falha ou demora resolve para "validação falhou" em tempo limitado,
// nunca pendura a requisição.
type TurnstileVerifier struct {
	secret   string
	endpoint string
	client   *http.Client
}

type TurnstileOption func(*TurnstileVerifier)

func WithSiteverifyURL(u string) TurnstileOption {
	return func(v *TurnstileVerifier) { v.endpoint = u }
}

func WithHTTPClient(c *http.Client) TurnstileOption {
	return func(v *TurnstileVerifier) { v.client = c }
}

func NewTurnstileVerifier(secret string, opts ...TurnstileOption) *TurnstileVerifier {
	v := &TurnstileVerifier{
		secret:   secret,
		endpoint: defaultSiteverifyURL,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify implementa domain.Verifier. Retorna (false, nil) para token
// reprovado e (false, err) para falha de transporte — o chamador trata ambos
// como validação falhada, mas o erro merece log próprio.
func (v *TurnstileVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, nil
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" && remoteIP != domain.UnknownIP {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("siteverify: unexpected status %d", resp.StatusCode)
	}

	var out siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("siteverify: decode: %w", err)
	}
	return out.Success, nil
}
