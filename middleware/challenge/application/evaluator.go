package application

import (
	"strings"
	"time"

	"setlist-gateway/middleware/challenge/domain"

	"github.com/rs/zerolog"
)

// Config reúne as tabelas heurísticas e limiares do avaliador de risco.
//
// São dados imutáveis injetados na construção (nada de estado global), para
// que testes possam substituir tabelas alternativas.
type Config struct {
	// SuspiciousAgents são substrings (case-insensitive) de user-agents de
	// clientes scriptados. User-agent vazio também conta como suspeito.
	SuspiciousAgents []string

	// HighRiskPrefixes marcam caminhos sensíveis (conta/admin/configurações),
	// que recebem um limiar de rajada mais baixo.
	HighRiskPrefixes []string

	// ViolationLimit: violações recentes a partir das quais o desafio é
	// obrigatório (regra 1).
	ViolationLimit int64

	// EndpointBurst / HighRiskBurst: limiares de rajada por (ip, caminho)
	// para caminhos comuns e sensíveis (regra 3).
	EndpointBurst int64
	HighRiskBurst int64

	// SegmentBurst: limiar de rajada por segmento de rede (/24 ou /64),
	// o detector de ataque distribuído (regra 4).
	SegmentBurst int64

	// BurstWindow é a janela dos contadores de rajada (curta; as violações
	// têm janela própria no Ledger).
	BurstWindow time.Duration
}

// DefaultConfig retorna os limiares de referência.
func DefaultConfig() Config {
	return Config{
		SuspiciousAgents: []string{
			"bot", "crawler", "spider", "scraper",
			"curl", "wget", "python", "java", "perl", "ruby",
			"go-http-client", "httpclient", "okhttp", "libwww",
			"scrapy", "phantom", "headless",
		},
		HighRiskPrefixes: []string{"/account", "/admin", "/settings"},
		ViolationLimit:   3,
		EndpointBurst:    30,
		HighRiskBurst:    10,
		SegmentBurst:     50,
		BurstWindow:      time.Minute,
	}
}

// Evaluator combina os contadores do ledger com heurísticas estáticas e
// decide, por requisição, se o pipeline deve ser interrompido com um desafio.
type Evaluator struct {
	cfg    Config
	ledger Ledger
	logger zerolog.Logger

	agents   []string // já em minúsculas
	prefixes []string
}

// NewEvaluator constrói um avaliador com as tabelas dadas. Campos zerados da
// Config caem nos valores de DefaultConfig.
func NewEvaluator(cfg Config, ledger Ledger, logger zerolog.Logger) *Evaluator {
	def := DefaultConfig()
	if cfg.SuspiciousAgents == nil {
		cfg.SuspiciousAgents = def.SuspiciousAgents
	}
	if cfg.HighRiskPrefixes == nil {
		cfg.HighRiskPrefixes = def.HighRiskPrefixes
	}
	if cfg.ViolationLimit <= 0 {
		cfg.ViolationLimit = def.ViolationLimit
	}
	if cfg.EndpointBurst <= 0 {
		cfg.EndpointBurst = def.EndpointBurst
	}
	if cfg.HighRiskBurst <= 0 {
		cfg.HighRiskBurst = def.HighRiskBurst
	}
	if cfg.SegmentBurst <= 0 {
		cfg.SegmentBurst = def.SegmentBurst
	}
	if cfg.BurstWindow <= 0 {
		cfg.BurstWindow = def.BurstWindow
	}

	e := &Evaluator{cfg: cfg, ledger: ledger, logger: logger}
	e.agents = make([]string, len(cfg.SuspiciousAgents))
	for i, a := range cfg.SuspiciousAgents {
		e.agents[i] = strings.ToLower(a)
	}
	e.prefixes = make([]string, len(cfg.HighRiskPrefixes))
	for i, p := range cfg.HighRiskPrefixes {
		e.prefixes[i] = strings.ToLower(p)
	}
	return e
}

// ShouldRequireCaptcha avalia as quatro regras de risco. Qualquer uma
// verdadeira => desafio obrigatório. Todas são avaliadas sempre, porque as
// regras de rajada têm efeito colateral: observar também é registrar (os
// contadores de rajada são incrementados pela própria avaliação).
//
// O contador de violações, por outro lado, só é LIDO aqui; quem grava é o
// middleware via Ledger.RecordViolation ao emitir um desafio. Senão a mera
// avaliação realimentaria a regra 1 e todo cliente convergiria para o limiar.
//
// Falhas internas de leitura/escrita de contador degradam para "nenhum
// sinal" (fail open); requisição nula retorna false e nunca entra em pânico.
func (e *Evaluator) ShouldRequireCaptcha(f *domain.RequestFacts) bool {
	if f == nil {
		return false
	}

	required := false

	// regra 1: reincidência — violações recentes acima do limiar.
	fp := domain.DeriveFingerprint(f)
	if e.ledger.ViolationCount(fp) >= e.cfg.ViolationLimit {
		required = true
	}

	// regra 2: user-agent vazio ou com cara de cliente scriptado.
	if e.suspiciousAgent(f.UserAgent) {
		required = true
	}

	// regra 3: rajada por (ip, caminho); caminhos sensíveis têm limiar menor.
	path := strings.ToLower(f.Path)
	limit := e.cfg.EndpointBurst
	if hasAnyPrefix(path, e.prefixes) {
		limit = e.cfg.HighRiskBurst
	}
	endpointKey := endpointKeyPrefix + f.ClientIP + ":" + path
	if e.ledger.Bump(endpointKey, e.cfg.BurstWindow) > limit {
		required = true
	}

	// regra 4: rajada por segmento de rede, agregando cada IP distinto da
	// cadeia de proxies — muitos IPs do mesmo /24 (ou /64) agindo como um
	// único ator coordenado.
	for _, seg := range e.segments(f) {
		if e.ledger.Bump(segmentKeyPrefix+seg, e.cfg.BurstWindow) > e.cfg.SegmentBurst {
			required = true
		}
	}

	if required {
		e.logger.Info().
			Str("fingerprint", fp).
			Str("path", f.Path).
			Str("ip", f.ClientIP).
			Msg("captcha challenge required")
	}
	return required
}

func (e *Evaluator) suspiciousAgent(ua string) bool {
	ua = strings.ToLower(strings.TrimSpace(ua))
	if ua == "" {
		return true
	}
	for _, pattern := range e.agents {
		if pattern != "" && strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}

// segments resolve os segmentos de rede distintos vistos na requisição
// (cadeia X-Forwarded-For + IP resolvido), descartando entradas inválidas.
func (e *Evaluator) segments(f *domain.RequestFacts) []string {
	seen := make(map[string]struct{}, len(f.ForwardedChain)+1)
	var out []string

	add := func(ip string) {
		seg := domain.NetworkSegment(ip)
		if seg == "" {
			return
		}
		if _, ok := seen[seg]; ok {
			return
		}
		seen[seg] = struct{}{}
		out = append(out, seg)
	}

	for _, ip := range f.ForwardedChain {
		add(ip)
	}
	add(f.ClientIP)
	return out
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
