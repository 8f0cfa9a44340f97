package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"setlist-gateway/middleware/challenge"
	"setlist-gateway/middleware/challenge/application"
	"setlist-gateway/middleware/challenge/domain"
	"setlist-gateway/middleware/challenge/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := readConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("config error")
	}

	target, err := url.Parse(cfg.upstreamURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid UPSTREAM_URL")
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error().Err(err).Msg("proxy error")
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// cache de processo: único mecanismo de persistência do gate
	// (nada sobrevive a restart, por construção).
	cache := infra.NewMemCache()
	cache.StartJanitor(ctx)

	ledger := application.Ledger{
		Counters:        cache,
		ViolationWindow: cfg.violationWindow,
		Logger:          logger,
	}
	evaluator := application.NewEvaluator(application.Config{
		ViolationLimit: cfg.violationLimit,
		EndpointBurst:  cfg.endpointBurst,
		HighRiskBurst:  cfg.highRiskBurst,
		SegmentBurst:   cfg.segmentBurst,
		BurstWindow:    cfg.burstWindow,
	}, ledger, logger)
	bypass := application.BypassService{
		Grants: cache,
		TTL:    cfg.bypassTTL,
		Logger: logger,
	}

	var stats domain.StatsStore
	if cfg.statsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.statsRedisAddr,
			Password: cfg.statsRedisPassword,
			DB:       cfg.statsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancelPing()
		if err != nil {
			logger.Fatal().Err(err).Msg("redis stats ping error")
		}

		stats = infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.statsPrefix),
			infra.WithStatsTTL(cfg.statsTTL),
			infra.WithStatsBucket(cfg.statsBucket),
			infra.WithStatsTrackFingerprints(cfg.statsTrackFingerprints),
		)
	}

	policyStore := infra.NewPolicyStore(nil)
	policyStore.StartJanitor(ctx)

	h := http.Handler(proxy)
	h = challenge.ConcurrencyMiddleware(challenge.ConcurrencyOptions{
		Max:            cfg.concurrencyMax,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.concurrencyTimeout,
	})(h)
	if cfg.policyEnabled {
		h = challenge.PolicyMiddleware(challenge.PolicyOptions{
			Store:           policyStore,
			AddPolicyHeader: cfg.addHeaders,
			Logger:          logger,
		})(h)
	}
	if cfg.captchaEnabled {
		h = challenge.Middleware(challenge.Options{
			Evaluator: evaluator,
			Ledger:    ledger,
			Bypass:    bypass,
			Verifier:  infra.NewTurnstileVerifier(cfg.captchaSecret),
			Stats:     stats,
			Logger:    logger,
			Session:   challenge.CookieSession(cfg.sessionCookie),
			SiteKey:   cfg.captchaSiteKey,
			BypassTTL: cfg.bypassTTL,
		})(h)
	}
	if cfg.addHeaders {
		h = challenge.HeadersMiddleware(challenge.HeaderOptions{
			Limiters: policyStore,
		})(h)
	}

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("listen", cfg.listenAddr).Str("upstream", target.String()).Msg("gateway listening")
	logger.Info().
		Bool("captcha", cfg.captchaEnabled).
		Bool("policy", cfg.policyEnabled).
		Int64("violationLimit", cfg.violationLimit).
		Int64("endpointBurst", cfg.endpointBurst).
		Int64("highRiskBurst", cfg.highRiskBurst).
		Int64("segmentBurst", cfg.segmentBurst).
		Dur("bypassTTL", cfg.bypassTTL).
		Msg("abuse gate configured")
	logger.Info().
		Bool("stats", cfg.statsEnabled).
		Str("redisAddr", cfg.statsRedisAddr).
		Str("bucket", cfg.statsBucket).
		Msg("stats configured")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
}

type config struct {
	listenAddr  string
	upstreamURL string

	captchaEnabled bool
	captchaSiteKey string
	captchaSecret  string
	sessionCookie  string
	bypassTTL      time.Duration

	violationLimit  int64
	violationWindow time.Duration
	endpointBurst   int64
	highRiskBurst   int64
	segmentBurst    int64
	burstWindow     time.Duration

	policyEnabled bool
	addHeaders    bool

	concurrencyMax     int
	concurrencyTimeout time.Duration

	statsEnabled           bool
	statsRedisAddr         string
	statsRedisPassword     string
	statsRedisDB           int
	statsPrefix            string
	statsTTL               time.Duration
	statsBucket            string
	statsTrackFingerprints bool
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.upstreamURL = os.Getenv("UPSTREAM_URL")

	cfg.captchaEnabled = getenvBoolDefault("CAPTCHA_ENABLED", true)
	cfg.captchaSiteKey = os.Getenv("CAPTCHA_SITE_KEY")
	cfg.captchaSecret = os.Getenv("CAPTCHA_SECRET")
	cfg.sessionCookie = getenvDefault("SESSION_COOKIE", "session_id")
	cfg.bypassTTL = getenvDurationDefault("BYPASS_TTL", 10*time.Minute)

	cfg.violationLimit = int64(getenvIntDefault("VIOLATION_LIMIT", 3))
	cfg.violationWindow = getenvDurationDefault("VIOLATION_WINDOW", 30*time.Minute)
	cfg.endpointBurst = int64(getenvIntDefault("ENDPOINT_BURST", 30))
	cfg.highRiskBurst = int64(getenvIntDefault("HIGHRISK_BURST", 10))
	cfg.segmentBurst = int64(getenvIntDefault("SEGMENT_BURST", 50))
	cfg.burstWindow = getenvDurationDefault("BURST_WINDOW", time.Minute)

	cfg.policyEnabled = getenvBoolDefault("POLICY_ENABLED", true)
	cfg.addHeaders = getenvBoolDefault("ADD_RATELIMIT_HEADERS", true)

	cfg.concurrencyMax = getenvIntDefault("CONCURRENCY_MAX", 100)
	cfg.concurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", 0)

	cfg.statsEnabled = getenvBoolDefault("STATS_ENABLED", false)
	cfg.statsRedisAddr = getenvDefault("STATS_REDIS_ADDR", "")
	cfg.statsRedisPassword = os.Getenv("STATS_REDIS_PASSWORD")
	cfg.statsRedisDB = getenvIntDefault("STATS_REDIS_DB", 0)
	cfg.statsPrefix = getenvDefault("STATS_PREFIX", "challenge:stats")
	cfg.statsTTL = getenvDurationDefault("STATS_TTL", 24*time.Hour)
	cfg.statsBucket = getenvDefault("STATS_BUCKET", "minute")
	cfg.statsTrackFingerprints = getenvBoolDefault("STATS_TRACK_FINGERPRINTS", false)

	if cfg.upstreamURL == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	if cfg.captchaEnabled {
		if strings.TrimSpace(cfg.captchaSecret) == "" {
			return config{}, errors.New("CAPTCHA_SECRET is required when CAPTCHA_ENABLED=true")
		}
		if strings.TrimSpace(cfg.captchaSiteKey) == "" {
			return config{}, errors.New("CAPTCHA_SITE_KEY is required when CAPTCHA_ENABLED=true")
		}
	}
	if cfg.statsEnabled && strings.TrimSpace(cfg.statsRedisAddr) == "" {
		return config{}, errors.New("STATS_REDIS_ADDR is required when STATS_ENABLED=true")
	}
	if cfg.violationLimit <= 0 {
		return config{}, errors.New("VIOLATION_LIMIT must be > 0")
	}
	if cfg.concurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
