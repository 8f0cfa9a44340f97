package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"setlist-gateway/middleware/challenge"
	"setlist-gateway/middleware/challenge/application"
	"setlist-gateway/middleware/challenge/infra"

	"github.com/rs/zerolog"
)

func main() {
	// Exemplo: injetando o gate diretamente no seu webserver (sem proxy).
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cache := infra.NewMemCache()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	cache.StartJanitor(ctx)

	ledger := application.Ledger{Counters: cache, Logger: logger}
	evaluator := application.NewEvaluator(application.DefaultConfig(), ledger, logger)
	bypass := application.BypassService{Grants: cache, Logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/songs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`[{"id":1,"title":"Interstate Love Song"}]`))
	})
	mux.HandleFunc("/setlists", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("setlists\n"))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	h := http.Handler(mux)
	h = challenge.ConcurrencyMiddleware(challenge.ConcurrencyOptions{Max: 50})(h)
	h = challenge.Middleware(challenge.Options{
		Evaluator: evaluator,
		Ledger:    ledger,
		Bypass:    bypass,
		Verifier:  infra.NewTurnstileVerifier(os.Getenv("CAPTCHA_SECRET")),
		Logger:    logger,
		Session:   challenge.CookieSession("session_id"),
		SiteKey:   os.Getenv("CAPTCHA_SITE_KEY"),
	})(h)
	h = challenge.HeadersMiddleware(challenge.HeaderOptions{})(h)

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("listen", addr).Msg("example server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server error")
	}
}
