package challenge

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestConcurrencyMiddleware_RejectsWhenSlotsExhausted(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var enteredOnce sync.Once

	h := ConcurrencyMiddleware(ConcurrencyOptions{
		Max:            1,
		AcquireTimeout: 20 * time.Millisecond,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enteredOnce.Do(func() { close(entered) })
		<-release
		w.WriteHeader(http.StatusOK)
	}))

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://example/api/songs", nil))
		done <- w
	}()
	<-entered

	// única vaga ocupada: a segunda requisição tem que ser recusada
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "http://example/api/songs", nil))
	if w2.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with exhausted slots, got %d", w2.Code)
	}

	close(release)
	if w1 := <-done; w1.Code != http.StatusOK {
		t.Fatalf("expected holder to finish with 200, got %d", w1.Code)
	}

	// vaga devolvida: volta a aceitar
	w3 := httptest.NewRecorder()
	h.ServeHTTP(w3, httptest.NewRequest(http.MethodGet, "http://example/api/songs", nil))
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200 after slot release, got %d", w3.Code)
	}
}

func TestConcurrencyMiddleware_ZeroMaxIsPassthrough(t *testing.T) {
	called := 0
	h := ConcurrencyMiddleware(ConcurrencyOptions{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://example/api/songs", nil))
	if w.Code != http.StatusOK || called != 1 {
		t.Fatalf("expected passthrough, got code=%d called=%d", w.Code, called)
	}
}
