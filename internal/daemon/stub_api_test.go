package daemon

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// stubAPI stands in for the daemon's HTTP surface: /health flips
// between 503 and 200, and /shutdown runs an optional hook. Without a
// hook the shutdown request is acknowledged but nothing exits, which is
// exactly how a wedged daemon behaves.
type stubAPI struct {
	mu         sync.Mutex
	healthy    bool
	onShutdown func()
	shutdowns  int
	srv        *httptest.Server
}

func newStubAPI(t *testing.T, healthy bool) *stubAPI {
	t.Helper()
	s := &stubAPI{healthy: healthy}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		ok := s.healthy
		s.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","engine_ready":true,"idle_seconds":1.5,"idle_timeout_minutes":30}`))
	})
	mux.HandleFunc("/shutdown", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		s.shutdowns++
		fn := s.onShutdown
		s.mu.Unlock()
		if fn != nil {
			fn()
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"stopping"}`))
	})
	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *stubAPI) URL() string { return s.srv.URL }

func (s *stubAPI) setHealthy(v bool) {
	s.mu.Lock()
	s.healthy = v
	s.mu.Unlock()
}

func (s *stubAPI) setOnShutdown(fn func()) {
	s.mu.Lock()
	s.onShutdown = fn
	s.mu.Unlock()
}

func (s *stubAPI) shutdownCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdowns
}
