package metrics

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Server is the optional exposition listener. It runs only while the
// supervisor is alive and is shut down during teardown with a bounded
// drain, so it can never delay process exit indefinitely.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewServer builds the exposition server. If username is non-empty every
// request must carry basic auth matching username and the bcrypt hash
// passwordHash.
func NewServer(c *Collector, addr, username, passwordHash string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	handler := c.Handler()
	if username != "" {
		handler = basicAuth(handler, username, passwordHash)
	}
	mux.Handle("/metrics", handler)

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start begins serving in the background. Listener errors are logged, not
// fatal: metrics are a convenience surface, the supervised child is the job.
func (s *Server) Start() {
	go func() {
		s.logger.Info("metrics listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Warn("metrics server stopped", "error", err)
		}
	}()
}

// Stop shuts the listener down, waiting at most one second for in-flight
// scrapes.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func basicAuth(next http.Handler, username, passwordHash string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 ||
			bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(pass)) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="corral"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
