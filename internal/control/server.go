// Package control implements the HTTP control plane: subscriber status
// lookup and the shutdown trigger.
package control

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/PavelShilinRussia/MyMiniPGW/internal/pgwctx"
)

// Server wraps the gorilla/mux router and the stdlib HTTP server it
// drives.
type Server struct {
	port          int
	ctx           *pgwctx.Context
	router        *mux.Router
	httpServer    *http.Server
	gracefulRate  int
	onShutdown    func()
}

// New builds the control server bound to port. onShutdown is invoked
// once, the first time /stop is hit, after the response has been
// written, the drain protocol has run and the HTTP server has been
// shut down; it is expected to stop the remaining tasks.
func New(port int, ctx *pgwctx.Context, gracefulRate int, onShutdown func()) *Server {
	s := &Server{
		port:         port,
		ctx:          ctx,
		router:       mux.NewRouter(),
		gracefulRate: gracefulRate,
		onShutdown:   onShutdown,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/check_subscriber", s.handleCheckSubscriber).Methods(http.MethodGet)
	s.router.HandleFunc("/stop", s.handleStop).Methods(http.MethodGet)
	s.router.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"remote": r.RemoteAddr,
		}).Debug("control: request")
		next.ServeHTTP(w, r)
	})
}

// Run starts the listener and blocks until the server is shut down
// from elsewhere (a /stop handler calling Shutdown). It returns nil on
// a clean shutdown.
func (s *Server) Run() error {
	s.router.Use(loggingMiddleware)
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	log.WithField("port", s.port).Info("control: listening")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		log.Info("control: server closed cleanly")
		return nil
	}
	return err
}

// Shutdown stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
