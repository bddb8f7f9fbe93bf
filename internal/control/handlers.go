package control

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/PavelShilinRussia/MyMiniPGW/internal/drain"
)

func (s *Server) handleCheckSubscriber(w http.ResponseWriter, r *http.Request) {
	imsi := r.URL.Query().Get("imsi")
	if imsi == "" {
		http.Error(w, "missing required query parameter: imsi", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.ctx.Sessions.IsActive(imsi) {
		w.Write([]byte("active"))
		return
	}
	w.Write([]byte("not active"))
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Shutting down..."))

	if first := s.ctx.RequestShutdown(); !first {
		return
	}

	go func() {
		drain.Run(s.ctx, s.gracefulRate)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Shutdown(shutdownCtx)

		if s.onShutdown != nil {
			s.onShutdown()
		}
	}()
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.ctx.Stats.Snapshot(s.ctx.Sessions.Size())

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(snap)
}
