package bridge

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/ugokugo/internal/snapshot"
)

// NewHandler serves /health (plain "OK" and the simulation name) and
// /snapshot (the current state as YAML). session may be nil before any
// program is loaded, in which case /snapshot answers 503.
func NewHandler(session *Session, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		if session == nil {
			fmt.Fprintln(w, "OK")
			return
		}
		fmt.Fprintf(w, "OK %s\n", session.Name())
	})
	mux.HandleFunc("GET /snapshot", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("Snapshot endpoint hit.", "remote_addr", r.RemoteAddr)
		if session == nil {
			http.Error(w, "no simulation loaded", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		if err := (snapshot.YAMLEncoder{}).Encode(w, session.Snapshot()); err != nil {
			logger.Error("Failed to encode snapshot", "error", err)
		}
	})
	return mux
}
