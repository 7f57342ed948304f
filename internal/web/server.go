// Package web is the JSON HTTP surface: agent CRUD, chat, file upload, and
// knowledge stats, all backed by the session manager.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mkline-dev/valet/internal/agent"
	"github.com/mkline-dev/valet/internal/config"
)

// NewServer creates and configures the HTTP server.
func NewServer(manager *agent.Manager, cfg *config.Config, paths agent.Paths, version, bind string, port int) *http.Server {
	h := &Handlers{
		manager: manager,
		cfg:     cfg,
		paths:   paths,
		version: version,
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.HandleFunc("GET /agents", h.HandleListAgents)
	mux.HandleFunc("POST /agents", h.HandleCreateAgent)
	mux.HandleFunc("GET /agents/{id}", h.HandleGetAgent)
	mux.HandleFunc("PATCH /agents/{id}", h.HandleUpdateAgent)
	mux.HandleFunc("DELETE /agents/{id}", h.HandleDeleteAgent)
	mux.HandleFunc("GET /agents/{id}/knowledge", h.HandleKnowledgeStats)
	mux.HandleFunc("POST /chat/{agentId}", h.HandleChat)
	mux.HandleFunc("POST /upload", h.HandleUpload)

	// Wrap with security headers
	handler := securityHeaders(mux)

	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", bind, port),
		Handler: handler,
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("Assistant API running at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Printf("WARNING: Server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
