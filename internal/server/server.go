package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/akolanti/DocChat/internal/adapter/utils"
	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/handlers"
	"github.com/akolanti/DocChat/internal/middleware"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

type Server struct {
	server  *http.Server
	limiter *middleware.IPRateLimiter
	logger  *logger_i.Logger
}

// NewRouter mounts the api, the mcp endpoint (when mcpHandler is not nil), swagger and metrics.
func NewRouter(h *handlers.Handler, mw *middleware.Middleware, mcpHandler http.Handler) *chi.Mux {
	r := utils.NewRouter()

	r.Router.Get("/health", handlers.HealthHandler)

	r.Router.Route("/api", func(api chi.Router) {
		api.Post("/chat/new", mw.Wrap(h.NewChatHandler))
		api.Get("/chat/all", mw.Wrap(h.ListChatsHandler))
		api.Get("/chat/history", mw.Wrap(h.HistoryHandler))
		api.Get("/chat/history/{chatId}", mw.Wrap(h.HistoryOneHandler))
		api.Post("/chat/{chatId}/message", mw.WrapLimited(h.SendMessageHandler))
		api.Patch("/chat/{chatId}/title", mw.Wrap(h.RenameChatHandler))
		api.Delete("/chat/{chatId}", mw.Wrap(h.DeleteChatHandler))

		api.Post("/documents/ingest", mw.WrapLimited(h.PostIngestHandler))
		api.Get("/documents", mw.Wrap(h.ListDocumentsHandler))
		api.Get("/documents/{documentId}", mw.Wrap(h.GetDocumentHandler))
		api.Delete("/documents/{documentId}", mw.Wrap(h.DeleteDocumentHandler))
		api.Get("/status/{id}", mw.Wrap(h.GetStatusHandler))
	})

	if mcpHandler != nil {
		r.Router.Handle("/mcp", mw.WrapLimited(mcpHandler.ServeHTTP))
	}
	return r.Router
}

func New(listenAddr string, handler http.Handler, limiter *middleware.IPRateLimiter) *Server {
	return &Server{
		server: &http.Server{
			Addr:         listenAddr,
			Handler:      handler,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		limiter: limiter,
		logger:  logger_i.NewLogger("Server"),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server is listening at", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server crashed", "error", err, "addr", s.server.Addr)
			errCh <- err
		}
		close(errCh)
	}()

	janitor := time.NewTicker(config.LimiterEvictInterval)
	defer janitor.Stop()
	for {
		select {
		case err, ok := <-errCh:
			if ok {
				return err
			}
			return nil
		case <-janitor.C:
			if s.limiter != nil {
				if n := s.limiter.Evict(config.LimiterEvictInterval); n > 0 {
					s.logger.Debug("Evicted idle rate limiters", "count", n)
				}
			}
		case <-ctx.Done():
			return s.shutdown()
		}
	}
}

func (s *Server) shutdown() error {
	s.logger.Info("Server is shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	s.server.SetKeepAlivesEnabled(false)
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("Could not shutdown gracefully", "error", err)
		return err
	}
	s.logger.Info("Server stopped")
	return nil
}
