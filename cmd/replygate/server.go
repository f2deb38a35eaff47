package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"replygate/internal/middleware"
	"replygate/internal/models"
	"replygate/internal/service"
	smstypes "replygate/pkg/sms/types"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Server struct {
	router     *mux.Router
	logger     *logrus.Logger
	cfg        *models.Config
	ingest     *service.IngestStage
	enrichment *service.EnrichmentStage
	commands   *service.CommandStage
	server     *http.Server
}

func NewServer(cfg *models.Config, ingest *service.IngestStage, enrichment *service.EnrichmentStage, commands *service.CommandStage, logger *logrus.Logger) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		logger:     logger,
		cfg:        cfg,
		ingest:     ingest,
		enrichment: enrichment,
		commands:   commands,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.ObservabilityMiddleware(s.logger))

	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)

	webhook := s.router.PathPrefix("/webhook/sms").Subrouter()
	webhook.HandleFunc("", s.handleInboundWebhook()).Methods(http.MethodPost)
	webhook.HandleFunc("/owner", s.handleOwnerWebhook()).Methods(http.MethodPost)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeoutSec) * time.Second,
	}

	s.logger.Infof("Starting server on port %s", s.cfg.Server.Port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}
}

// handleInboundWebhook accepts provider deliveries. Owner traffic routes to
// the command stage; everything else is ingested and enriched synchronously.
// The provider always gets a generic acknowledgment regardless of business
// outcome.
func (s *Server) handleInboundWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.logger.WithError(err).Warn("Failed to parse webhook form")
			w.WriteHeader(http.StatusOK)
			return
		}

		sender := r.Form.Get("From")
		if sender == s.cfg.Owner.PhoneNumber {
			s.commands.HandleCommand(r.Context(), sender, r.Form.Get("Body"))
			w.WriteHeader(http.StatusOK)
			return
		}

		payload, err := smstypes.ParsePayload(r.Form)
		if err != nil {
			s.logger.WithError(err).Warn("Malformed inbound payload")
			w.WriteHeader(http.StatusOK)
			return
		}

		s.ingest.Ingest(r.Context(), payload)
		s.enrichment.Enrich(r.Context())

		w.WriteHeader(http.StatusOK)
	}
}

// handleOwnerWebhook is a dedicated command endpoint. Unlike the shared
// inbound hook it answers 403 to non-owner senders.
func (s *Server) handleOwnerWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.logger.WithError(err).Warn("Failed to parse owner webhook form")
			w.WriteHeader(http.StatusOK)
			return
		}

		outcome := s.commands.HandleCommand(r.Context(), r.Form.Get("From"), r.Form.Get("Body"))
		if outcome == service.OutcomeUnauthorized {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}
