package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/larswaechter/aionic-api/config"
	"github.com/larswaechter/aionic-api/internal/auth"
	"github.com/larswaechter/aionic-api/internal/cache"
	"github.com/larswaechter/aionic-api/internal/db"
	"github.com/larswaechter/aionic-api/internal/handlers"
	"github.com/larswaechter/aionic-api/internal/mail"
	"github.com/larswaechter/aionic-api/internal/services"
	"github.com/larswaechter/aionic-api/internal/store"
	"github.com/uptrace/bun"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *bun.DB
	queue      mail.Queue
	logger     *slog.Logger
}

// New constructs a Server: database, stores, services, auth middleware
// and routes. It fails fast when JWT_SECRET is missing; a broken policy
// file is logged and replaced by an empty (deny-everything) policy so
// the public auth routes stay reachable.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Auth.Secret == "" {
		_ = dbConn.Close()
		return nil, errors.New("JWT_SECRET is required")
	}

	tokenTTL := time.Duration(cfg.Auth.TokenTTL) * time.Hour
	tokens := auth.NewTokenService([]byte(cfg.Auth.Secret), cfg.Auth.Issuer, cfg.Auth.Audience, tokenTTL)

	policy, err := auth.LoadPolicyFile(cfg.Auth.PolicyFile)
	if err != nil {
		logger.Error("failed to load policy file, denying all permissions", "path", cfg.Auth.PolicyFile, "error", err)
	}

	userStore := store.NewUserStore(dbConn)
	roleStore := store.NewRoleStore(dbConn)
	invitationStore := store.NewInvitationStore(dbConn)

	mailer, queue, err := buildMailer(ctx, cfg, logger)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userCache := cache.New(time.Duration(cfg.CacheTTL) * time.Second)

	userService := services.NewUserService(userStore, userCache)
	roleService := services.NewRoleService(roleStore)
	invitationService := services.NewInvitationService(
		dbConn, invitationStore, userStore, roleStore,
		mailer, userCache, cfg.Auth.DefaultRole, logger,
	)

	authMiddleware := auth.NewMiddleware(tokens, userStore, policy, logger)
	authHandler := handlers.NewAuthHandler(userService, invitationService, tokens)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler, authMiddleware)
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, authMiddleware)
	})
	router.Route("/user-roles", func(r chi.Router) {
		handlers.RoleRouter(r, roleService, authMiddleware)
	})
	router.Route("/user-invitations", func(r chi.Router) {
		handlers.InvitationRouter(r, invitationService, authMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		queue:      queue,
		logger:     logger,
	}, nil
}

// buildMailer selects the mail transport from MAIL_BACKEND. The queue
// return value is non-nil only for broker-backed mailers and must be
// closed on shutdown.
func buildMailer(ctx context.Context, cfg config.Config, logger *slog.Logger) (mail.Mailer, mail.Queue, error) {
	switch cfg.Mail.Backend {
	case "rabbitmq":
		queue, err := mail.NewRabbitMQQueue(cfg.RabbitMQ)
		if err != nil {
			return nil, nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return mail.NewQueueMailer(queue, cfg.Mail.Domain, logger), queue, nil
	case "pubsub":
		queue, err := mail.NewPubSubQueue(ctx, cfg.PubSub)
		if err != nil {
			return nil, nil, fmt.Errorf("connect pubsub: %w", err)
		}
		return mail.NewQueueMailer(queue, cfg.Mail.Domain, logger), queue, nil
	case "", "none":
		return mail.NewLogMailer(cfg.Mail.Domain, logger), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown mail backend %q", cfg.Mail.Backend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
