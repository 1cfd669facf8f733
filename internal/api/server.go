package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"board-automator-api/internal/api/common"
	"board-automator-api/internal/api/event"
	"board-automator-api/internal/api/health"
	"board-automator-api/internal/api/rule"
	"board-automator-api/internal/api/run"
	"board-automator-api/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config bevat de instellingen die de HTTP laag nodig heeft
type Config struct {
	JWTSecretKey   string
	AllowedOrigins []string
}

type Server struct {
	Router *chi.Mux
	store  store.Storer
	runner event.Runner
	db     health.Pinger
	cfg    Config
	Logger *zap.Logger
}

func NewServer(s store.Storer, runner event.Runner, db health.Pinger, cfg Config, log *zap.Logger) *Server {
	server := &Server{
		Router: chi.NewRouter(),
		store:  s,
		runner: runner,
		db:     db,
		cfg:    cfg,
		Logger: log.With(zap.String("component", "api")),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.RealIP)
	s.Router.Use(s.requestLogger)
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.Router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.HandleHealth(s.db, s.Logger))

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// Rule routes
			r.Post("/workspaces/{workspaceId}/rules", rule.HandleCreateRule(s.store, s.Logger))
			r.Get("/workspaces/{workspaceId}/rules", rule.HandleGetRules(s.store, s.Logger))
			r.Get("/rules/{ruleId}", rule.HandleGetRule(s.store, s.Logger))
			r.Put("/rules/{ruleId}", rule.HandleUpdateRule(s.store, s.Logger))
			r.Put("/rules/{ruleId}/toggle", rule.HandleToggleRule(s.store, s.Logger))

			// Audit trail
			r.Get("/rules/{ruleId}/runs", run.HandleGetRunsForRule(s.store, s.Logger))
			r.Get("/workspaces/{workspaceId}/runs", run.HandleGetRunsForWorkspace(s.store, s.Logger))

			// Board events
			r.Post("/workspaces/{workspaceId}/events", event.HandleTriggerEvent(s.store, s.runner, s.Logger))
		})
	})
}

// requestLogger logt elke request met status en duur
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// authMiddleware valideert JWT en zet user ID in context
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			common.WriteJSONError(w, http.StatusUnauthorized, "Geen authenticatie header", s.Logger)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		jwtKey := []byte(s.cfg.JWTSecretKey)

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("ongeldige signing method")
			}
			return jwtKey, nil
		})

		if err != nil || !token.Valid {
			common.WriteJSONError(w, http.StatusUnauthorized, "Ongeldige token", s.Logger)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			common.WriteJSONError(w, http.StatusUnauthorized, "Ongeldige claims", s.Logger)
			return
		}

		userIDStr, ok := claims["user_id"].(string)
		if !ok {
			common.WriteJSONError(w, http.StatusUnauthorized, "Geen user ID in token", s.Logger)
			return
		}

		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			common.WriteJSONError(w, http.StatusUnauthorized, "Ongeldig user ID", s.Logger)
			return
		}

		ctx := context.WithValue(r.Context(), common.UserContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
