// Package server wires stores, handlers, the live feed hub, and the reminder
// scheduler into a single HTTP surface.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"agendaku/internal/handler"
	"agendaku/internal/middleware"
	"agendaku/internal/push"
	"agendaku/internal/reminder"
	"agendaku/internal/store"
	ws "agendaku/internal/websocket"
)

// Config carries the assembly options read from the environment.
type Config struct {
	Push push.Config

	// PreserveReminderFlag keeps a fired reminder fired when an agenda is
	// edited. When false, edits re-arm the reminder.
	PreserveReminderFlag bool
}

type Server struct {
	db                *sql.DB
	hub               *ws.Hub
	authH             *handler.AuthHandler
	agendaH           *handler.AgendaHandler
	notificationH     *handler.NotificationHandler
	pushH             *handler.PushHandler
	icalH             *handler.ICalHandler
	sessionStore      *store.SessionStore
	userStore         *store.UserStore
	notificationStore *store.NotificationStore
	rateLimiter       *middleware.RateLimiter
	scheduler         *reminder.Scheduler
	logger            *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	agendaStore := store.NewAgendaStore(db)
	notificationStore := store.NewNotificationStore(db)
	pushStore := store.NewPushStore(db)

	var pushSvc *push.Service
	var pushH *handler.PushHandler
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey)
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push"))
	}

	scheduler := reminder.NewScheduler(agendaStore, sessionStore, notificationStore, pushStore, pushSvc, hub, logger.With("component", "reminder"))

	return &Server{
		db:                db,
		hub:               hub,
		authH:             handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		agendaH:           handler.NewAgendaHandler(agendaStore, hub, cfg.PreserveReminderFlag, logger.With("component", "agenda")),
		notificationH:     handler.NewNotificationHandler(notificationStore, logger.With("component", "notification")),
		pushH:             pushH,
		icalH:             handler.NewICalHandler(agendaStore, logger.With("component", "ical")),
		sessionStore:      sessionStore,
		userStore:         userStore,
		notificationStore: notificationStore,
		rateLimiter:       middleware.NewRateLimiter(),
		scheduler:         scheduler,
		logger:            logger,
	}
}

// Scheduler returns the reminder scheduler for lifecycle management.
func (s *Server) Scheduler() *reminder.Scheduler {
	return s.scheduler
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// NotificationStore returns the notification store for cleanup tasks.
func (s *Server) NotificationStore() *store.NotificationStore {
	return s.notificationStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /api/signup", s.rateLimitedHandler(s.authH.Signup))
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/session", s.authH.Session)

	// Agenda reads are open to every signed-in role
	mux.HandleFunc("GET /api/agendas", s.agendaH.List)
	mux.HandleFunc("GET /api/agendas/export.ics", s.icalH.Export)
	mux.HandleFunc("GET /api/agendas/{id}", s.agendaH.Get)
	mux.HandleFunc("GET /api/categories", s.agendaH.Categories)

	// Mutations are admin only
	mux.Handle("POST /api/agendas", middleware.RequireAdmin(http.HandlerFunc(s.agendaH.Create)))
	mux.Handle("PUT /api/agendas/{id}", middleware.RequireAdmin(http.HandlerFunc(s.agendaH.Update)))
	mux.Handle("DELETE /api/agendas/{id}", middleware.RequireAdmin(http.HandlerFunc(s.agendaH.Delete)))

	mux.HandleFunc("GET /api/notifications", s.notificationH.List)

	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	}

	// WebSocket live feed
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
