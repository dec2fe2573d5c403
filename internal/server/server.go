package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"cadence/internal/handler"
	"cadence/internal/middleware"
	"cadence/internal/push"
	"cadence/internal/reminder"
	"cadence/internal/store"
	ws "cadence/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	dayH          *handler.DayHandler
	templateH     *handler.TemplateHandler
	analyticsH    *handler.AnalyticsHandler
	pushH         *handler.PushHandler
	settingsH     *handler.SettingsHandler
	sessionStore  *store.SessionStore
	userStore     *store.UserStore
	notifiedStore *store.NotifiedStore
	rateLimiter   *middleware.RateLimiter
	scheduler     *reminder.Scheduler
	staticDir     string
	logger        *slog.Logger
}

func New(db *sql.DB, pushCfg push.Config, staticDir string, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	dayStore := store.NewDayStore(db)
	templateStore := store.NewTemplateStore(db)
	settingsStore := store.NewSettingsStore(db)
	pushStore := store.NewPushStore(db)
	notifiedStore := store.NewNotifiedStore(db)

	// Web push is optional; without VAPID keys reminders still go out over
	// the WebSocket channel.
	var pushSvc *push.Service
	if pushCfg.VAPIDPublicKey != "" && pushCfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(pushCfg.VAPIDPublicKey, pushCfg.VAPIDPrivateKey)
	}

	scheduler := reminder.NewScheduler(dayStore, templateStore, notifiedStore, settingsStore, pushStore, pushSvc, hub, logger.With("component", "reminder"))

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		dayH:          handler.NewDayHandler(dayStore, templateStore, hub, logger.With("component", "day")),
		templateH:     handler.NewTemplateHandler(templateStore, dayStore, logger.With("component", "template")),
		analyticsH:    handler.NewAnalyticsHandler(dayStore, logger.With("component", "analytics")),
		pushH:         handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push")),
		settingsH:     handler.NewSettingsHandler(settingsStore, logger.With("component", "settings")),
		sessionStore:  sessionStore,
		userStore:     userStore,
		notifiedStore: notifiedStore,
		rateLimiter:   middleware.NewRateLimiter(),
		scheduler:     scheduler,
		staticDir:     staticDir,
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// NotifiedStore returns the notified-marker store for cleanup tasks.
func (s *Server) NotifiedStore() *store.NotifiedStore {
	return s.notifiedStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Scheduler returns the reminder scheduler.
func (s *Server) Scheduler() *reminder.Scheduler {
	return s.scheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir))))
	outerMux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(s.staticDir, "index.html"))
	})
	outerMux.HandleFunc("GET /health", s.healthHandler)

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
	// Account routes
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)
	mux.HandleFunc("PUT /api/me", s.authH.UpdateProfile)
	mux.HandleFunc("DELETE /api/me", s.authH.DeleteAccount)

	// Day and routine routes
	mux.HandleFunc("GET /api/days/{date}", s.dayH.Get)
	mux.HandleFunc("POST /api/days/{date}/routines", s.dayH.Create)
	mux.HandleFunc("PUT /api/days/{date}/routines/{id}", s.dayH.Update)
	mux.HandleFunc("POST /api/days/{date}/routines/{id}/toggle", s.dayH.Toggle)
	mux.HandleFunc("DELETE /api/days/{date}/routines/{id}", s.dayH.Delete)

	// Template routes
	mux.HandleFunc("GET /api/template", s.templateH.GetDefault)
	mux.HandleFunc("GET /api/templates", s.templateH.List)
	mux.HandleFunc("POST /api/templates", s.templateH.Create)
	mux.HandleFunc("POST /api/templates/{id}/apply", s.templateH.Apply)
	mux.HandleFunc("DELETE /api/templates/{id}", s.templateH.Delete)

	// Analytics
	mux.HandleFunc("GET /api/analytics", s.analyticsH.Get)

	// Push subscriptions
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)

	// Settings
	mux.HandleFunc("GET /api/settings/notifications", s.settingsH.GetNotifications)
	mux.HandleFunc("PUT /api/settings/notifications", s.settingsH.UpdateNotifications)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
