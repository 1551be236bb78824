package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/workfin/practice-api/internal/authz"
	"github.com/workfin/practice-api/internal/handlers"
	"github.com/workfin/practice-api/internal/middleware"
	"github.com/workfin/practice-api/internal/models"
)

// NewRouter sets up the API routes. Everything under /api requires a valid
// bearer token; writes and sync triggers additionally require the operator
// tier, connection deletion the admin tier.
func NewRouter(
	jwtSecret string,
	conn *handlers.ConnectionHandler,
	sync *handlers.SyncHandler,
	oauth *handlers.OAuthHandler,
	notif *handlers.NotificationHandler,
) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	// OAuth callback. Unauthenticated: the browser lands here straight from
	// the Xero consent screen, the connection travels in the state parameter.
	router.HandleFunc("/xero/callback", oauth.Callback).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.JWTMiddleware(jwtSecret))

	operator := func(h http.HandlerFunc) http.Handler {
		return authz.RequireRoleHandler(models.RoleOperator, h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authz.RequireRoleHandler(models.RoleAdmin, h)
	}

	// Connections
	api.HandleFunc("/connections", conn.List).Methods(http.MethodGet)
	api.Handle("/connections", operator(conn.Create)).Methods(http.MethodPost)
	api.HandleFunc("/connections/{id}", conn.Get).Methods(http.MethodGet)
	api.Handle("/connections/{id}", operator(conn.Update)).Methods(http.MethodPut)
	api.Handle("/connections/{id}", admin(conn.Delete)).Methods(http.MethodDelete)
	api.Handle("/connections/{id}/test", operator(conn.Test)).Methods(http.MethodPost)
	api.Handle("/connections/{id}/xero/authorize", operator(oauth.Authorize)).Methods(http.MethodGet)

	// Sync triggers and history
	api.Handle("/connections/{id}/sync", operator(sync.TriggerSync)).Methods(http.MethodPost)
	api.Handle("/connections/{id}/sync/{entity}", operator(sync.TriggerSync)).Methods(http.MethodPost)
	api.HandleFunc("/connections/{id}/history", sync.History).Methods(http.MethodGet)

	// Lake integration catalog
	api.HandleFunc("/integrations", sync.ListCatalog).Methods(http.MethodGet)
	api.Handle("/integrations/sync", operator(sync.TriggerCatalogSync)).Methods(http.MethodPost)

	// Notifications
	api.HandleFunc("/notifications", notif.List).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{id}/read", notif.MarkRead).Methods(http.MethodPost)

	return router
}
