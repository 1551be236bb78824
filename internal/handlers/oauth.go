package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/workfin/practice-api/internal/authz"
	"github.com/workfin/practice-api/internal/models"
	"github.com/workfin/practice-api/internal/repository"
	"github.com/workfin/practice-api/internal/source/xero"
)

// OAuthHandler runs the Xero consent flow for direct-API connections: the
// authorize endpoint hands the frontend a consent URL, the callback receives
// the authorization code and stores the connection's first token pair.
type OAuthHandler struct {
	repo   repository.ConnectionRepository
	tokens *xero.TokenManager
	logger zerolog.Logger
}

func NewOAuthHandler(repo repository.ConnectionRepository, tokens *xero.TokenManager, logger zerolog.Logger) *OAuthHandler {
	return &OAuthHandler{
		repo:   repo,
		tokens: tokens,
		logger: logger.With().Str("handler", "oauth").Logger(),
	}
}

func (h *OAuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	if conn.DataSource != models.DataSourceDirectAPI {
		http.Error(w, "Connection does not sync through the direct API", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"authorization_url": h.tokens.AuthorizeURL(conn.ID),
	})
}

// Callback handles the redirect back from the Xero consent screen. The
// browser arrives here without a bearer token, so the connection is
// identified by the state parameter issued in Authorize.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		http.Error(w, "Missing code or state", http.StatusBadRequest)
		return
	}

	conn, err := h.repo.Get(r.Context(), state)
	if err != nil {
		http.Error(w, "Failed to get connection: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if conn == nil {
		http.Error(w, "Connection not found", http.StatusNotFound)
		return
	}

	if _, err := h.tokens.ExchangeCode(r.Context(), conn.ID, code); err != nil {
		h.logger.Error().Err(err).Str("connection_id", conn.ID).Msg("authorization code exchange failed")
		http.Error(w, "Failed to exchange authorization code: "+err.Error(), http.StatusBadGateway)
		return
	}

	conn.Status = models.ConnectionStatusConnected
	if _, err := h.repo.Update(r.Context(), conn); err != nil {
		h.logger.Warn().Err(err).Str("connection_id", conn.ID).Msg("failed to update connection status after token exchange")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":        "connected",
		"connection_id": conn.ID,
	})
}

func (h *OAuthHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*models.Connection, bool) {
	tid, ok := authz.TenantIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing tenant context", http.StatusUnauthorized)
		return nil, false
	}
	id := mux.Vars(r)["id"]
	conn, err := h.repo.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to get connection: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if conn == nil || conn.TenantID != tid {
		http.Error(w, "Connection not found", http.StatusNotFound)
		return nil, false
	}
	return conn, true
}
