package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/workfin/practice-api/internal/authz"
	"github.com/workfin/practice-api/internal/models"
	"github.com/workfin/practice-api/internal/repository"
	"github.com/workfin/practice-api/internal/syncer"
)

type ConnectionHandler struct {
	repo         repository.ConnectionRepository
	orchestrator *syncer.Orchestrator
	logger       zerolog.Logger
}

func NewConnectionHandler(repo repository.ConnectionRepository, orchestrator *syncer.Orchestrator, logger zerolog.Logger) *ConnectionHandler {
	return &ConnectionHandler{
		repo:         repo,
		orchestrator: orchestrator,
		logger:       logger.With().Str("handler", "connection").Logger(),
	}
}

func (h *ConnectionHandler) List(w http.ResponseWriter, r *http.Request) {
	tid, ok := authz.TenantIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing tenant context", http.StatusUnauthorized)
		return
	}
	connections, err := h.repo.List(r.Context(), tid)
	if err != nil {
		http.Error(w, "Failed to list connections: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if connections == nil {
		connections = []*models.Connection{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(connections); err != nil {
		http.Error(w, "Failed to encode response: "+err.Error(), http.StatusInternalServerError)
	}
}

func (h *ConnectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(conn); err != nil {
		http.Error(w, "Failed to encode response: "+err.Error(), http.StatusInternalServerError)
	}
}

func (h *ConnectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	tid, ok := authz.TenantIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing tenant context", http.StatusUnauthorized)
		return
	}
	var conn models.Connection
	if err := json.NewDecoder(r.Body).Decode(&conn); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	conn.TenantID = tid

	if msg := validateConnection(&conn); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if conn.Status == "" {
		conn.Status = models.ConnectionStatusPending
	}

	created, err := h.repo.Create(r.Context(), &conn)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateIntegrationID) {
			http.Error(w, "Integration is already registered", http.StatusConflict)
			return
		}
		h.logger.Error().Err(err).Msg("failed to create connection")
		http.Error(w, "Failed to create connection: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		http.Error(w, "Failed to encode response: "+err.Error(), http.StatusInternalServerError)
	}
}

func (h *ConnectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	var conn models.Connection
	if err := json.NewDecoder(r.Body).Decode(&conn); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	conn.ID = existing.ID
	conn.TenantID = existing.TenantID

	if msg := validateConnection(&conn); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if conn.Status == "" {
		conn.Status = existing.Status
	}

	updated, err := h.repo.Update(r.Context(), &conn)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateIntegrationID) {
			http.Error(w, "Integration is already registered", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to update connection: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(updated); err != nil {
		http.Error(w, "Failed to encode response: "+err.Error(), http.StatusInternalServerError)
	}
}

// Delete removes the connection immediately. The integration id frees up for
// re-registration; synced entity data is left in place.
func (h *ConnectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	if err := h.repo.Delete(r.Context(), conn.ID); err != nil {
		http.Error(w, "Failed to delete connection: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ConnectionHandler) Test(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	result, err := h.orchestrator.Test(r.Context(), conn.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("connection_id", conn.ID).Msg("connection test errored")
		http.Error(w, "Failed to test connection: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if result.Status != "success" {
		w.WriteHeader(http.StatusBadRequest)
	}
	json.NewEncoder(w).Encode(result)
}

// loadOwned fetches the connection in the path and verifies it belongs to the
// requesting tenant. A connection of another tenant is reported as not found.
func (h *ConnectionHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*models.Connection, bool) {
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

func validateConnection(conn *models.Connection) string {
	switch conn.IntegrationType {
	case models.IntegrationXero, models.IntegrationSOE, models.IntegrationSFD:
	default:
		return "Unknown integration_type"
	}
	switch conn.DataSource {
	case models.DataSourceGoldLayer, models.DataSourceDirectAPI:
	default:
		return "Unknown data_source"
	}
	if conn.IntegrationID == "" {
		return "integration_id is required"
	}
	if conn.IntegrationName == "" {
		return "integration_name is required"
	}
	return ""
}
