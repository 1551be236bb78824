package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	tc "go.temporal.io/sdk/client"

	"github.com/workfin/practice-api/internal/authz"
	"github.com/workfin/practice-api/internal/models"
	"github.com/workfin/practice-api/internal/repository"
	"github.com/workfin/practice-api/internal/temporal"
	"github.com/workfin/practice-api/internal/temporal/workflows"
)

// SyncHandler turns HTTP sync triggers into Temporal workflow starts. The
// request returns 202 immediately; progress lands in sync_history.
type SyncHandler struct {
	connRepo       repository.ConnectionRepository
	historyRepo    repository.HistoryRepository
	catalogRepo    repository.CatalogRepository
	temporalClient tc.Client
	logger         zerolog.Logger
}

func NewSyncHandler(
	connRepo repository.ConnectionRepository,
	historyRepo repository.HistoryRepository,
	catalogRepo repository.CatalogRepository,
	temporalClient tc.Client,
	logger zerolog.Logger,
) *SyncHandler {
	return &SyncHandler{
		connRepo:       connRepo,
		historyRepo:    historyRepo,
		catalogRepo:    catalogRepo,
		temporalClient: temporalClient,
		logger:         logger.With().Str("handler", "sync").Logger(),
	}
}

type triggerResponse struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
	Status     string `json:"status"`
}

// TriggerSync starts a sync workflow for one connection. With an {entity}
// path segment only that entity runs; without one every enabled entity does.
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	scope := models.SyncScopeAll
	entity := mux.Vars(r)["entity"]
	if entity != "" {
		if !models.IsValidEntityType(entity) {
			http.Error(w, "Unknown entity type: "+entity, http.StatusBadRequest)
			return
		}
		scope = entity
	}

	params := temporal.SyncParams{
		ConnectionID: conn.ID,
		EntityType:   entity,
		TriggeredBy:  "manual",
	}
	opts := tc.StartWorkflowOptions{
		ID:        temporal.SyncWorkflowIDPrefix + conn.ID + "-" + scope + "-" + uuid.NewString(),
		TaskQueue: temporal.TaskQueueName,
	}
	run, err := h.temporalClient.ExecuteWorkflow(r.Context(), opts, workflows.SyncWorkflow, params)
	if err != nil {
		h.logger.Error().Err(err).Str("connection_id", conn.ID).Str("scope", scope).Msg("failed to start sync workflow")
		http.Error(w, "Failed to start sync: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.logger.Info().
		Str("connection_id", conn.ID).
		Str("scope", scope).
		Str("workflow_id", run.GetID()).
		Msg("sync workflow started")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(triggerResponse{
		WorkflowID: run.GetID(),
		RunID:      run.GetRunID(),
		Status:     "queued",
	})
}

func (h *SyncHandler) History(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil {
			limit = v
		}
	}

	history, err := h.historyRepo.ListByConnection(r.Context(), conn.ID, limit)
	if err != nil {
		http.Error(w, "Failed to list sync history: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []*models.SyncHistory{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(history)
}

// TriggerCatalogSync refreshes the lake integration catalog in the background.
func (h *SyncHandler) TriggerCatalogSync(w http.ResponseWriter, r *http.Request) {
	opts := tc.StartWorkflowOptions{
		ID:        temporal.SyncWorkflowIDPrefix + "catalog-" + uuid.NewString(),
		TaskQueue: temporal.TaskQueueName,
	}
	run, err := h.temporalClient.ExecuteWorkflow(r.Context(), opts, workflows.CatalogWorkflow)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to start catalog workflow")
		http.Error(w, "Failed to start catalog sync: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(triggerResponse{
		WorkflowID: run.GetID(),
		RunID:      run.GetRunID(),
		Status:     "queued",
	})
}

func (h *SyncHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	integrations, err := h.catalogRepo.List(r.Context())
	if err != nil {
		http.Error(w, "Failed to list integrations: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if integrations == nil {
		integrations = []*models.LakeIntegration{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(integrations)
}

func (h *SyncHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*models.Connection, bool) {
	tid, ok := authz.TenantIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing tenant context", http.StatusUnauthorized)
		return nil, false
	}
	id := mux.Vars(r)["id"]
	conn, err := h.connRepo.Get(r.Context(), id)
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
