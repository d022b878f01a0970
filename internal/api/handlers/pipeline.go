package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/brandpulse-ai/brandpulse/internal/api"
	"github.com/brandpulse-ai/brandpulse/internal/domain"
	"github.com/go-chi/chi/v5"
)

// PipelineRunner starts a pipeline run for a campaign. Execution happens
// in the background; the returned run is the initial snapshot.
type PipelineRunner interface {
	Start(ctx context.Context, campaign *domain.Campaign) (*domain.PipelineRun, error)
}

type RunReader interface {
	GetRun(ctx context.Context, runID string) (*domain.PipelineRun, error)
	ActiveRunForCampaign(ctx context.Context, campaignID string) (*domain.PipelineRun, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]*domain.PipelineRun, error)
}

type PipelineHandler struct {
	campaigns CampaignRepository
	runner    PipelineRunner
	runs      RunReader
}

func NewPipelineHandler(campaigns CampaignRepository, runner PipelineRunner, runs RunReader) *PipelineHandler {
	return &PipelineHandler{campaigns: campaigns, runner: runner, runs: runs}
}

type TriggerRunRequest struct {
	CampaignID string `json:"campaign_id"`
}

type RunResponse struct {
	ID          string            `json:"id"`
	CampaignID  string            `json:"campaign_id"`
	State       domain.RunState   `json:"state"`
	FailReason  string            `json:"fail_reason,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Attempts    []AttemptResponse `json:"attempts,omitempty"`
}

type AttemptResponse struct {
	Stage      domain.Stage         `json:"stage"`
	Attempt    int                  `json:"attempt"`
	Status     domain.AttemptStatus `json:"status"`
	Error      string               `json:"error,omitempty"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt *time.Time           `json:"finished_at,omitempty"`
}

func runResponse(run *domain.PipelineRun) RunResponse {
	resp := RunResponse{
		ID:          run.ID,
		CampaignID:  run.CampaignID,
		State:       run.State,
		FailReason:  run.FailReason,
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
	}
	for _, a := range run.Attempts {
		resp.Attempts = append(resp.Attempts, AttemptResponse{
			Stage:      a.Stage,
			Attempt:    a.Attempt,
			Status:     a.Status,
			Error:      a.Error,
			StartedAt:  a.StartedAt,
			FinishedAt: a.FinishedAt,
		})
	}
	return resp
}

// Trigger starts a pipeline run for a campaign. At most one run per
// campaign may be active at a time.
func (h *PipelineHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req TriggerRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid request body")
		return
	}
	if req.CampaignID == "" {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "campaign_id is required")
		return
	}

	campaign, err := h.campaigns.GetByID(r.Context(), req.CampaignID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	active, err := h.runs.ActiveRunForCampaign(r.Context(), campaign.ID)
	if err != nil && !errors.Is(err, domain.ErrRunNotFound) {
		api.HandleError(w, err)
		return
	}
	if active != nil {
		api.HandleError(w, domain.ErrRunAlreadyActive)
		return
	}

	run, err := h.runner.Start(r.Context(), campaign)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, runResponse(run))
}

// GetRun returns a run with its full attempt ledger.
func (h *PipelineHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")

	run, err := h.runs.GetRun(r.Context(), runID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, runResponse(run))
}

// ListRuns returns all runs for a campaign, newest first.
func (h *PipelineHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	campaignID := r.URL.Query().Get("campaign_id")
	if campaignID == "" {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "campaign_id is required")
		return
	}

	runs, err := h.runs.ListByCampaign(r.Context(), campaignID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, runResponse(run))
	}

	api.Success(w, http.StatusOK, resp)
}
