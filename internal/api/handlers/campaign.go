package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/brandpulse-ai/brandpulse/internal/api"
	"github.com/brandpulse-ai/brandpulse/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CampaignRepository interface {
	Create(ctx context.Context, campaign *domain.Campaign) error
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)
	List(ctx context.Context) ([]*domain.Campaign, error)
	Update(ctx context.Context, campaign *domain.Campaign) error
	Delete(ctx context.Context, id string) error
}

type CampaignHandler struct {
	repo CampaignRepository
}

func NewCampaignHandler(repo CampaignRepository) *CampaignHandler {
	return &CampaignHandler{repo: repo}
}

type CreateCampaignRequest struct {
	Brand     string   `json:"brand"`
	Keywords  []string `json:"keywords"`
	Platforms []string `json:"platforms"`
}

type UpdateCampaignRequest struct {
	Brand     string   `json:"brand"`
	Keywords  []string `json:"keywords"`
	Platforms []string `json:"platforms"`
}

func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid request body")
		return
	}

	now := time.Now().UTC()
	campaign := domain.NewCampaign(uuid.NewString(), req.Brand, req.Keywords, req.Platforms, now, now)

	if err := domain.ValidateCampaign(campaign); err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, err.Error())
		return
	}

	if err := h.repo.Create(r.Context(), campaign); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, campaign)
}

func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")

	campaign, err := h.repo.GetByID(r.Context(), campaignID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, campaign)
}

func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.repo.List(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if campaigns == nil {
		campaigns = []*domain.Campaign{}
	}

	api.Success(w, http.StatusOK, campaigns)
}

func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")

	var req UpdateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid request body")
		return
	}

	campaign, err := h.repo.GetByID(r.Context(), campaignID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if req.Brand != "" {
		campaign.Brand = req.Brand
	}
	if req.Keywords != nil {
		campaign.Keywords = req.Keywords
	}
	if req.Platforms != nil {
		campaign.Platforms = req.Platforms
	}

	if err := domain.ValidateCampaign(campaign); err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, err.Error())
		return
	}

	if err := h.repo.Update(r.Context(), campaign); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, campaign)
}

func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")

	if err := h.repo.Delete(r.Context(), campaignID); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}
