package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brandpulse-ai/brandpulse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockPipelineRunner struct {
	mock.Mock
}

func (m *MockPipelineRunner) Start(ctx context.Context, campaign *domain.Campaign) (*domain.PipelineRun, error) {
	args := m.Called(ctx, campaign)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PipelineRun), args.Error(1)
}

type MockRunReader struct {
	mock.Mock
}

func (m *MockRunReader) GetRun(ctx context.Context, runID string) (*domain.PipelineRun, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PipelineRun), args.Error(1)
}

func (m *MockRunReader) ActiveRunForCampaign(ctx context.Context, campaignID string) (*domain.PipelineRun, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PipelineRun), args.Error(1)
}

func (m *MockRunReader) ListByCampaign(ctx context.Context, campaignID string) ([]*domain.PipelineRun, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PipelineRun), args.Error(1)
}

func newTestRun(state domain.RunState) *domain.PipelineRun {
	return &domain.PipelineRun{
		ID:         "run-123",
		CampaignID: "camp-123",
		State:      state,
		StartedAt:  time.Now().UTC(),
	}
}

func TestPipelineHandler_Trigger(t *testing.T) {
	campaign := newTestCampaign()
	run := newTestRun(domain.RunStatePending)

	campaigns := new(MockCampaignRepository)
	campaigns.On("GetByID", mock.Anything, "camp-123").Return(campaign, nil)

	runs := new(MockRunReader)
	runs.On("ActiveRunForCampaign", mock.Anything, "camp-123").Return(nil, domain.ErrRunNotFound)

	runner := new(MockPipelineRunner)
	runner.On("Start", mock.Anything, campaign).Return(run, nil)

	handler := NewPipelineHandler(campaigns, runner, runs)

	body, _ := json.Marshal(TriggerRunRequest{CampaignID: "camp-123"})
	req := httptest.NewRequest(http.MethodPost, "/pipeline/run", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Trigger(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "run-123")
	runner.AssertExpectations(t)
}

func TestPipelineHandler_Trigger_ActiveRunConflict(t *testing.T) {
	campaign := newTestCampaign()

	campaigns := new(MockCampaignRepository)
	campaigns.On("GetByID", mock.Anything, "camp-123").Return(campaign, nil)

	runs := new(MockRunReader)
	runs.On("ActiveRunForCampaign", mock.Anything, "camp-123").Return(newTestRun(domain.RunStateScouting), nil)

	runner := new(MockPipelineRunner)

	handler := NewPipelineHandler(campaigns, runner, runs)

	body, _ := json.Marshal(TriggerRunRequest{CampaignID: "camp-123"})
	req := httptest.NewRequest(http.MethodPost, "/pipeline/run", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Trigger(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "active pipeline run")
	runner.AssertNotCalled(t, "Start")
}

func TestPipelineHandler_Trigger_CampaignNotFound(t *testing.T) {
	campaigns := new(MockCampaignRepository)
	campaigns.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrCampaignNotFound)

	handler := NewPipelineHandler(campaigns, new(MockPipelineRunner), new(MockRunReader))

	body, _ := json.Marshal(TriggerRunRequest{CampaignID: "missing"})
	req := httptest.NewRequest(http.MethodPost, "/pipeline/run", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Trigger(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPipelineHandler_Trigger_MissingCampaignID(t *testing.T) {
	handler := NewPipelineHandler(new(MockCampaignRepository), new(MockPipelineRunner), new(MockRunReader))

	body, _ := json.Marshal(TriggerRunRequest{})
	req := httptest.NewRequest(http.MethodPost, "/pipeline/run", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Trigger(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "campaign_id is required")
}

func TestPipelineHandler_GetRun_IncludesAttempts(t *testing.T) {
	finished := time.Now().UTC()
	run := newTestRun(domain.RunStateDone)
	run.CompletedAt = &finished
	run.Attempts = []domain.StageAttempt{
		{ID: "att-1", RunID: run.ID, Stage: domain.StageScout, Attempt: 1, Status: domain.AttemptStatusSucceeded, StartedAt: run.StartedAt, FinishedAt: &finished},
		{ID: "att-2", RunID: run.ID, Stage: domain.StageCleaner, Attempt: 1, Status: domain.AttemptStatusFailed, Error: "storage outage", StartedAt: run.StartedAt, FinishedAt: &finished},
		{ID: "att-3", RunID: run.ID, Stage: domain.StageCleaner, Attempt: 2, Status: domain.AttemptStatusSucceeded, StartedAt: run.StartedAt, FinishedAt: &finished},
	}

	runs := new(MockRunReader)
	runs.On("GetRun", mock.Anything, "run-123").Return(run, nil)

	handler := NewPipelineHandler(new(MockCampaignRepository), new(MockPipelineRunner), runs)

	req := routeWithParam(httptest.NewRequest(http.MethodGet, "/pipeline/runs/run-123", nil), "id", "run-123")
	w := httptest.NewRecorder()

	handler.GetRun(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"done"`)
	assert.Contains(t, w.Body.String(), "storage outage")
	assert.Contains(t, w.Body.String(), `"attempt":2`)
}

func TestPipelineHandler_GetRun_NotFound(t *testing.T) {
	runs := new(MockRunReader)
	runs.On("GetRun", mock.Anything, "missing").Return(nil, domain.ErrRunNotFound)

	handler := NewPipelineHandler(new(MockCampaignRepository), new(MockPipelineRunner), runs)

	req := routeWithParam(httptest.NewRequest(http.MethodGet, "/pipeline/runs/missing", nil), "id", "missing")
	w := httptest.NewRecorder()

	handler.GetRun(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPipelineHandler_ListRuns(t *testing.T) {
	runs := new(MockRunReader)
	runs.On("ListByCampaign", mock.Anything, "camp-123").Return([]*domain.PipelineRun{
		newTestRun(domain.RunStateDone),
		newTestRun(domain.RunStateFailed),
	}, nil)

	handler := NewPipelineHandler(new(MockCampaignRepository), new(MockPipelineRunner), runs)

	req := httptest.NewRequest(http.MethodGet, "/pipeline/runs?campaign_id=camp-123", nil)
	w := httptest.NewRecorder()

	handler.ListRuns(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"done"`)
	assert.Contains(t, w.Body.String(), `"state":"failed"`)
}

func TestPipelineHandler_ListRuns_MissingCampaignID(t *testing.T) {
	handler := NewPipelineHandler(new(MockCampaignRepository), new(MockPipelineRunner), new(MockRunReader))

	req := httptest.NewRequest(http.MethodGet, "/pipeline/runs", nil)
	w := httptest.NewRecorder()

	handler.ListRuns(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
