//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/brandpulse-ai/brandpulse/internal/api/handlers"
	"github.com/brandpulse-ai/brandpulse/internal/guardrail"
	"github.com/brandpulse-ai/brandpulse/internal/jobs"
	"github.com/brandpulse-ai/brandpulse/internal/pipeline"
	"github.com/brandpulse-ai/brandpulse/internal/repository"
	"github.com/brandpulse-ai/brandpulse/internal/server"
	"github.com/brandpulse-ai/brandpulse/internal/service"
	"github.com/brandpulse-ai/brandpulse/internal/storage"
	"github.com/brandpulse-ai/brandpulse/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

const e2eAPIKey = "bp_e2e_0123456789abcdef0123456789abcdef"

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	S3Client     *storage.S3Client
	Worker       *jobs.Worker
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with containers and a
// server wired the way serve does, with the collector and generation
// service stubbed out.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "brandpulse-raw-test",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}

	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, worker, serverCloser := startServer(t, pool, s3Client, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		S3Client:     s3Client,
		Worker:       worker,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error json.RawMessage `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path, authToken string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil, authToken)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}, authToken string) (*APIResponse, error) {
	return e.doRequest("POST", path, body, authToken)
}

// Delete performs a DELETE request
func (e *E2ETestEnv) Delete(path, authToken string) (*APIResponse, error) {
	return e.doRequest("DELETE", path, nil, authToken)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}, authToken string) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNoContent {
		return &APIResponse{}, nil
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(apiResp.Error))
	}

	return &apiResp, nil
}

// WaitForRunState polls the run endpoint until the run reaches a terminal
// state or the timeout expires.
func (e *E2ETestEnv) WaitForRunState(runID, want string, timeout time.Duration) (json.RawMessage, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := e.Get("/pipeline/runs/"+runID, e2eAPIKey)
		if err != nil {
			return nil, err
		}

		var run struct {
			State string `json:"state"`
		}
		if err := json.Unmarshal(resp.Data, &run); err != nil {
			return nil, err
		}
		if run.State == want {
			return resp.Data, nil
		}
		if run.State == "failed" && want != "failed" {
			return resp.Data, fmt.Errorf("run %s failed while waiting for %s", runID, want)
		}

		time.Sleep(200 * time.Millisecond)
	}
	return nil, fmt.Errorf("run %s did not reach state %s within %v", runID, want, timeout)
}

// startServer starts the HTTP server with the pipeline and chat wired to
// in-process stubs instead of external services.
func startServer(t *testing.T, pool *pgxpool.Pool, s3Client *storage.S3Client, port int) (string, *jobs.Worker, func()) {
	campaignRepo := repository.NewCampaignRepository(pool)
	contentRepo := repository.NewContentRepository(pool)
	runRepo := repository.NewRunRepository(pool)
	insightRepo := repository.NewInsightRepository(pool)
	embeddingJobRepo := repository.NewEmbeddingJobRepository(pool)
	retrievalRepo := repository.NewRetrievalRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	model := &stubModel{}

	heuristics := guardrail.NewHeuristics()
	guard := guardrail.NewPipeline(heuristics, nil, guardrail.NewBoundary())

	scout := pipeline.NewScout(&stubCollector{}, s3Client)
	cleaner := pipeline.NewCleaner(heuristics)
	analyst := pipeline.NewAnalyst(model)
	runner := pipeline.NewOrchestrator(runRepo, contentRepo, insightRepo, embeddingJobRepo, scout, cleaner, analyst)

	retriever := service.NewRetrieverService(retrievalRepo, model)
	intent := service.NewIntentService(model)
	chatSvc := service.NewChatService(guard, intent, retriever, model, conversationRepo, auditRepo)

	embeddingSvc := service.NewInsightEmbeddingService(model, insightRepo, txRunner)
	worker := jobs.NewWorker("embedding", jobs.NewEmbeddingWorker(embeddingJobRepo, embeddingSvc), 100*time.Millisecond)
	go worker.Start(context.Background())

	cfg := server.RouterConfig{
		APIKeys:         []string{e2eAPIKey},
		CampaignHandler: handlers.NewCampaignHandler(campaignRepo),
		PipelineHandler: handlers.NewPipelineHandler(campaignRepo, runner, runRepo),
		ChatHandler:     handlers.NewChatHandler(chatSvc),
	}

	router := server.NewRouter(cfg)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, worker, func() {
		worker.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// stubCollector returns a fixed batch of content, including one duplicate
// the Scout must drop.
type stubCollector struct{}

func (c *stubCollector) Fetch(ctx context.Context, query, platform string) ([]pipeline.RawItem, error) {
	now := time.Now().UTC()
	return []pipeline.RawItem{
		{Platform: platform, ExternalID: "t3_bat1", Text: "The battery on my acme phone drains overnight, really disappointed.", PostedAt: now},
		{Platform: platform, ExternalID: "t3_bat1", Text: "The battery on my acme phone drains overnight, really disappointed.", PostedAt: now},
		{Platform: platform, ExternalID: "t3_cam1", Text: "Camera quality is honestly great for the price, love it.", PostedAt: now},
	}, nil
}

// stubModel stands in for the generation and embedding service. Responses
// are keyed off the prompt so each caller gets a plausible answer.
type stubModel struct{}

func (m *stubModel) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	switch {
	case strings.Contains(prompt, "respond with ONLY a JSON object"):
		if strings.Contains(prompt, "battery") {
			return `{"sentiment": "negative", "pain_points": ["battery life"], "summary": "Users report the battery draining overnight.", "confidence": 0.9}`, nil
		}
		return `{"sentiment": "positive", "pain_points": [], "summary": "Users praise the camera quality for the price.", "confidence": 0.85}`, nil
	case strings.Contains(prompt, "Classify the user message"):
		return "semantic", nil
	case strings.Contains(prompt, "Rewrite the user question"):
		return "battery complaints", nil
	default:
		return "Customers most often complain about battery life; camera quality is praised.", nil
	}
}

func (m *stubModel) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	// All texts map to the same unit vector, so retrieval always matches.
	vec := make([]float32, 1536)
	vec[0] = 1
	return vec, nil
}
