package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from ada-002
	DefaultEmbeddingDimensions = 1536
	// DefaultCompletionModel is the chat model used for generation and safety labeling
	DefaultCompletionModel = openai.GPT4oMini
	// DefaultCallTimeout bounds every call to the external service
	DefaultCallTimeout = 30 * time.Second
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when embedding has wrong dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")

	// ErrTimeout is returned when a call to the service exceeds its deadline
	ErrTimeout = errors.New("generation service timed out")
	// ErrRateLimited is returned when the service rejects the call for rate limiting
	ErrRateLimited = errors.New("generation service rate limited")
	// ErrInvalidResponse is returned when the service returns an unusable payload
	ErrInvalidResponse = errors.New("generation service returned an invalid response")
)

// Transient reports whether an error is worth retrying with backoff.
func Transient(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited)
}

// CompletionAPI defines the interface for text completion
type CompletionAPI interface {
	CreateCompletion(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// Client wraps the OpenAI API with typed errors and bounded call timeouts.
type Client struct {
	completions CompletionAPI
	embeddings  EmbeddingAPI
	dimensions  int
	timeout     time.Duration
}

// OpenAIAdapter adapts the go-openai client to the CompletionAPI and
// EmbeddingAPI interfaces.
type OpenAIAdapter struct {
	client          *openai.Client
	embeddingModel  openai.EmbeddingModel
	completionModel string
}

func NewOpenAIAdapter(apiKey string, embeddingModel openai.EmbeddingModel, completionModel string) *OpenAIAdapter {
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	if completionModel == "" {
		completionModel = DefaultCompletionModel
	}
	return &OpenAIAdapter{
		client:          openai.NewClient(apiKey),
		embeddingModel:  embeddingModel,
		completionModel: completionModel,
	}
}

// CreateEmbeddings calls the OpenAI API to create embeddings
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.embeddingModel,
	})
	if err != nil {
		return nil, mapAPIError(err)
	}

	if len(resp.Data) == 0 {
		return nil, ErrInvalidResponse
	}

	return resp.Data[0].Embedding, nil
}

// CreateCompletion calls the OpenAI chat API with a single user message
func (a *OpenAIAdapter) CreateCompletion(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     a.completionModel,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", mapAPIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrInvalidResponse
	}

	return resp.Choices[0].Message.Content, nil
}

// mapAPIError converts provider failures into the typed error taxonomy.
func mapAPIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 429:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		case apiErr.HTTPStatusCode >= 500:
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
	}

	return err
}

// Config holds explicit client configuration.
type Config struct {
	APIKey              string
	EmbeddingModel      openai.EmbeddingModel
	CompletionModel     string
	EmbeddingDimensions int
	CallTimeout         time.Duration
}

// NewClient creates a new client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	adapter := NewOpenAIAdapter(cfg.APIKey, cfg.EmbeddingModel, cfg.CompletionModel)
	return &Client{
		completions: adapter,
		embeddings:  adapter,
		dimensions:  dimensions,
		timeout:     timeout,
	}
}

// NewClientFromEnv creates a new client using the OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	embedding, err := c.embeddings.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(embedding) != c.dimensions {
		return nil, ErrWrongDimensions
	}

	return embedding, nil
}

// Complete generates a completion for the given prompt
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if prompt == "" {
		return "", ErrEmptyText
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.completions.CreateCompletion(ctx, prompt, maxTokens)
	if err != nil {
		return "", fmt.Errorf("failed to create completion: %w", err)
	}

	return text, nil
}
