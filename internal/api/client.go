package api

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	"github.com/diogo/gptchat/internal/config"
	"github.com/diogo/gptchat/internal/logging"
	"github.com/diogo/gptchat/internal/models"
)

// HTTPDoer is the subset of tls_client.HttpClient the client needs
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// CompletionClientInterface is what the chat controller needs from a completion backend
type CompletionClientInterface interface {
	Complete(ctx context.Context, history []models.Message) (models.Message, error)
}

// CompletionClient performs request/response exchanges with the chat completions endpoint
type CompletionClient struct {
	httpClient  HTTPDoer
	credential  string
	endpoint    string
	model       string
	temperature float32
	logger      *slog.Logger
	mu          sync.RWMutex
	closed      bool
}

// Ensure CompletionClient implements CompletionClientInterface
var _ CompletionClientInterface = (*CompletionClient)(nil)

// ClientOption is a function that configures the client
type ClientOption func(*CompletionClient)

// WithHTTPClient replaces the TLS transport, mainly for tests
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *CompletionClient) {
		c.httpClient = doer
	}
}

// WithEndpoint overrides the completion endpoint URL
func WithEndpoint(endpoint string) ClientOption {
	return func(c *CompletionClient) {
		c.endpoint = endpoint
	}
}

// WithModel overrides the model identifier
func WithModel(model string) ClientOption {
	return func(c *CompletionClient) {
		c.model = model
	}
}

// WithTemperature overrides the sampling temperature
func WithTemperature(temperature float32) ClientOption {
	return func(c *CompletionClient) {
		c.temperature = temperature
	}
}

// WithLogger sets the diagnostics logger
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *CompletionClient) {
		c.logger = logger
	}
}

// NewClient creates a new CompletionClient.
// The credential is validated before any transport is built, so an
// invalid credential never reaches the network.
func NewClient(credential string, opts ...ClientOption) (*CompletionClient, error) {
	if err := config.ValidateCredential(credential); err != nil {
		return nil, err
	}

	client := &CompletionClient{
		credential:  credential,
		endpoint:    models.EndpointChatCompletions,
		model:       models.DefaultModel,
		temperature: models.DefaultTemperature,
		logger:      logging.Discard(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		httpClient, err := newTLSClient()
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// newTLSClient builds the default transport. A zero timeout leaves the
// exchange unbounded.
func newTLSClient() (tls_client.HttpClient, error) {
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(0),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithNotFollowRedirects(),
	}

	return tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
}

// Close releases idle connections held by the transport
func (c *CompletionClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	if idle, ok := c.httpClient.(interface{ CloseIdleConnections() }); ok {
		idle.CloseIdleConnections()
	}
}

// IsClosed returns whether the client is closed
func (c *CompletionClient) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// GetModel returns the model identifier sent with each request
func (c *CompletionClient) GetModel() string {
	return c.model
}

// GetEndpoint returns the completion endpoint URL
func (c *CompletionClient) GetEndpoint() string {
	return c.endpoint
}
