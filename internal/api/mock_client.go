package api

import (
	"context"
	"sync"

	"github.com/diogo/gptchat/internal/models"
)

// MockCompletionClient is a mock implementation of CompletionClientInterface for testing
type MockCompletionClient struct {
	// Mock return values
	Reply models.Message
	Err   error
	// CompleteFunc, when set, takes precedence over Reply and Err
	CompleteFunc func(ctx context.Context, history []models.Message) (models.Message, error)

	// Call counters/recorders
	mu          sync.Mutex
	calls       int
	lastHistory []models.Message
}

// Ensure MockCompletionClient implements CompletionClientInterface
var _ CompletionClientInterface = (*MockCompletionClient)(nil)

// NewMockCompletionClient returns a mock that always answers with content
func NewMockCompletionClient(content string) *MockCompletionClient {
	return &MockCompletionClient{Reply: models.NewAssistantMessage(content)}
}

// NewFailingCompletionClient returns a mock that always fails with err
func NewFailingCompletionClient(err error) *MockCompletionClient {
	return &MockCompletionClient{Err: err}
}

func (m *MockCompletionClient) Complete(ctx context.Context, history []models.Message) (models.Message, error) {
	m.mu.Lock()
	m.calls++
	m.lastHistory = append([]models.Message(nil), history...)
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, history)
	}
	return m.Reply, m.Err
}

// Calls returns how many times Complete was invoked
func (m *MockCompletionClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastHistory returns the history passed to the most recent call
func (m *MockCompletionClient) LastHistory() []models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Message(nil), m.lastHistory...)
}
