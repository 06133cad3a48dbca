package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	http "github.com/bogdanfinn/fhttp"

	"github.com/diogo/gptchat/internal/api"
	"github.com/diogo/gptchat/internal/models"
)

// stubDoer answers every request with one canned response or error
type stubDoer struct {
	status int
	body   string
	err    error
	calls  int
}

func (d *stubDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return &http.Response{
		StatusCode: d.status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(d.body)),
		Request:    req,
	}, nil
}

func newClientController(t *testing.T, doer *stubDoer) *Controller {
	t.Helper()
	client, err := api.NewClient("sk-valid123", api.WithHTTPClient(doer))
	if err != nil {
		t.Fatalf("NewClient() returned error: %v", err)
	}
	return NewController(client, nil)
}

func TestSend_ThroughCompletionClient(t *testing.T) {
	tests := []struct {
		name      string
		doer      *stubDoer
		wantReply string
	}{
		{
			name:      "success",
			doer:      &stubDoer{status: 200, body: `{"choices":[{"message":{"role":"assistant","content":"Hi there!"}}]}`},
			wantReply: "Hi there!",
		},
		{
			name:      "500 with html body",
			doer:      &stubDoer{status: 500, body: "<html><body>Internal Server Error</body></html>"},
			wantReply: models.FallbackReply,
		},
		{
			name:      "401 invalid key",
			doer:      &stubDoer{status: 401, body: `{"error":{"message":"invalid key"}}`},
			wantReply: models.FallbackReply,
		},
		{
			name:      "transport error",
			doer:      &stubDoer{err: errors.New("dial tcp: connection refused")},
			wantReply: models.FallbackReply,
		},
		{
			name:      "message not an object",
			doer:      &stubDoer{status: 200, body: `{"choices":[{"message":"Hi there!"}]}`},
			wantReply: models.FallbackReply,
		},
		{
			name:      "no choices",
			doer:      &stubDoer{status: 200, body: `{"choices":[]}`},
			wantReply: models.FallbackReply,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClientController(t, tt.doer)

			c.UpdateInput("Hello")
			exchange, ok := c.Submit()
			if !ok {
				t.Fatal("Submit() should accept the submission")
			}

			c.UpdateInput("again")
			if _, ok := c.Submit(); ok {
				t.Error("Submit() while the exchange is in flight should be a no-op")
			}

			c.Resolve(exchange(context.Background()))

			if tt.doer.calls != 1 {
				t.Errorf("transport calls = %d, want 1", tt.doer.calls)
			}
			msgs := c.Messages()
			if len(msgs) != 2 {
				t.Fatalf("Expected 2 messages, got %d", len(msgs))
			}
			if msgs[0] != models.NewUserMessage("Hello") {
				t.Errorf("msgs[0] = %+v", msgs[0])
			}
			if msgs[1] != models.NewAssistantMessage(tt.wantReply) {
				t.Errorf("msgs[1] = %+v, want %q", msgs[1], tt.wantReply)
			}
			if c.Busy() {
				t.Error("Busy() should be false after Resolve")
			}
		})
	}
}
