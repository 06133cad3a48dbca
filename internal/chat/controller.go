// Package chat owns the conversation state and the submission cycle.
//
// A Controller holds the messages, the pending input and the busy flag for
// one session. Presentation layers read its state and subscribe to its events;
// only the controller mutates the conversation.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/diogo/gptchat/internal/api"
	apierrors "github.com/diogo/gptchat/internal/errors"
	"github.com/diogo/gptchat/internal/logging"
	"github.com/diogo/gptchat/internal/models"
)

// maxLoggedBody bounds the error body copied into a log record
const maxLoggedBody = 1024

// State is the session gate and exchange state
type State int

const (
	// StateIdle accepts a submission
	StateIdle State = iota
	// StateAwaiting has one exchange in flight
	StateAwaiting
	// StateConfigError is terminal for the session
	StateConfigError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaiting:
		return "awaiting"
	case StateConfigError:
		return "config_error"
	default:
		return "unknown"
	}
}

// EventKind identifies what changed
type EventKind int

const (
	EventMessageAppended EventKind = iota
	EventBusyChanged
)

// Event is delivered to subscribers after every state change
type Event struct {
	Kind    EventKind
	Message models.Message // Set for EventMessageAppended
	Count   int            // Conversation length after the change
	Busy    bool
}

// Outcome is the result of one exchange
type Outcome struct {
	Reply models.Message
	Err   error
}

// Exchange performs the completion call for a submission. It does not touch
// controller state; hand its Outcome to Resolve.
type Exchange func(ctx context.Context) Outcome

// Controller is the conversation store and input controller for one session
type Controller struct {
	mu           sync.Mutex
	client       api.CompletionClientInterface
	conversation *models.Conversation
	pending      string
	busy         bool
	configErr    error
	logger       *slog.Logger
	sessionID    string
	observers    []func(Event)
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the diagnostics logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithSessionID tags the controller with a session identifier
func WithSessionID(id string) Option {
	return func(c *Controller) {
		c.sessionID = id
	}
}

// NewController creates a controller. A non-nil configErr puts the session
// in StateConfigError for its whole lifetime.
func NewController(client api.CompletionClientInterface, configErr error, opts ...Option) *Controller {
	c := &Controller{
		client:       client,
		conversation: models.NewConversation(),
		configErr:    configErr,
		logger:       logging.Discard(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.configErr == nil && c.client == nil {
		c.configErr = apierrors.NewConfigError(apierrors.ReasonMissing, "no completion client configured")
	}

	return c
}

// Subscribe registers fn to be called after every state change.
// fn runs on the goroutine that made the change.
func (c *Controller) Subscribe(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// notify must be called without c.mu held
func (c *Controller) notify(events ...Event) {
	c.mu.Lock()
	observers := make([]func(Event), len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for _, ev := range events {
		for _, fn := range observers {
			fn(ev)
		}
	}
}

// UpdateInput sets the pending input without validation
func (c *Controller) UpdateInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = text
}

// Submit appends the pending input as a user message and returns the
// exchange to run. It is a no-op, returning false, when the input is blank,
// an exchange is already in flight, or the session has a config error.
func (c *Controller) Submit() (Exchange, bool) {
	c.mu.Lock()
	if c.configErr != nil || c.busy || strings.TrimSpace(c.pending) == "" {
		c.mu.Unlock()
		return nil, false
	}

	msg := models.NewUserMessage(c.pending)
	count := c.conversation.Append(msg)
	c.pending = ""
	c.busy = true
	history := c.conversation.Messages()
	client := c.client
	c.mu.Unlock()

	c.logger.Debug("submission accepted", "messages", count)

	c.notify(
		Event{Kind: EventMessageAppended, Message: msg, Count: count, Busy: true},
		Event{Kind: EventBusyChanged, Count: count, Busy: true},
	)

	return func(ctx context.Context) Outcome {
		reply, err := client.Complete(ctx, history)
		return Outcome{Reply: reply, Err: err}
	}, true
}

// Resolve appends exactly one assistant message for the in-flight exchange
// and returns to idle. Any error becomes the fixed fallback reply; the
// details only go to the log. Returns false when nothing was in flight.
func (c *Controller) Resolve(outcome Outcome) bool {
	c.mu.Lock()
	if !c.busy {
		c.mu.Unlock()
		return false
	}

	reply := models.NewAssistantMessage(outcome.Reply.Content)
	if outcome.Err != nil {
		reply = models.NewAssistantMessage(models.FallbackReply)
	}

	count := c.conversation.Append(reply)
	c.busy = false
	c.mu.Unlock()

	if outcome.Err != nil {
		c.logRequestError(outcome.Err)
	} else {
		c.logger.Debug("completion succeeded", "messages", count, "reply_chars", len(reply.Content))
	}

	c.notify(
		Event{Kind: EventMessageAppended, Message: reply, Count: count},
		Event{Kind: EventBusyChanged, Count: count},
	)
	return true
}

func (c *Controller) logRequestError(err error) {
	attrs := []any{"error", err}
	if status := apierrors.GetHTTPStatus(err); status > 0 {
		attrs = append(attrs, "status", status)
	}
	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		attrs = append(attrs, "endpoint", endpoint)
	}
	if body := apierrors.GetResponseBody(err); body != "" {
		attrs = append(attrs, "body", logging.Truncate(body, maxLoggedBody))
	}
	switch {
	case apierrors.IsNetworkError(err):
		attrs = append(attrs, "kind", "network")
	case apierrors.IsAPIError(err):
		attrs = append(attrs, "kind", "http")
	case apierrors.IsParseError(err):
		attrs = append(attrs, "kind", "parse")
	}

	c.logger.Error("completion request failed", attrs...)
}

// Send runs Submit, the exchange and Resolve in one blocking call. It
// returns the assistant message appended, or false when Submit was a no-op.
func (c *Controller) Send(ctx context.Context) (models.Message, bool) {
	exchange, ok := c.Submit()
	if !ok {
		return models.Message{}, false
	}

	c.Resolve(exchange(ctx))

	last, _ := c.conversation.Last()
	return last, true
}

// State returns the current session state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.configErr != nil:
		return StateConfigError
	case c.busy:
		return StateAwaiting
	default:
		return StateIdle
	}
}

// Messages returns a copy of the conversation
func (c *Controller) Messages() []models.Message {
	return c.conversation.Messages()
}

// LastReply returns the most recent assistant message
func (c *Controller) LastReply() (models.Message, bool) {
	return c.conversation.LastByRole(models.RoleAssistant)
}

// PendingInput returns the text waiting to be submitted
func (c *Controller) PendingInput() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Busy reports whether an exchange is in flight
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// ConfigErr returns the startup configuration error, if any
func (c *Controller) ConfigErr() error {
	return c.configErr
}

// SessionID returns the session identifier
func (c *Controller) SessionID() string {
	return c.sessionID
}
