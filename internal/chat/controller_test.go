package chat

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/diogo/gptchat/internal/api"
	apierrors "github.com/diogo/gptchat/internal/errors"
	"github.com/diogo/gptchat/internal/logging"
	"github.com/diogo/gptchat/internal/models"
)

func TestNewController_InitialState(t *testing.T) {
	c := NewController(api.NewMockCompletionClient("hi"), nil, WithSessionID("abc"))

	if c.State() != StateIdle {
		t.Errorf("State() = %s, want idle", c.State())
	}
	if len(c.Messages()) != 0 {
		t.Errorf("Messages() should be empty, got %d", len(c.Messages()))
	}
	if c.PendingInput() != "" {
		t.Errorf("PendingInput() = %q", c.PendingInput())
	}
	if c.Busy() {
		t.Error("Busy() should be false")
	}
	if c.SessionID() != "abc" {
		t.Errorf("SessionID() = %q", c.SessionID())
	}
}

func TestNewController_NilClientIsConfigError(t *testing.T) {
	c := NewController(nil, nil)

	if c.State() != StateConfigError {
		t.Errorf("State() = %s, want config_error", c.State())
	}
	if !apierrors.IsConfigError(c.ConfigErr()) {
		t.Errorf("ConfigErr() = %v", c.ConfigErr())
	}
}

func TestSend_Success(t *testing.T) {
	mock := api.NewMockCompletionClient("Hi there!")
	c := NewController(mock, nil)

	c.UpdateInput("Hello")
	reply, ok := c.Send(context.Background())
	if !ok {
		t.Fatal("Send() should accept the submission")
	}

	if reply.Role != models.RoleAssistant || reply.Content != "Hi there!" {
		t.Errorf("Send() = %+v", reply)
	}

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if msgs[0] != models.NewUserMessage("Hello") {
		t.Errorf("msgs[0] = %+v", msgs[0])
	}
	if msgs[1] != models.NewAssistantMessage("Hi there!") {
		t.Errorf("msgs[1] = %+v", msgs[1])
	}
	if c.State() != StateIdle {
		t.Errorf("State() = %s, want idle", c.State())
	}
	if c.PendingInput() != "" {
		t.Error("PendingInput() should be cleared")
	}
	if mock.Calls() != 1 {
		t.Errorf("Calls() = %d, want 1", mock.Calls())
	}
}

func TestSubmit_BlankInputIsNoop(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"mixed whitespace", " \t\n "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := api.NewMockCompletionClient("unused")
			c := NewController(mock, nil)

			c.UpdateInput(tt.input)
			exchange, ok := c.Submit()

			if ok || exchange != nil {
				t.Error("Submit() should be a no-op")
			}
			if len(c.Messages()) != 0 {
				t.Errorf("Messages() = %d, want 0", len(c.Messages()))
			}
			if c.Busy() {
				t.Error("Busy() should stay false")
			}
			if c.PendingInput() != tt.input {
				t.Errorf("PendingInput() = %q, want it unchanged", c.PendingInput())
			}
			if mock.Calls() != 0 {
				t.Errorf("Calls() = %d, want 0", mock.Calls())
			}
		})
	}
}

func TestSubmit_ContentNotTrimmed(t *testing.T) {
	mock := api.NewMockCompletionClient("ok")
	c := NewController(mock, nil)

	c.UpdateInput("  padded  ")
	if _, ok := c.Send(context.Background()); !ok {
		t.Fatal("Send() should accept padded input")
	}

	if got := c.Messages()[0].Content; got != "  padded  " {
		t.Errorf("Content = %q, want it unchanged", got)
	}
	if got := mock.LastHistory()[0].Content; got != "  padded  " {
		t.Errorf("Sent content = %q", got)
	}
}

func TestSubmit_BusyGuard(t *testing.T) {
	mock := api.NewMockCompletionClient("first reply")
	c := NewController(mock, nil)

	c.UpdateInput("first")
	exchange, ok := c.Submit()
	if !ok {
		t.Fatal("Submit() should accept the first submission")
	}
	if c.State() != StateAwaiting {
		t.Errorf("State() = %s, want awaiting", c.State())
	}
	if got := c.Messages(); len(got) != 1 || got[0].Role != models.RoleUser {
		t.Errorf("Messages() after Submit = %+v", got)
	}

	c.UpdateInput("second")
	if _, ok := c.Submit(); ok {
		t.Error("Submit() while busy should be a no-op")
	}
	if len(c.Messages()) != 1 {
		t.Errorf("Busy submission should not append, got %d messages", len(c.Messages()))
	}
	if c.PendingInput() != "second" {
		t.Errorf("PendingInput() = %q, want it kept while busy", c.PendingInput())
	}

	c.Resolve(exchange(context.Background()))

	if mock.Calls() != 1 {
		t.Errorf("Calls() = %d, want 1", mock.Calls())
	}
	if c.State() != StateIdle {
		t.Errorf("State() = %s, want idle", c.State())
	}
}

func TestSubmit_SendsSnapshotOfHistory(t *testing.T) {
	mock := api.NewMockCompletionClient("reply")
	c := NewController(mock, nil)

	c.UpdateInput("one")
	c.Send(context.Background())
	c.UpdateInput("two")
	c.Send(context.Background())

	history := mock.LastHistory()
	if len(history) != 3 {
		t.Fatalf("Expected 3 messages sent, got %d", len(history))
	}
	want := []models.Message{
		models.NewUserMessage("one"),
		models.NewAssistantMessage("reply"),
		models.NewUserMessage("two"),
	}
	for i := range want {
		if history[i] != want[i] {
			t.Errorf("history[%d] = %+v, want %+v", i, history[i], want[i])
		}
	}
}

func TestResolve_FailuresUseFallback(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantLogs []string
	}{
		{
			name:     "http status",
			err:      apierrors.NewAPIErrorWithBody(500, models.EndpointChatCompletions, "request failed with status 500", "<html>oops</html>"),
			wantLogs: []string{"status=500", "kind=http", "body=", models.EndpointChatCompletions},
		},
		{
			name:     "network",
			err:      apierrors.NewNetworkErrorWithEndpoint("chat completion", models.EndpointChatCompletions, errors.New("connection reset")),
			wantLogs: []string{"connection reset", "kind=network"},
		},
		{
			name:     "malformed body",
			err:      apierrors.NewParseError("no choices in response", "choices"),
			wantLogs: []string{"no choices in response", "kind=parse"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			mock := api.NewFailingCompletionClient(tt.err)
			c := NewController(mock, nil, WithLogger(logging.New(&buf, false, "")))

			c.UpdateInput("Hello")
			reply, ok := c.Send(context.Background())
			if !ok {
				t.Fatal("Send() should accept the submission")
			}

			if reply != models.NewAssistantMessage(models.FallbackReply) {
				t.Errorf("reply = %+v, want fallback", reply)
			}
			if len(c.Messages()) != 2 {
				t.Errorf("Expected exactly 2 messages, got %d", len(c.Messages()))
			}
			if c.State() != StateIdle {
				t.Errorf("State() = %s, want idle", c.State())
			}
			if strings.Contains(reply.Content, tt.err.Error()) {
				t.Error("Error details must not reach the conversation")
			}

			logs := buf.String()
			for _, want := range tt.wantLogs {
				if !strings.Contains(logs, want) {
					t.Errorf("Log missing %q: %s", want, logs)
				}
			}
		})
	}
}

func TestResolve_WithoutSubmissionIsIgnored(t *testing.T) {
	c := NewController(api.NewMockCompletionClient("hi"), nil)

	if c.Resolve(Outcome{Reply: models.NewAssistantMessage("stray")}) {
		t.Error("Resolve() should report false when idle")
	}
	if len(c.Messages()) != 0 {
		t.Errorf("Messages() = %d, want 0", len(c.Messages()))
	}
}

func TestResolve_ForcesAssistantRole(t *testing.T) {
	mock := api.NewMockCompletionClient("")
	mock.Reply = models.NewUserMessage("echo")
	c := NewController(mock, nil)

	c.UpdateInput("Hello")
	reply, _ := c.Send(context.Background())

	if reply.Role != models.RoleAssistant || reply.Content != "echo" {
		t.Errorf("reply = %+v", reply)
	}
}

func TestConfigError_NeverCallsClient(t *testing.T) {
	mock := api.NewMockCompletionClient("unused")
	c := NewController(mock, apierrors.NewConfigError(apierrors.ReasonMissing, ""))

	if c.State() != StateConfigError {
		t.Fatalf("State() = %s, want config_error", c.State())
	}

	c.UpdateInput("Hello")
	if _, ok := c.Send(context.Background()); ok {
		t.Error("Send() should be a no-op in config error state")
	}
	if _, ok := c.Submit(); ok {
		t.Error("Submit() should be a no-op in config error state")
	}
	if mock.Calls() != 0 {
		t.Errorf("Calls() = %d, want 0", mock.Calls())
	}
	if len(c.Messages()) != 0 {
		t.Errorf("Messages() = %d, want 0", len(c.Messages()))
	}
}

func TestSubscribe_Events(t *testing.T) {
	c := NewController(api.NewMockCompletionClient("Hi there!"), nil)

	var events []Event
	c.Subscribe(func(ev Event) {
		events = append(events, ev)
	})

	c.UpdateInput("Hello")
	c.Send(context.Background())

	want := []struct {
		kind EventKind
		busy bool
		role models.Role
	}{
		{EventMessageAppended, true, models.RoleUser},
		{EventBusyChanged, true, ""},
		{EventMessageAppended, false, models.RoleAssistant},
		{EventBusyChanged, false, ""},
	}

	if len(events) != len(want) {
		t.Fatalf("Expected %d events, got %d: %+v", len(want), len(events), events)
	}
	for i, w := range want {
		if events[i].Kind != w.kind || events[i].Busy != w.busy {
			t.Errorf("events[%d] = %+v", i, events[i])
		}
		if w.role != "" && events[i].Message.Role != w.role {
			t.Errorf("events[%d].Message.Role = %s, want %s", i, events[i].Message.Role, w.role)
		}
	}
	if events[3].Count != 2 {
		t.Errorf("Final count = %d, want 2", events[3].Count)
	}
}

func TestSubscribe_ObserverCanReadState(t *testing.T) {
	c := NewController(api.NewMockCompletionClient("ok"), nil)

	var states []State
	c.Subscribe(func(ev Event) {
		if ev.Kind == EventBusyChanged {
			states = append(states, c.State())
		}
	})

	c.UpdateInput("Hello")
	c.Send(context.Background())

	if len(states) != 2 || states[0] != StateAwaiting || states[1] != StateIdle {
		t.Errorf("Observed states = %v", states)
	}
}

func TestLastReply(t *testing.T) {
	c := NewController(api.NewMockCompletionClient("answer"), nil)

	if _, ok := c.LastReply(); ok {
		t.Error("LastReply() should be empty before any exchange")
	}

	c.UpdateInput("question")
	c.Send(context.Background())

	reply, ok := c.LastReply()
	if !ok || reply.Content != "answer" {
		t.Errorf("LastReply() = %+v, %v", reply, ok)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateAwaiting, "awaiting"},
		{StateConfigError, "config_error"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
