package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/diogo/gptchat/internal/api"
	"github.com/diogo/gptchat/internal/chat"
	"github.com/diogo/gptchat/internal/config"
	"github.com/diogo/gptchat/internal/logging"
	"github.com/diogo/gptchat/internal/render"
	"github.com/diogo/gptchat/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(ctx context.Context, controller *chat.Controller, modelName string, opts render.Options) error
}

// Dependencies holds the external dependencies for the commands.
// Tests replace them to run commands without a terminal, network or home directory.
type Dependencies struct {
	TUI TUIInterface

	LoadConfig     func() (config.Config, error)
	SaveConfig     func(cfg config.Config) error
	LoadCredential func() (string, error)
	SetupLogging   func(cfg config.Config, sessionID string) (*slog.Logger, io.Closer, error)
	NewClient      func(credential string, opts ...api.ClientOption) (api.CompletionClientInterface, error)

	// IsTerminal reports whether the chat can take over the terminal
	IsTerminal func() bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(ctx context.Context, controller *chat.Controller, modelName string, opts render.Options) error {
	return tui.RunChat(ctx, controller, modelName, opts)
}

// newCompletionClient adapts api.NewClient so a failed construction yields
// a nil interface rather than a typed nil
func newCompletionClient(credential string, opts ...api.ClientOption) (api.CompletionClientInterface, error) {
	client, err := api.NewClient(credential, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		TUI:            &DefaultTUI{},
		LoadConfig:     config.LoadConfig,
		SaveConfig:     config.SaveConfig,
		LoadCredential: config.LoadCredential,
		SetupLogging:   logging.Setup,
		NewClient:      newCompletionClient,
		IsTerminal:     isTerminal,
		Stdin:          os.Stdin,
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
	}
}
