package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/diogo/gptchat/internal/api"
	"github.com/diogo/gptchat/internal/chat"
	"github.com/diogo/gptchat/internal/config"
	"github.com/diogo/gptchat/internal/logging"
	"github.com/diogo/gptchat/internal/models"
	"github.com/diogo/gptchat/internal/render"
	"github.com/diogo/gptchat/internal/tui"
)

func newChatCmd(deps *Dependencies, flags *chatFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start a chat session",
		Long: `Start a chat session with the assistant.

The full conversation is sent with every message. On a terminal the chat
runs full screen; use --plain, or pipe input, for line mode.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), deps, *flags)
		},
	}
}

// chatSession is everything one chat run owns
type chatSession struct {
	cfg        config.Config
	logger     *slog.Logger
	controller *chat.Controller
	modelName  string
	renderOpts render.Options
	closers    []io.Closer
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}

// Close releases the client and the log file, newest first
func (s *chatSession) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
	s.closers = nil
}

// newChatSession loads configuration, opens the log, checks the credential
// and builds the controller. A bad credential is not an error here: the
// controller starts in its config error state instead.
func newChatSession(deps *Dependencies, flags chatFlags) *chatSession {
	cfg, cfgErr := deps.LoadConfig()
	if flags.verbose {
		cfg.Verbose = true
	}

	s := &chatSession{cfg: cfg, modelName: models.DefaultModel}
	if flags.model != "" {
		s.modelName = flags.model
	}

	sessionID := logging.NewSessionID()
	logger, logCloser, err := deps.SetupLogging(cfg, sessionID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "Warning: diagnostics disabled: %v\n", err)
		logger = logging.Discard()
	} else if logCloser != nil {
		s.closers = append(s.closers, logCloser)
	}
	s.logger = logger

	if cfgErr != nil {
		logger.Warn("failed to load config, using defaults", "error", cfgErr)
	}
	logger.Info("session started", "version", Version, "model", s.modelName)

	credential, envErr := deps.LoadCredential()
	if envErr != nil {
		logger.Warn("failed to load .env", "error", envErr)
	}
	logger.Info("credential check", "present", credential != "", "key", config.MaskCredential(credential))

	var client api.CompletionClientInterface
	configErr := config.ValidateCredential(credential)
	if configErr == nil {
		client, configErr = deps.NewClient(credential,
			api.WithModel(s.modelName),
			api.WithLogger(logger),
		)
	}
	if configErr != nil {
		logger.Warn("chat disabled", "error", configErr)
		client = nil
	} else if c, ok := client.(interface{ Close() }); ok {
		s.closers = append(s.closers, closerFunc(c.Close))
	}

	s.controller = chat.NewController(client, configErr,
		chat.WithLogger(logger),
		chat.WithSessionID(sessionID),
	)

	s.renderOpts = render.OptionsFromConfig(cfg.Markdown)
	if !render.ValidStyle(s.renderOpts.Style) {
		logger.Warn("unknown markdown style, replies render as plain text", "style", s.renderOpts.Style)
	}

	return s
}

func runChat(ctx context.Context, deps *Dependencies, flags chatFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s := newChatSession(deps, flags)
	defer s.Close()

	if s.cfg.TUITheme != "" && !render.SetTUITheme(s.cfg.TUITheme) {
		s.logger.Warn("unknown TUI theme, using default", "theme", s.cfg.TUITheme)
	}

	if flags.plain || !deps.IsTerminal() {
		return runLineMode(ctx, s, deps)
	}

	tui.UpdateTheme()

	return deps.TUI.RunChat(ctx, s.controller, s.modelName, s.renderOpts)
}
