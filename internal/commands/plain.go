package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/diogo/gptchat/internal/chat"
	"github.com/diogo/gptchat/internal/config"
	"github.com/diogo/gptchat/internal/models"
	"github.com/diogo/gptchat/internal/render"
)

// maxLineBytes bounds a single line read in line mode
const maxLineBytes = 1 << 20

var errChatUnavailable = errors.New("chat unavailable: API key is missing or invalid")

// lineStyles colors line mode output with the active TUI theme
type lineStyles struct {
	user       lipgloss.Style
	assistant  lipgloss.Style
	errorTitle lipgloss.Style
	dim        lipgloss.Style
}

func newLineStyles(theme render.TUITheme) lineStyles {
	return lineStyles{
		user:       lipgloss.NewStyle().Foreground(theme.User).Bold(true),
		assistant:  lipgloss.NewStyle().Foreground(theme.Assistant).Bold(true),
		errorTitle: lipgloss.NewStyle().Foreground(theme.Error).Bold(true),
		dim:        lipgloss.NewStyle().Foreground(theme.TextDim),
	}
}

// fileTTY reports whether w is a terminal
func fileTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 80
}

// runLineMode treats every input line as one submission and prints each
// exchange as it completes
func runLineMode(ctx context.Context, s *chatSession, deps *Dependencies) error {
	theme := render.GetTUITheme()
	styles := newLineStyles(theme)

	if s.controller.State() == chat.StateConfigError {
		printRemediation(deps.Stderr, s.controller.ConfigErr(), styles)
		return errChatUnavailable
	}

	out := deps.Stdout
	pretty := fileTTY(out)
	if pretty {
		fmt.Fprintln(out, styles.user.Render("Welcome to OpenAI Chat!"))
		fmt.Fprintln(out, styles.dim.Render("Send a message to start chatting with the AI assistant. Ctrl+D ends the session."))
		fmt.Fprintln(out)
	}

	if fileTTY(deps.Stderr) {
		var spin *spinner
		s.controller.Subscribe(func(ev chat.Event) {
			if ev.Kind != chat.EventBusyChanged {
				return
			}
			if ev.Busy {
				spin = newSpinner(deps.Stderr, "Waiting for reply", theme)
				spin.start()
			} else if spin != nil {
				spin.stop()
				spin = nil
			}
		})
	}

	scanner := bufio.NewScanner(deps.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Text()

		s.controller.UpdateInput(line)
		reply, ok := s.controller.Send(ctx)
		if !ok {
			continue
		}

		printExchange(out, line, reply, pretty, s.renderOpts, styles)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	s.logger.Info("session ended", "messages", len(s.controller.Messages()))
	return nil
}

func printExchange(w io.Writer, input string, reply models.Message, pretty bool, opts render.Options, styles lineStyles) {
	content := reply.Content
	if pretty {
		content = render.Reply(content, opts.WithWidth(terminalWidth(w)-2))
	}

	fmt.Fprintf(w, "%s %s\n", styles.user.Render("You:"), input)
	fmt.Fprintf(w, "%s %s\n\n", styles.assistant.Render("Assistant:"), content)
}

// printRemediation writes the steps for fixing a missing or malformed key
func printRemediation(w io.Writer, err error, styles lineStyles) {
	fmt.Fprintln(w, styles.errorTitle.Render("API Key Error"))
	fmt.Fprintln(w, "Your OpenAI API key is missing or invalid.")
	if err != nil {
		fmt.Fprintln(w, styles.dim.Render(err.Error()))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "To fix this issue:")
	for i, step := range config.RemediationSteps() {
		fmt.Fprintf(w, "  %d. %s\n", i+1, step)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Note: %s\n", config.RemediationNote)
}
