package commands

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/gptchat/internal/render"
)

// spinner draws a progress line on w until stopped
type spinner struct {
	w       io.Writer
	message string
	theme   render.TUITheme
	stopCh  chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool
}

func newSpinner(w io.Writer, message string, theme render.TUITheme) *spinner {
	return &spinner{
		w:       w,
		message: message,
		theme:   theme,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		fmt.Fprint(s.w, "\033[?25l")

		for {
			select {
			case <-s.stopCh:
				fmt.Fprint(s.w, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	gradientColors := s.theme.Gradient()

	spin := lipgloss.NewStyle().
		Foreground(gradientColors[s.frame%len(gradientColors)]).
		Bold(true).
		Render(chars[s.frame%len(chars)])

	var bar strings.Builder
	for i := 0; i < 12; i++ {
		color := gradientColors[(i+s.frame)%len(gradientColors)]
		bar.WriteString(lipgloss.NewStyle().Foreground(color).Render("━"))
	}

	msg := lipgloss.NewStyle().Foreground(s.theme.Text).Render(s.message)
	dots := lipgloss.NewStyle().Foreground(s.theme.TextDim).Render(strings.Repeat(".", (s.frame/3)%4))

	fmt.Fprintf(s.w, "\r\033[K%s %s %s%s", spin, bar.String(), msg, dots)
}

// stop ends the animation and waits for the line to be cleared. Safe to call twice.
func (s *spinner) stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	s.mu.Unlock()

	<-s.done
}
