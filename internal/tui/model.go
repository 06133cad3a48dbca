package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/gptchat/internal/chat"
	"github.com/diogo/gptchat/internal/config"
	"github.com/diogo/gptchat/internal/models"
	"github.com/diogo/gptchat/internal/render"
)

const (
	appTitle        = "OpenAI Chat"
	welcomeTitle    = "Welcome to OpenAI Chat!"
	welcomeSubtitle = "Send a message to start chatting with the AI assistant."
)

// writeClipboard is replaced in tests
var writeClipboard = clipboard.WriteAll

type animationTickMsg time.Time

type (
	responseMsg struct {
		outcome chat.Outcome
	}
	copiedMsg struct {
		err error
	}
)

// viewSync is shared by every copy of a Model so controller events can
// request a viewport refresh
type viewSync struct {
	dirty bool
}

// Model represents the TUI state. Conversation state lives in the controller.
type Model struct {
	controller *chat.Controller
	modelName  string
	renderOpts render.Options
	ctx        context.Context
	sync       *viewSync

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	ready          bool
	animationFrame int
	notice         string

	width  int
	height int
}

// NewChatModel creates the chat TUI for controller
func NewChatModel(controller *chat.Controller, modelName string, renderOpts render.Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	sync := &viewSync{}
	controller.Subscribe(func(ev chat.Event) {
		if ev.Kind == chat.EventMessageAppended {
			sync.dirty = true
		}
	})

	return Model{
		controller: controller,
		modelName:  modelName,
		renderOpts: renderOpts,
		ctx:        context.Background(),
		sync:       sync,
		textarea:   ta,
		spinner:    s,
	}
}

// WithContext returns a copy of m whose exchanges run under ctx
func (m Model) WithContext(ctx context.Context) Model {
	m.ctx = ctx
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	if m.controller.State() == chat.StateConfigError {
		return nil
	}
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

func animationTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// scrollKeys limits viewport scrolling to keys the textarea does not type
func scrollKeys() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		Up:       key.NewBinding(key.WithKeys("up")),
		Down:     key.NewBinding(key.WithKeys("down")),
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.controller.State() == chat.StateConfigError {
		return m.updateConfigError(msg)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			// An in-flight request always runs to completion
			if m.controller.Busy() {
				return m, nil
			}
			return m, tea.Quit

		case "ctrl+y":
			return m, m.copyLastReply()

		case "enter":
			if m.controller.Busy() {
				return m, nil
			}

			m.controller.UpdateInput(m.textarea.Value())
			exchange, ok := m.controller.Submit()
			if !ok {
				return m, nil
			}

			m.textarea.Reset()
			m.animationFrame = 0
			m.notice = ""
			m.syncViewport()

			return m, tea.Batch(
				m.runExchange(exchange),
				m.spinner.Tick,
				animationTick(),
			)
		}

	case responseMsg:
		m.controller.Resolve(msg.outcome)
		m.syncViewport()

	case copiedMsg:
		if msg.err != nil {
			m.notice = "Clipboard unavailable"
		} else {
			m.notice = "Copied last reply"
		}

	case spinner.TickMsg:
		if m.controller.Busy() {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.controller.Busy() {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Only key presses reach the textarea, so terminal responses never leak into it
	if !m.controller.Busy() {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
			m.controller.UpdateInput(m.textarea.Value())
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// updateConfigError only honors resizing and quitting
func (m Model) updateConfigError(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 4
	inputHeight := 6
	statusHeight := 1
	padding := 2

	vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
	if vpHeight < 5 {
		vpHeight = 5
	}
	contentWidth := m.width - 4

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.viewport.KeyMap = scrollKeys()
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 4)
}

func (m Model) runExchange(exchange chat.Exchange) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return responseMsg{outcome: exchange(ctx)}
	}
}

func (m Model) copyLastReply() tea.Cmd {
	reply, ok := m.controller.LastReply()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		return copiedMsg{err: writeClipboard(reply.Content)}
	}
}

// syncViewport rebuilds and scrolls the viewport after the conversation changed
func (m *Model) syncViewport() {
	if !m.sync.dirty {
		return
	}
	m.sync.dirty = false
	if !m.ready {
		return
	}
	m.updateViewport()
	m.viewport.GotoBottom()
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	contentWidth := m.width - 4
	sections := []string{m.renderHeader(contentWidth)}

	if m.controller.State() == chat.StateConfigError {
		sections = append(sections,
			m.renderConfigError(contentWidth),
			m.renderStatusBar(contentWidth),
		)
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	var messagesContent string
	if len(m.controller.Messages()) == 0 {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	var inputContent string
	if m.controller.Busy() {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader(width int) string {
	parts := []string{titleStyle.Render("✦ " + appTitle)}
	if m.modelName != "" && m.controller.State() != chat.StateConfigError {
		parts = append(parts,
			hintStyle.Render("  •  "),
			subtitleStyle.Render(m.modelName),
		)
	}
	return headerStyle.Width(width).Render(lipgloss.JoinHorizontal(lipgloss.Center, parts...))
}

func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		welcomeIconStyle.Width(width).Render("✦"),
		"",
		welcomeTitleStyle.Width(width).Render(welcomeTitle),
		"",
		welcomeStyle.Width(width).Render(welcomeSubtitle),
		"",
	)

	topPadding := (m.viewport.Height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

// renderConfigError renders the remediation panel that replaces the chat surface
func (m Model) renderConfigError(width int) string {
	var sb strings.Builder

	sb.WriteString(configErrorTitleStyle.Render("API Key Error"))
	sb.WriteString("\n")
	sb.WriteString(configErrorTextStyle.Render("Your OpenAI API key is missing or invalid."))
	sb.WriteString("\n")
	if err := m.controller.ConfigErr(); err != nil {
		sb.WriteString(hintStyle.Render(err.Error()))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(configErrorTextStyle.Bold(true).Render("To fix this issue:"))
	sb.WriteString("\n")
	for i, step := range config.RemediationSteps() {
		sb.WriteString(configErrorStepStyle.Render(fmt.Sprintf("%d. %s", i+1, step)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(configErrorCodeStyle.Render("Note: "))
	sb.WriteString(configErrorTextStyle.Render(config.RemediationNote))

	return configErrorPanelStyle.Width(width).Render(sb.String())
}

func (m Model) renderLoadingAnimation() string {
	frame := m.animationFrame

	var bar strings.Builder
	for i := 0; i < 12; i++ {
		color := gradientColors[(i+frame)%len(gradientColors)]
		bar.WriteString(lipgloss.NewStyle().Foreground(color).Render("━"))
	}

	dots := (frame / 3) % 4
	text := lipgloss.NewStyle().Foreground(colorText).
		Render(" Assistant is thinking" + strings.Repeat(".", dots))

	return fmt.Sprintf("%s %s%s", m.spinner.View(), bar.String(), text)
}

func (m Model) renderStatusBar(width int) string {
	type shortcut struct {
		key  string
		desc string
	}

	var shortcuts []shortcut
	switch {
	case m.controller.State() == chat.StateConfigError:
		shortcuts = []shortcut{{"Esc", "Quit"}}
	case m.controller.Busy():
		shortcuts = []shortcut{{"↑↓", "Scroll"}, {"Ctrl+C", "Quit"}}
	default:
		shortcuts = []shortcut{{"Enter", "Send"}, {"Ctrl+Y", "Copy reply"}, {"↑↓", "Scroll"}, {"Esc", "Quit"}}
	}

	items := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}

	bar := strings.Join(items, "  │  ")
	if m.notice != "" {
		bar += "  " + noticeStyle.Render(m.notice)
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// updateViewport refreshes the viewport content with one block per message
func (m *Model) updateViewport() {
	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}

	for i, msg := range m.controller.Messages() {
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.Role == models.RoleUser {
			content.WriteString(userLabelStyle.Render("● You"))
			content.WriteString("\n")
			content.WriteString(userBubbleStyle.Width(bubbleWidth).Render(msg.Content))
		} else {
			content.WriteString(assistantLabelStyle.Render("✦ Assistant"))
			content.WriteString("\n")
			rendered := render.Reply(msg.Content, m.renderOpts.WithWidth(bubbleWidth-4))
			content.WriteString(assistantBubbleStyle.Width(bubbleWidth).Render(rendered))
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// RunChat starts the chat TUI and blocks until the user quits
func RunChat(ctx context.Context, controller *chat.Controller, modelName string, renderOpts render.Options) error {
	m := NewChatModel(controller, modelName, renderOpts).WithContext(ctx)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}
