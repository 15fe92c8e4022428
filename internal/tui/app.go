package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/codemate/internal"
	"github.com/iksnae/codemate/internal/export"
)

// Options configures the chat model
type Options struct {
	PreviewURL string // empty when the preview server is not running
	SaveDir    string // where "s" writes code blocks
	ExportDir  string // where "e" writes transcripts
	Demo       bool   // seed a demo exchange when the backend is unreachable

	// Width and Height size the first frame until the terminal reports its
	// size. Zero means 120x30.
	Width  int
	Height int
}

type stateMsg internal.SessionState

type connectionMsg struct {
	ok  bool
	err error
}

type turnDoneMsg internal.TurnResult

type clearedMsg struct {
	err error
}

// Model is the bubbletea model for the chat screen
type Model struct {
	ctrl     *internal.Controller
	renderer *internal.PreviewRenderer
	events   <-chan internal.SessionState
	opts     Options

	ctx    context.Context
	cancel context.CancelFunc

	state       internal.SessionState
	turnCount   int
	viewport    viewport.Model
	spinner     spinner.Model
	exportInput textinput.Model
	md          *markdownRenderer

	width      int
	height     int
	exporting  bool
	fullscreen bool
	checked    bool
	notice     string
	quitting   bool
}

// NewModel creates the chat model. events carries the controller's state
// snapshots; it may be nil.
func NewModel(ctrl *internal.Controller, renderer *internal.PreviewRenderer, events <-chan internal.SessionState, opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ei := textinput.New()
	ei.Placeholder = "md"
	ei.CharLimit = 10

	m := Model{
		ctrl:        ctrl,
		renderer:    renderer,
		events:      events,
		opts:        opts,
		ctx:         ctx,
		cancel:      cancel,
		state:       ctrl.State(),
		viewport:    viewport.New(80, 20),
		spinner:     sp,
		exportInput: ei,
		width:       120,
		height:      30,
	}
	if opts.Width > 0 {
		m.width = opts.Width
	}
	if opts.Height > 0 {
		m.height = opts.Height
	}
	m.md = newMarkdownRenderer(m.conversationWidth() - 2)
	m.resize()
	m.refreshConversation()
	return m
}

// Init starts the spinner, the connection check and the state listener
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.checkConnection(), m.waitForState())
}

func (m Model) checkConnection() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		ok, err := ctrl.CheckConnection(ctx)
		return connectionMsg{ok: ok, err: err}
	}
}

func (m Model) waitForState() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		s, ok := <-events
		if !ok {
			return nil
		}
		return stateMsg(s)
	}
}

func (m Model) runTurn() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return turnDoneMsg(ctrl.RunVoiceTurn(ctx))
	}
}

func (m Model) clearConversation() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return clearedMsg{err: ctrl.Clear(ctx)}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.md = newMarkdownRenderer(m.conversationWidth() - 2)
		m.resize()
		m.refreshConversation()
		return m, nil

	case stateMsg:
		m.sync()
		return m, m.waitForState()

	case connectionMsg:
		m.checked = true
		var ce *internal.ConnectivityError
		if !msg.ok && m.opts.Demo && errors.As(msg.err, &ce) && ce.Unreachable() && m.ctrl.Conversation().Len() == 0 {
			m.ctrl.LoadDemo()
		}
		m.sync()
		return m, nil

	case turnDoneMsg:
		m.sync()
		if msg.SpeechErr != nil {
			m.notice = "Reply audio unavailable"
		}
		return m, nil

	case clearedMsg:
		if errors.Is(msg.err, internal.ErrTurnInProgress) {
			m.notice = "Wait for the current turn to finish"
		}
		m.sync()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.exporting {
			return m.updateExport(msg)
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.cancel()
		return m, tea.Quit

	case " ", "space":
		if m.state.Mode != internal.ModeIdle || !m.state.Connected {
			if !m.state.Connected && m.checked {
				m.notice = "Backend offline. Press r to check again."
			}
			return m, nil
		}
		return m, m.runTurn()

	case "ctrl+p":
		m.ctrl.TogglePreview()
		m.sync()

	case "left", "[":
		m.ctrl.SelectPrev()
		m.sync()

	case "right", "]":
		m.ctrl.SelectNext()
		m.sync()

	case "f":
		m.fullscreen = !m.fullscreen
		m.resize()
		m.refreshConversation()

	case "y":
		if block, ok := m.ctrl.Conversation().Selected(); ok {
			if err := internal.CopyCodeBlock(block); err != nil {
				m.notice = err.Error()
			} else {
				m.notice = "Copied " + block.Language + " block"
			}
		}

	case "s":
		if block, ok := m.ctrl.Conversation().Selected(); ok {
			path, err := internal.SaveCodeBlock(m.opts.SaveDir, block)
			if err != nil {
				m.notice = err.Error()
			} else {
				m.notice = "Saved " + path
			}
		}

	case "e":
		m.exporting = true
		m.exportInput.SetValue("")
		m.exportInput.Focus()
		return m, textinput.Blink

	case "c":
		if m.state.Mode.Busy() {
			m.notice = "Wait for the current turn to finish"
			return m, nil
		}
		return m, m.clearConversation()

	case "r":
		if m.state.Mode.Busy() {
			return m, nil
		}
		return m, m.checkConnection()

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) updateExport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.exporting = false
		m.exportInput.Blur()
		return m, nil

	case "enter":
		m.exporting = false
		m.exportInput.Blur()
		format := strings.TrimSpace(m.exportInput.Value())
		if format == "" {
			format = "md"
		}
		transcript := m.ctrl.Conversation().Transcript(m.ctrl.SessionID())
		path, err := export.WriteFile(transcript, format, m.opts.ExportDir)
		if err != nil {
			m.notice = err.Error()
		} else {
			m.notice = "Exported " + path
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.exportInput, cmd = m.exportInput.Update(msg)
	return m, cmd
}

// sync pulls the latest controller state and refreshes derived views
func (m *Model) sync() {
	prevBlocks := m.state.BlockCount
	m.state = m.ctrl.State()
	if m.state.BlockCount != prevBlocks {
		m.resize()
	}
	if m.state.TurnCount != m.turnCount || m.state.BlockCount != prevBlocks {
		m.refreshConversation()
	}
}

func (m *Model) refreshConversation() {
	turns := m.ctrl.Conversation().All()
	m.turnCount = len(turns)
	m.viewport.SetContent(renderTurns(turns, m.md))
	m.viewport.GotoBottom()
}

func (m *Model) resize() {
	m.viewport.Width = m.conversationWidth()
	h := m.height - 6
	if h < 3 {
		h = 3
	}
	m.viewport.Height = h
}

func (m Model) conversationWidth() int {
	if m.fullscreen {
		return m.width
	}
	if m.codePanelWidth() == 0 {
		return m.width
	}
	return m.width - m.codePanelWidth()
}

func (m Model) codePanelWidth() int {
	if m.state.BlockCount == 0 {
		return 0
	}
	if m.fullscreen {
		return m.width
	}
	return m.width * 2 / 5
}

// Quitting reports whether the user asked to quit
func (m Model) Quitting() bool {
	return m.quitting
}

// View renders the screen
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch {
	case m.fullscreen && m.state.BlockCount > 0:
		b.WriteString(m.renderCodePanel(m.width - 2))
	case m.state.BlockCount > 0:
		left := lipgloss.NewStyle().Width(m.conversationWidth()).Render(m.viewport.View())
		right := m.renderCodePanel(m.codePanelWidth() - 2)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	default:
		b.WriteString(m.viewport.View())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	if m.exporting {
		b.WriteString(inputStyle.Render("Export format (jsonl, md, yaml, json): " + m.exportInput.View()))
	} else {
		b.WriteString(helpStyle.Render("space talk • ←/→ block • ctrl+p preview • y copy • s save • e export • f full • c clear • r reconnect • q quit"))
	}
	return b.String()
}

func (m Model) renderHeader() string {
	conn := offlineStyle.Render("● offline")
	if m.state.Connected {
		conn = onlineStyle.Render("● connected")
	}
	return fmt.Sprintf("%s %s %s", titleStyle.Render("CodeMate"), conn, modeStyle.Render(m.state.Mode.String()))
}

func (m Model) renderCodePanel(width int) string {
	block, ok := m.ctrl.Conversation().Selected()
	if !ok {
		return ""
	}
	if width < 10 {
		width = 10
	}

	header := codeHeaderStyle.Render(fmt.Sprintf("Code %d/%d • %s", m.state.SelectedIndex+1, m.state.BlockCount, block.Language))
	var preview string
	switch {
	case !block.IsHTML:
	case m.renderer != nil && m.renderer.Active() && m.opts.PreviewURL != "":
		preview = previewOnStyle.Render("Preview: " + m.opts.PreviewURL)
	case m.state.PreviewVisible:
		preview = previewOnStyle.Render("Preview on")
	default:
		preview = dimStyle.Render("Preview off (ctrl+p)")
	}

	body := lipgloss.NewStyle().MaxWidth(width).Render(highlight(block))
	content := header
	if preview != "" {
		content += "\n" + preview
	}
	content += "\n" + body

	h := m.height - 6
	if h < 3 {
		h = 3
	}
	return panelStyle.Width(width).MaxHeight(h + 2).Render(content)
}

func (m Model) renderStatusBar() string {
	status := m.state.Status
	if m.state.Mode.Busy() {
		status = m.spinner.View() + " " + status
	}
	line := statusBarStyle.Render(status)
	if m.notice != "" {
		line += " " + noticeStyle.Render(m.notice)
	}
	return line
}
