package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"motion-logger/controller"
	"motion-logger/models"
	"motion-logger/utils"
)

// FrameInterval is how often the latest sample and the chart are repainted.
// The terminal cannot show more than this, so faster sensors are coalesced.
const FrameInterval = 100 * time.Millisecond

// Model is the root bubbletea model of the recorder shell.
type Model struct {
	ctx  context.Context
	ctrl *controller.SessionController

	// Input
	filename string

	// Session display
	recording    bool
	startText    string
	endText      string
	durationText string
	pathText     string
	latestText   string

	// Notices
	notice      string
	noticeError bool
	noticeSeq   int

	available []models.SensorKind
	pending   bool // a start/stop command is in flight

	width  int
	height int
}

// New creates a Model driving ctrl. defaultName pre-fills the file name.
func New(ctx context.Context, ctrl *controller.SessionController, defaultName string) Model {
	return Model{
		ctx:       ctx,
		ctrl:      ctrl,
		filename:  defaultName,
		available: ctrl.Sensors().Available(),
		width:     80,
		height:    24,
	}
}

// Init starts the frame ticker.
func (m Model) Init() tea.Cmd {
	return frameCmd()
}

func frameCmd() tea.Cmd {
	return tea.Tick(FrameInterval, func(time.Time) tea.Msg { return FrameMsg{} })
}

func clearNoticeCmd(seq int) tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg { return ClearNoticeMsg{seq: seq} })
}

// startCmd runs the start sequence off the UI loop.
func startCmd(ctx context.Context, ctrl *controller.SessionController, name string) tea.Cmd {
	return func() tea.Msg {
		started, err := ctrl.StartSession(ctx, name)
		info, _ := ctrl.Session()
		return SessionStartedMsg{Started: started, Err: err, Info: info}
	}
}

// stopCmd unsubscribes and closes the session.
func stopCmd(ctrl *controller.SessionController) tea.Cmd {
	return func() tea.Msg {
		sum, ok := ctrl.StopSession()
		return SessionStoppedMsg{Summary: sum, OK: ok}
	}
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case FrameMsg:
		if s, ok := m.ctrl.Latest(); ok {
			m.latestText = FormatLatest(s)
		}
		return m, frameCmd()

	case SessionStartedMsg:
		m.pending = false
		return m.handleStarted(msg)

	case SessionStoppedMsg:
		m.pending = false
		if !msg.OK {
			return m, nil
		}
		sum := msg.Summary
		m.recording = false
		m.endText = utils.FormatUTC(sum.End)
		m.durationText = fmt.Sprintf("%d s", sum.DurationSeconds())
		return m.setNotice(fmt.Sprintf("Measuring finished (%d rows)", sum.Rows), false)

	case ClearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
			m.noticeError = false
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleStarted(msg SessionStartedMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.Err, controller.ErrEmptyFilename):
		return m.setNotice("Please enter a file name", true)
	case errors.Is(msg.Err, controller.ErrPermissionDenied):
		return m.setNotice(fmt.Sprintf(
			"Permission denied, cannot measure. Grant write access and retry: %v", msg.Err), true)
	case msg.Err != nil:
		return m.setNotice(msg.Err.Error(), true)
	case !msg.Started:
		// the failure has been logged; the shell stays idle
		return m, nil
	}

	m.recording = true
	m.startText = utils.FormatUTC(msg.Info.Start)
	m.endText = ""
	m.durationText = ""
	m.latestText = ""
	m.pathText = msg.Info.Path
	if abs, err := filepath.Abs(msg.Info.Path); err == nil {
		m.pathText = abs
	}
	return m.setNotice("Measuring started, file: "+m.pathText, false)
}

func (m Model) setNotice(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.noticeSeq++
	m.notice = text
	m.noticeError = isErr
	return m, clearNoticeCmd(m.noticeSeq)
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit:
		m.ctrl.StopSession()
		return m, tea.Quit

	case KeyQuitIdle:
		if m.recording || m.pending {
			return m, nil
		}
		return m, tea.Quit

	case KeyStart:
		if m.recording || m.pending {
			return m, nil
		}
		m.pending = true
		return m, startCmd(m.ctx, m.ctrl, m.filename)

	case KeyStop, KeyStopAlt:
		// stop runs unconditionally, even when idle, but never overlaps a start
		if m.pending {
			return m, nil
		}
		m.pending = true
		return m, stopCmd(m.ctrl)

	case KeyBackspace:
		if !m.recording && len(m.filename) > 0 {
			r := []rune(m.filename)
			m.filename = string(r[:len(r)-1])
		}
		return m, nil
	}

	if msg.Type == tea.KeyRunes && !m.recording {
		m.filename += string(msg.Runes)
	} else if msg.Type == tea.KeySpace && !m.recording {
		m.filename += " "
	}
	return m, nil
}

// FormatLatest renders the latest-sample line.
func FormatLatest(s models.Sample) string {
	return fmt.Sprintf("%s: X=%.3f Y=%.3f Z=%.3f", s.Kind, s.X, s.Y, s.Z)
}

// View renders the shell.
func (m Model) View() string {
	var b strings.Builder

	dot := IdleDotStyle.Render("○ Idle")
	if m.recording {
		dot = RecordingDotStyle.Render("● Recording")
	}
	b.WriteString(TitleStyle.Render("motion-logger") + "  " + dot + "\n\n")

	cursor := ""
	if !m.recording {
		cursor = "▏"
	}
	b.WriteString(LabelStyle.Render("File name: ") + InputStyle.Render(m.filename+cursor) +
		LabelStyle.Render(".csv") + "\n")

	line := func(label, value string) {
		if value == "" {
			value = "-"
		}
		b.WriteString(LabelStyle.Render(label) + ValueStyle.Render(value) + "\n")
	}
	line("Start time: ", m.startText)
	line("End time:   ", m.endText)
	line("Duration:   ", m.durationText)
	line("Sensors:    ", kindList(m.available))
	line("Latest:     ", m.latestText)
	if m.recording {
		line("Rows:       ", fmt.Sprintf("%d", m.ctrl.Rows()))
	}
	b.WriteString("\n")

	chartW := max(20, m.width-6)
	chartH := max(3, m.height-20)
	b.WriteString(PanelStyle.Render(m.ctrl.Plot().Render(chartW, chartH)))
	b.WriteString("\n")

	if m.notice != "" {
		style := NoticeStyle
		if m.noticeError {
			style = ErrorStyle
		}
		b.WriteString(style.Render(m.notice) + "\n")
	}
	b.WriteString(footer(m.recording))
	return b.String()
}

func kindList(kinds []models.SensorKind) string {
	if len(kinds) == 0 {
		return "none"
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}

func footer(recording bool) string {
	key := func(k, desc string) string {
		return FooterKeyStyle.Render(k) + " " + FooterDescStyle.Render(desc)
	}
	items := []string{key("enter", "start"), key("esc", "stop"), key("ctrl+c", "quit")}
	if recording {
		items = items[1:]
	}
	return strings.Join(items, "   ")
}
