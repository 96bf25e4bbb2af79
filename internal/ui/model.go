package ui

import (
	"context"

	"github.com/KaramelBytes/datasense-cli/internal/console"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// stateMsg signals that the controller published a new state.
type stateMsg struct{}

// handlerDoneMsg is returned when an upload or query handler finishes.
// Outcomes are already in the state; err is kept for tests and logs.
type handlerDoneMsg struct{ err error }

// Model is the bubbletea model of the analysis console.
type Model struct {
	ctrl        *console.Controller
	ctx         context.Context
	cancel      context.CancelFunc
	states      <-chan console.State
	unsubscribe func()
	initialFile string

	state   console.State
	input   textinput.Model
	path    textinput.Model
	picking bool
	history viewport.Model
	spin    spinner.Model
	records int
	wasBusy bool

	width    int
	height   int
	ready    bool
	quitting bool
}

// NewModel wires a console model to ctrl. When initialFile is set it is
// selected (and uploaded) on start.
func NewModel(ctx context.Context, ctrl *console.Controller, initialFile string) *Model {
	ctx, cancel := context.WithCancel(ctx)
	states, unsubscribe := ctrl.Subscribe(16)

	in := textinput.New()
	in.Placeholder = questionPrompt
	in.Prompt = "› "
	in.CharLimit = 0
	in.Width = 40
	in.Focus()

	p := textinput.New()
	p.Placeholder = "path/to/data.csv"
	p.Prompt = "file: "
	p.CharLimit = 0
	p.Width = 30

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle

	return &Model{
		ctrl:        ctrl,
		ctx:         ctx,
		cancel:      cancel,
		states:      states,
		unsubscribe: unsubscribe,
		initialFile: initialFile,
		state:       ctrl.Snapshot(),
		input:       in,
		path:        p,
		history:     viewport.New(40, 10),
		spin:        s,
	}
}

// Init starts the cursor, the spinner and the state listener.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spin.Tick, waitForState(m.states)}
	if m.initialFile != "" {
		cmds = append(cmds, m.selectFile(m.initialFile))
	}
	return tea.Batch(cmds...)
}

func waitForState(ch <-chan console.State) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return stateMsg{}
	}
}

func (m *Model) selectFile(path string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return handlerDoneMsg{err: ctrl.SelectFile(ctx, path)}
	}
}

func (m *Model) ask(question string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return handlerDoneMsg{err: ctrl.Ask(ctx, question)}
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.input.Width = inputWidth(msg.Width)
		m.path.Width = m.input.Width / 2
		m.history.Width = historyWidth(msg.Width)
		m.history.Height = historyHeight(msg.Height)
		m.refreshHistory()
		return m, nil

	case stateMsg:
		m.sync()
		return m, waitForState(m.states)

	case handlerDoneMsg:
		m.sync()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	if m.picking {
		m.path, cmd = m.path.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quit()
		return m, tea.Quit
	}

	// the alert is modal
	if m.state.Alert != "" {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			m.state = m.ctrl.DismissAlert()
		}
		return m, nil
	}

	if m.picking {
		switch msg.Type {
		case tea.KeyEnter:
			path := m.path.Value()
			m.closePicker()
			if path == "" {
				return m, nil
			}
			return m, m.selectFile(path)
		case tea.KeyEsc:
			m.closePicker()
			return m, nil
		}
		var cmd tea.Cmd
		m.path, cmd = m.path.Update(msg)
		return m, cmd
	}

	switch msg.Type {
	case tea.KeyCtrlO:
		m.picking = true
		m.input.Blur()
		m.path.SetValue("")
		return m, m.path.Focus()
	case tea.KeyEnter:
		if !m.state.CanAsk() {
			return m, nil
		}
		return m, m.ask(m.state.Draft)
	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(msg)
		return m, cmd
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		m.state = m.ctrl.SetDraft(v)
		m.refreshHistory()
	}
	return m, cmd
}

func (m *Model) closePicker() {
	m.picking = false
	m.path.Blur()
	m.input.Focus()
}

// sync adopts the latest controller state. Reading the snapshot instead of the
// delivered value keeps typing from being overwritten by older states.
func (m *Model) sync() {
	m.state = m.ctrl.Snapshot()
	if m.state.Draft != m.input.Value() {
		m.input.SetValue(m.state.Draft)
	}
	m.refreshHistory()
}

func (m *Model) refreshHistory() {
	m.history.SetContent(RenderHistory(m.state, m.history.Width))
	if n := len(m.state.History); n != m.records || m.state.Busy != m.wasBusy {
		m.records, m.wasBusy = n, m.state.Busy
		m.history.GotoBottom()
	}
}

func (m *Model) quit() {
	m.quitting = true
	m.cancel()
	m.unsubscribe()
}

// State returns the state the model last rendered.
func (m *Model) State() console.State { return m.state }

// View renders the model.
func (m *Model) View() string {
	if m.quitting {
		return "Thanks for using DataSense! 👋\n"
	}
	if !m.ready {
		return "Initializing..."
	}
	l := Layout{
		Width:   m.width,
		Height:  m.height,
		Input:   m.input.View(),
		History: m.history.View(),
		Spinner: m.spin.View(),
	}
	if m.picking {
		l.Picker = m.path.View()
	}
	if len(m.state.History) == 0 && !m.state.Busy {
		l.History = ""
	}
	return Render(m.state, l)
}

// Run starts the console and blocks until the user quits.
func Run(ctx context.Context, ctrl *console.Controller, initialFile string) error {
	m := NewModel(ctx, ctrl, initialFile)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	m.quit()
	return err
}
