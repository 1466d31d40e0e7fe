package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/swelljoe/wthr-widget/internal/suggest"
	"github.com/swelljoe/wthr-widget/internal/weather"
)

// AppState represents the current state of the application
type AppState int

const (
	StateSearch  AppState = iota // Typing, nothing loaded yet
	StateLoading                 // Weather lookup in flight
	StateDisplay                 // Report or error shown
)

const defaultDebounce = 300 * time.Millisecond

// Model represents the application's state
type Model struct {
	state  AppState
	width  int
	height int

	svc    WeatherService
	logger *zap.Logger

	// Search
	searchInput   textinput.Model
	debounceDelay time.Duration
	edit          uint64 // bumped on every text change, cancels pending debounces

	// Suggestions
	flow   suggest.Flow
	cursor int

	// Weather
	spinner spinner.Model
	report  *weather.Report
	message string
}

// NewModel creates a new application model
func NewModel(svc WeatherService, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = "Enter a city name (e.g. Paris or Springfield)..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 48

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return Model{
		state:         StateSearch,
		svc:           svc,
		logger:        logger,
		searchInput:   ti,
		debounceDelay: defaultDebounce,
		spinner:       s,
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case debounceMsg:
		if msg.edit != m.edit {
			return m, nil
		}
		q, ok := m.flow.Input(msg.text)
		m.cursor = 0
		if !ok {
			return m, nil
		}
		return m, fetchSuggestions(m.svc, q)

	case suggestionsMsg:
		if msg.err != nil {
			m.logger.Warn("suggestion lookup failed", zap.Uint64("seq", msg.seq), zap.Error(msg.err))
		}
		if !m.flow.Resolve(msg.seq, msg.places, msg.err) {
			m.logger.Debug("discarding stale suggestions", zap.Uint64("seq", msg.seq))
			return m, nil
		}
		m.cursor = 0
		return m, nil

	case reportMsg:
		if msg.err != nil {
			m.logger.Error("weather lookup failed", zap.Error(msg.err))
		}
		m.state = StateDisplay
		m.report = msg.report
		m.message = msg.message
		return m, nil

	case spinner.TickMsg:
		if m.state != StateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEsc:
		m.edit++
		m.flow.Dismiss()
		m.cursor = 0
		return m, nil

	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case tea.KeyDown:
		if m.cursor < len(m.flow.Places())-1 {
			m.cursor++
		}
		return m, nil

	case tea.KeyEnter:
		return m.submit()
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if value := m.searchInput.Value(); value != before {
		queryCmd := m.textChanged(value)
		return m, tea.Batch(cmd, queryCmd)
	}
	return m, cmd
}

// textChanged schedules a debounced suggestion query. Clearing the box
// hides the list at once.
func (m *Model) textChanged(value string) tea.Cmd {
	m.edit++
	if strings.TrimSpace(value) == "" {
		m.flow.Input(value)
		m.cursor = 0
		return nil
	}
	return debounce(m.debounceDelay, m.edit, value)
}

// submit loads the highlighted suggestion, or searches the typed text when
// no list is shown.
func (m Model) submit() (tea.Model, tea.Cmd) {
	m.edit++
	if len(m.flow.Places()) > 0 {
		if p, ok := m.flow.Select(m.cursor); ok {
			m.cursor = 0
			m.searchInput.SetValue(p.Name)
			m.searchInput.CursorEnd()
			return m.startLoading(loadPlace(m.svc, p))
		}
	}

	m.flow.Dismiss()
	m.cursor = 0
	city := strings.TrimSpace(m.searchInput.Value())
	if city == "" {
		m.state = StateDisplay
		m.report = nil
		m.message = weather.MsgMissingCity
		return m, nil
	}
	return m.startLoading(searchCity(m.svc, city))
}

func (m Model) startLoading(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.state = StateLoading
	m.message = ""
	return m, tea.Batch(m.spinner.Tick, cmd)
}

// View renders the UI
func (m Model) View() string {
	var sections []string
	sections = append(sections, titleStyle.Render("⛅ wthr"))
	sections = append(sections, searchBoxStyle.Render(m.searchInput.View()))

	if list := m.viewSuggestions(); list != "" {
		sections = append(sections, list)
	}
	sections = append(sections, "")

	switch m.state {
	case StateLoading:
		sections = append(sections, fmt.Sprintf("%s Loading weather data...", m.spinner.View()))
	case StateDisplay:
		if m.message != "" {
			sections = append(sections, errorStyle.Render("✗ "+m.message))
		} else if m.report != nil {
			sections = append(sections, renderReport(m.report, m.width))
		}
	}

	help := helpStyle.Render("↑/↓: Navigate • Enter: Select/Search • Esc: Dismiss • Ctrl+C: Quit")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// viewSuggestions renders the dropdown under the search box.
func (m Model) viewSuggestions() string {
	switch m.flow.State() {
	case suggest.Querying:
		return suggestionStyle.Render(mutedStyle.Render("Searching..."))
	case suggest.Showing:
		if msg := m.flow.Message(); msg != "" {
			return suggestionStyle.Render(mutedStyle.Render(msg))
		}
		var lines []string
		for i, p := range m.flow.Places() {
			line := fmt.Sprintf("%s %s", p.Name, mutedStyle.Render(p.Details()))
			if i == m.cursor {
				lines = append(lines, selectedSuggestionStyle.Render("› "+line))
			} else {
				lines = append(lines, suggestionStyle.Render(line))
			}
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}
	return ""
}
