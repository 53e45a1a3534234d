package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"twstock-advisor/internal/domain"
)

const maxSearchRows = 15

// Search message types.
type searchResultsMsg []domain.StockMetadata
type searchErrMsg struct{ err error }
type stockDetailMsg domain.Recommendation
type stockDetailErrMsg struct{ err error }

// SearchModel looks stocks up by keyword. Enter with text searches; enter on
// an empty input analyzes the highlighted result.
type SearchModel struct {
	services Services
	input    textinput.Model
	spinner  spinner.Model
	results  []domain.StockMetadata
	cursor   int
	detail   *domain.Recommendation
	query    string
	waiting  bool
	err      error
	width    int
	height   int
}

func NewSearchModel(svc Services) SearchModel {
	ti := textinput.New()
	ti.Placeholder = "Code or name, e.g. 2330 or 台積"
	ti.CharLimit = 40
	ti.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(SpinnerColor)

	return SearchModel{
		services: svc,
		input:    ti,
		spinner:  sp,
	}
}

func (m SearchModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m SearchModel) Update(msg tea.Msg) (SearchModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case searchResultsMsg:
		m.results = []domain.StockMetadata(msg)
		m.cursor = 0
		m.detail = nil
		m.waiting = false
		m.err = nil
		return m, nil

	case stockDetailMsg:
		rec := domain.Recommendation(msg)
		m.detail = &rec
		m.waiting = false
		m.err = nil
		return m, nil

	case searchErrMsg:
		m.waiting = false
		m.err = msg.err
		return m, nil

	case stockDetailErrMsg:
		m.waiting = false
		m.detail = nil
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case key.Matches(msg, DefaultKeyMap.Down):
			if m.cursor < len(m.results)-1 {
				m.cursor++
			}
			return m, nil
		case msg.Type == tea.KeyEnter && !m.waiting:
			text := strings.TrimSpace(m.input.Value())
			if text != "" {
				m.query = text
				m.input.SetValue("")
				m.waiting = true
				return m, tea.Batch(m.searchCmd(text), m.spinner.Tick)
			}
			if len(m.results) > 0 {
				m.waiting = true
				return m, tea.Batch(m.analyzeCmd(m.results[m.cursor].Code), m.spinner.Tick)
			}
			return m, nil
		}

	case spinner.TickMsg:
		if m.waiting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.waiting {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m SearchModel) View() string {
	sections := []string{
		HeaderStyle.Render("  Search stocks"),
		"  " + m.input.View(),
		SubtextStyle.Render("  " + strings.Repeat("─", max(10, m.width-6))),
	}

	switch {
	case m.waiting:
		sections = append(sections, fmt.Sprintf("  %s Working...", m.spinner.View()))
	case m.err != nil:
		sections = append(sections, ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
	}

	if m.query != "" && len(m.results) == 0 && !m.waiting && m.err == nil {
		sections = append(sections, SubtextStyle.Render(fmt.Sprintf("  No stocks match %q", m.query)))
	}
	start := 0
	if m.cursor >= maxSearchRows {
		start = m.cursor - maxSearchRows + 1
	}
	for i := start; i < len(m.results) && i < start+maxSearchRows; i++ {
		line := "  " + FormatStock(m.results[i])
		if i == m.cursor {
			line = SelectedStyle.Render(line)
		}
		sections = append(sections, line)
	}
	if len(m.results) > 0 {
		sections = append(sections, SubtextStyle.Render(fmt.Sprintf("  %d results · ↑/↓ select · enter on empty input to analyze", len(m.results))))
	}

	if m.detail != nil {
		sections = append(sections, BorderStyle.Width(max(20, m.width-2)).Render(RenderDetail(*m.detail)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *SearchModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.input.Width = max(10, w-6)
}

func (m *SearchModel) Focus() {
	m.input.Focus()
}

func (m *SearchModel) Blur() {
	m.input.Blur()
}

// Results returns the current results (for testing).
func (m SearchModel) Results() []domain.StockMetadata { return m.results }

// Detail returns the analyzed stock, if any (for testing).
func (m SearchModel) Detail() *domain.Recommendation { return m.detail }

// IsWaiting returns whether a request is in flight (for testing).
func (m SearchModel) IsWaiting() bool { return m.waiting }

func (m SearchModel) searchCmd(keyword string) tea.Cmd {
	svc := m.services
	return func() tea.Msg {
		if svc.Analyzer == nil {
			return searchErrMsg{err: fmt.Errorf("analysis service not available")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		stocks, err := svc.Analyzer.SearchStocksByKeyword(ctx, keyword)
		if err != nil {
			return searchErrMsg{err: err}
		}
		return searchResultsMsg(stocks)
	}
}

func (m SearchModel) analyzeCmd(code string) tea.Cmd {
	svc := m.services
	return func() tea.Msg {
		if svc.Analyzer == nil {
			return stockDetailErrMsg{err: fmt.Errorf("analysis service not available")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		rec, err := svc.Analyzer.AnalyzeStock(ctx, code, svc.months())
		if err != nil {
			return stockDetailErrMsg{err: err}
		}
		return stockDetailMsg(rec)
	}
}
