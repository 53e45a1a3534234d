package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Tab represents a screen tab in the TUI.
type Tab int

const (
	TabWatchlist Tab = iota
	TabSummary
	TabSearch
)

var tabNames = []string{"1:Watchlist", "2:Summary", "3:Search"}

// AppModel is the root Bubble Tea model that manages tab navigation and child screens.
type AppModel struct {
	services  Services
	activeTab Tab
	watchlist WatchlistModel
	summary   SummaryModel
	search    SearchModel
	width     int
	height    int
	quitting  bool
}

func NewAppModel(svc Services) AppModel {
	return AppModel{
		services:  svc,
		activeTab: TabWatchlist,
		watchlist: NewWatchlistModel(svc),
		summary:   NewSummaryModel(svc),
		search:    NewSearchModel(svc),
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.watchlist.Init(),
		m.summary.Init(),
		m.search.Init(),
	)
}

// Update handles incoming messages, routing to the active tab.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.propagateSize()
		return m, nil

	case tea.KeyMsg:
		// The search tab owns the keyboard except for tab switching and ctrl+c,
		// since stock codes are digits.
		if m.activeTab != TabSearch || msg.Type == tea.KeyTab || msg.Type == tea.KeyShiftTab || msg.String() == "ctrl+c" {
			switch {
			case key.Matches(msg, DefaultKeyMap.Quit):
				m.quitting = true
				return m, tea.Quit

			case key.Matches(msg, DefaultKeyMap.Tab):
				return m.switchTab(Tab((int(m.activeTab) + 1) % len(tabNames)))

			case key.Matches(msg, DefaultKeyMap.ShiftTab):
				next := int(m.activeTab) - 1
				if next < 0 {
					next = len(tabNames) - 1
				}
				return m.switchTab(Tab(next))

			case msg.String() == "1":
				return m.switchTab(TabWatchlist)
			case msg.String() == "2":
				return m.switchTab(TabSummary)
			case msg.String() == "3":
				return m.switchTab(TabSearch)
			}
		}
	}

	var cmd tea.Cmd
	switch msg.(type) {
	case watchlistMsg, watchlistErrMsg, watchlistTickMsg:
		m.watchlist, cmd = m.watchlist.Update(msg)

	case summaryMsg, summaryErrMsg:
		m.summary, cmd = m.summary.Update(msg)

	case searchResultsMsg, searchErrMsg, stockDetailMsg, stockDetailErrMsg:
		m.search, cmd = m.search.Update(msg)

	default:
		// Keyboard and other messages go to the active tab only.
		switch m.activeTab {
		case TabWatchlist:
			m.watchlist, cmd = m.watchlist.Update(msg)
		case TabSummary:
			m.summary, cmd = m.summary.Update(msg)
		case TabSearch:
			m.search, cmd = m.search.Update(msg)
		}
	}
	return m, cmd
}

// View renders the tab bar and active screen.
func (m AppModel) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var content string
	switch m.activeTab {
	case TabWatchlist:
		content = m.watchlist.View()
	case TabSummary:
		content = m.summary.View()
	case TabSearch:
		content = m.search.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabBar(), content)
}

// SetSize updates dimensions on the root model and propagates to children.
func (m *AppModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.propagateSize()
}

// ActiveTab returns the currently active tab (for testing).
func (m AppModel) ActiveTab() Tab { return m.activeTab }

func (m AppModel) switchTab(tab Tab) (AppModel, tea.Cmd) {
	if tab == TabSearch && m.activeTab != TabSearch {
		m.search.Focus()
	} else if m.activeTab == TabSearch && tab != TabSearch {
		m.search.Blur()
	}
	m.activeTab = tab

	var cmd tea.Cmd
	if tab == TabSummary {
		m.summary, cmd = m.summary.Activate()
	}
	return m, cmd
}

func (m *AppModel) propagateSize() {
	contentHeight := m.height - 2 // tab bar
	m.watchlist.SetSize(m.width, contentHeight)
	m.summary.SetSize(m.width, contentHeight)
	m.search.SetSize(m.width, contentHeight)
}

func (m AppModel) renderTabBar() string {
	var tabs []string
	for i, name := range tabNames {
		if Tab(i) == m.activeTab {
			tabs = append(tabs, ActiveTabStyle.Render(name))
		} else {
			tabs = append(tabs, InactiveTabStyle.Render(name))
		}
	}
	if m.services.Username != "" {
		tabs = append(tabs, SubtextStyle.Render("  "+m.services.Username))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}
