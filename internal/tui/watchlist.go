package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"twstock-advisor/internal/domain"
)

const (
	watchlistRefreshInterval = 5 * time.Minute
	fetchTimeout             = time.Minute
)

// Watchlist message types.
type watchlistMsg domain.BatchResult
type watchlistErrMsg struct{ err error }
type watchlistTickMsg time.Time

// WatchlistModel shows one row per watchlist stock and refreshes periodically.
type WatchlistModel struct {
	services  Services
	batch     domain.BatchResult
	loading   bool
	err       error
	updatedAt time.Time
	width     int
	height    int
}

func NewWatchlistModel(svc Services) WatchlistModel {
	return WatchlistModel{
		services: svc,
		loading:  len(svc.Watchlist) > 0,
	}
}

func (m WatchlistModel) Init() tea.Cmd {
	if len(m.services.Watchlist) == 0 {
		return nil
	}
	return tea.Batch(m.fetchCmd(), m.tickCmd())
}

func (m WatchlistModel) Update(msg tea.Msg) (WatchlistModel, tea.Cmd) {
	switch msg := msg.(type) {
	case watchlistMsg:
		m.batch = domain.BatchResult(msg)
		m.loading = false
		m.err = nil
		m.updatedAt = time.Now()
		return m, nil

	case watchlistErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case watchlistTickMsg:
		return m, tea.Batch(m.fetchCmd(), m.tickCmd())

	case tea.KeyMsg:
		if key.Matches(msg, DefaultKeyMap.Refresh) && len(m.services.Watchlist) > 0 {
			m.loading = true
			return m, m.fetchCmd()
		}
	}
	return m, nil
}

func (m WatchlistModel) View() string {
	if len(m.services.Watchlist) == 0 {
		return SubtextStyle.Render("  Watchlist is empty. Set WATCHLIST or ask an admin to assign stocks to your account.")
	}
	if m.loading && len(m.batch.Results) == 0 {
		return SubtextStyle.Render(fmt.Sprintf("  Analyzing %d stocks...", len(m.services.Watchlist)))
	}
	if m.err != nil && len(m.batch.Results) == 0 {
		return ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err))
	}

	lines := []string{
		HeaderStyle.Render(fmt.Sprintf("  Watchlist (%d months)", m.services.months())),
		SubtextStyle.Render("  Code   Name         Close  Trend       Act   Conf  RSI    Signals"),
		SubtextStyle.Render("  " + strings.Repeat("─", max(10, m.width-6))),
	}
	for _, r := range m.batch.Results {
		lines = append(lines, "  "+FormatRecommendation(r))
	}
	for _, e := range m.batch.Errors {
		lines = append(lines, "  "+FormatBatchError(e))
	}
	footer := fmt.Sprintf("  updated %s · R to refresh", m.updatedAt.Format("15:04:05"))
	if m.loading {
		footer = "  refreshing..."
	}
	lines = append(lines, "", SubtextStyle.Render(footer))

	return BorderStyle.Width(max(20, m.width-2)).Render(strings.Join(lines, "\n"))
}

func (m *WatchlistModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Batch returns the latest batch result (for testing).
func (m WatchlistModel) Batch() domain.BatchResult { return m.batch }

func (m WatchlistModel) fetchCmd() tea.Cmd {
	svc := m.services
	return func() tea.Msg {
		if svc.Analyzer == nil {
			return watchlistErrMsg{err: fmt.Errorf("analysis service not available")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		batch, err := svc.Analyzer.AnalyzeMultipleStocks(ctx, svc.Watchlist, svc.months())
		if err != nil {
			return watchlistErrMsg{err: err}
		}
		return watchlistMsg(batch)
	}
}

func (m WatchlistModel) tickCmd() tea.Cmd {
	return tea.Tick(watchlistRefreshInterval, func(t time.Time) tea.Msg {
		return watchlistTickMsg(t)
	})
}
