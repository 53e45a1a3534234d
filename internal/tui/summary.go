package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"twstock-advisor/internal/domain"
)

type summaryMsg domain.RecommendationSummary
type summaryErrMsg struct{ err error }

// SummaryModel shows the watchlist split into buy, sell and hold columns.
// It loads on first activation and on R.
type SummaryModel struct {
	services Services
	summary  *domain.RecommendationSummary
	loading  bool
	err      error
	width    int
	height   int
}

func NewSummaryModel(svc Services) SummaryModel {
	return SummaryModel{services: svc}
}

func (m SummaryModel) Init() tea.Cmd { return nil }

// Activate starts the first load if nothing is loaded yet.
func (m SummaryModel) Activate() (SummaryModel, tea.Cmd) {
	if m.summary != nil || m.loading || len(m.services.Watchlist) == 0 {
		return m, nil
	}
	m.loading = true
	return m, m.fetchCmd()
}

func (m SummaryModel) Update(msg tea.Msg) (SummaryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case summaryMsg:
		s := domain.RecommendationSummary(msg)
		m.summary = &s
		m.loading = false
		m.err = nil
		return m, nil

	case summaryErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, DefaultKeyMap.Refresh) && len(m.services.Watchlist) > 0 {
			m.loading = true
			return m, m.fetchCmd()
		}
	}
	return m, nil
}

func (m SummaryModel) View() string {
	if len(m.services.Watchlist) == 0 {
		return SubtextStyle.Render("  Nothing to summarize: the watchlist is empty.")
	}
	if m.summary == nil {
		if m.err != nil {
			return ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err))
		}
		return SubtextStyle.Render("  Building summary...")
	}

	s := m.summary
	header := HeaderStyle.Render(fmt.Sprintf("  %d analyzed · buy %d · sell %d · hold %d · failed %d",
		s.TotalAnalyzed, s.BuyCount, s.SellCount, s.HoldCount, s.TotalErrors))

	colWidth := max(22, (m.width-8)/3)
	columns := lipgloss.JoinHorizontal(lipgloss.Top,
		RenderGroup("BUY", domain.ActionBuy, s.BuyRecommendations, colWidth),
		RenderGroup("SELL", domain.ActionSell, s.SellRecommendations, colWidth),
		RenderGroup("HOLD", domain.ActionHold, s.HoldRecommendations, colWidth),
	)

	sections := []string{header, columns}
	if len(s.Errors) > 0 {
		errLines := make([]string, 0, len(s.Errors))
		for _, e := range s.Errors {
			errLines = append(errLines, "  "+FormatBatchError(e))
		}
		sections = append(sections, strings.Join(errLines, "\n"))
	}
	if m.loading {
		sections = append(sections, SubtextStyle.Render("  refreshing..."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *SummaryModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Summary returns the loaded summary or nil (for testing).
func (m SummaryModel) Summary() *domain.RecommendationSummary { return m.summary }

func (m SummaryModel) fetchCmd() tea.Cmd {
	svc := m.services
	return func() tea.Msg {
		if svc.Analyzer == nil {
			return summaryErrMsg{err: fmt.Errorf("analysis service not available")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		summary, err := svc.Analyzer.GetRecommendationSummary(ctx, svc.Watchlist, svc.months())
		if err != nil {
			return summaryErrMsg{err: err}
		}
		return summaryMsg(summary)
	}
}
