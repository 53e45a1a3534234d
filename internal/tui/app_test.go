package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"twstock-advisor/internal/domain"
)

// --- stub services ---

type stubAnalyzer struct {
	batch       domain.BatchResult
	summary     domain.RecommendationSummary
	stocks      []domain.StockMetadata
	rec         domain.Recommendation
	err         error
	lastIDs     []string
	lastMonths  int
	lastKeyword string
}

func (s *stubAnalyzer) AnalyzeStock(_ context.Context, stockID string, months int) (domain.Recommendation, error) {
	s.lastIDs, s.lastMonths = []string{stockID}, months
	return s.rec, s.err
}

func (s *stubAnalyzer) AnalyzeMultipleStocks(_ context.Context, stockIDs []string, months int) (domain.BatchResult, error) {
	s.lastIDs, s.lastMonths = stockIDs, months
	return s.batch, s.err
}

func (s *stubAnalyzer) GetRecommendationSummary(_ context.Context, stockIDs []string, months int) (domain.RecommendationSummary, error) {
	s.lastIDs, s.lastMonths = stockIDs, months
	return s.summary, s.err
}

func (s *stubAnalyzer) SearchStocksByKeyword(_ context.Context, keyword string) ([]domain.StockMetadata, error) {
	s.lastKeyword = keyword
	return s.stocks, s.err
}

var (
	recBuy = domain.Recommendation{
		StockID: "2330", Name: "台積電", Industry: "半導體業", Market: domain.MarketListed,
		AsOf: "2024-03-08", CurrentPrice: 612, Trend: domain.TrendStrongUp,
		Action: domain.ActionBuy, Confidence: 45,
		Signals:   domain.SignalSet{RSI: domain.RSIOverbought, MACD: domain.MACDGoldenCross, Bollinger: domain.BollingerUpperBreach, Volume: domain.VolumeNormal},
		Rationale: []string{"MACD golden cross"},
	}
	recHold = domain.Recommendation{
		StockID: "2317", Name: "鴻海", Trend: domain.TrendSideways, Action: domain.ActionHold, Confidence: 30,
		Signals: domain.SignalSet{RSI: domain.RSINormal, MACD: domain.MACDNone, Bollinger: domain.BollingerNone, Volume: domain.VolumeNormal},
	}
)

func testServices() Services {
	return Services{
		Analyzer: &stubAnalyzer{
			batch: domain.BatchResult{
				Results:       []domain.Recommendation{recBuy, recHold},
				Errors:        []domain.BatchError{{StockID: "9999", Error: "not found: stock 9999 is not in the catalog", Kind: domain.KindNotFound}},
				TotalAnalyzed: 2,
				TotalErrors:   1,
			},
			summary: domain.RecommendationSummary{
				TotalAnalyzed:       2,
				BuyCount:            1,
				HoldCount:           1,
				BuyRecommendations:  []domain.Recommendation{recBuy},
				HoldRecommendations: []domain.Recommendation{recHold},
				AllResults:          []domain.Recommendation{recBuy, recHold},
			},
			stocks: []domain.StockMetadata{{Code: "2330", Name: "台積電", Industry: "半導體業", Market: domain.MarketListed}},
			rec:    recBuy,
		},
		Watchlist: []string{"2330", "2317", "9999"},
		Months:    6,
		UserID:    1,
		Username:  "testuser",
	}
}

func TestAppModelInitialTab(t *testing.T) {
	m := NewAppModel(testServices())
	if m.ActiveTab() != TabWatchlist {
		t.Fatalf("expected TabWatchlist, got %d", m.ActiveTab())
	}
}

func TestAppModelTabSwitchByNumber(t *testing.T) {
	m := NewAppModel(testServices())
	m.SetSize(120, 40)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	app := updated.(AppModel)
	if app.ActiveTab() != TabSummary {
		t.Fatalf("expected TabSummary after pressing 2, got %d", app.ActiveTab())
	}
	if cmd == nil {
		t.Fatal("expected summary load command on first activation")
	}

	updated, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	app = updated.(AppModel)
	if app.ActiveTab() != TabSearch {
		t.Fatalf("expected TabSearch after pressing 3, got %d", app.ActiveTab())
	}

	// Digits are typed into the search box, not treated as tab switches.
	updated, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	app = updated.(AppModel)
	if app.ActiveTab() != TabSearch {
		t.Fatalf("expected to stay on TabSearch while typing, got %d", app.ActiveTab())
	}
	if got := app.search.input.Value(); got != "1" {
		t.Fatalf("expected digit in search input, got %q", got)
	}
}

func TestAppModelTabSwitchByTab(t *testing.T) {
	m := NewAppModel(testServices())
	m.SetSize(120, 40)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	app := updated.(AppModel)
	if app.ActiveTab() != TabSummary {
		t.Fatalf("expected TabSummary after Tab, got %d", app.ActiveTab())
	}

	updated, _ = app.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	app = updated.(AppModel)
	if app.ActiveTab() != TabWatchlist {
		t.Fatalf("expected TabWatchlist after Shift+Tab, got %d", app.ActiveTab())
	}

	updated, _ = app.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	app = updated.(AppModel)
	if app.ActiveTab() != TabSearch {
		t.Fatalf("expected wrap to TabSearch, got %d", app.ActiveTab())
	}
}

func TestAppModelQuit(t *testing.T) {
	m := NewAppModel(testServices())
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if view := updated.(AppModel).View(); view != "Goodbye!\n" {
		t.Fatalf("unexpected view after quit: %q", view)
	}
}

func TestAppModelRoutesDataMessages(t *testing.T) {
	svc := testServices()
	m := NewAppModel(svc)
	m.SetSize(120, 40)

	// Watchlist data arrives while another tab is active.
	m.activeTab = TabSearch
	updated, _ := m.Update(watchlistMsg(svc.Analyzer.(*stubAnalyzer).batch))
	app := updated.(AppModel)
	if len(app.watchlist.Batch().Results) != 2 {
		t.Fatalf("expected watchlist to receive batch, got %+v", app.watchlist.Batch())
	}
}

func TestAppModelWindowResize(t *testing.T) {
	m := NewAppModel(testServices())

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 50})
	app := updated.(AppModel)
	if app.width != 100 || app.height != 50 {
		t.Fatalf("expected 100x50, got %dx%d", app.width, app.height)
	}
}

func TestAppModelViewRendersWithoutPanic(t *testing.T) {
	m := NewAppModel(testServices())
	m.SetSize(120, 40)

	for _, tab := range []Tab{TabWatchlist, TabSummary, TabSearch} {
		m.activeTab = tab
		view := m.View()
		if view == "" {
			t.Fatalf("expected non-empty view for tab %d", tab)
		}
		if !strings.Contains(view, "testuser") {
			t.Fatalf("expected username in tab bar for tab %d", tab)
		}
	}
}
