package bot

import (
	"fmt"
	"strings"

	"twstock-advisor/internal/domain"
)

func formatMetadata(m domain.StockMetadata) string {
	return fmt.Sprintf("%s %s\nIndustry: %s\nMarket: %s", m.Code, m.Name, m.Industry, m.Market)
}

func formatRecommendation(r domain.Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s)\n", r.StockID, r.Name, r.Industry)
	fmt.Fprintf(&b, "As of %s, close %.2f\n", r.AsOf, r.CurrentPrice)
	fmt.Fprintf(&b, "Action: %s  Confidence: %d\n", strings.ToUpper(string(r.Action)), r.Confidence)
	fmt.Fprintf(&b, "Trend: %s\n", r.Trend)
	fmt.Fprintf(&b, "Support %.2f / Resistance %.2f  Volatility %.2f%%\n", r.Support, r.Resistance, r.Volatility)
	fmt.Fprintf(&b, "RSI %.1f (%s)  MACD %s  Bollinger %s  Volume %s  Four point %s\n",
		r.Indicators.RSI, r.Signals.RSI, r.Signals.MACD, r.Signals.Bollinger, r.Signals.Volume, r.Signals.FourPoint)
	for _, reason := range r.Rationale {
		fmt.Fprintf(&b, "- %s\n", reason)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSummary(title string, s domain.RecommendationSummary) string {
	lines := []string{fmt.Sprintf("%s: %d analyzed, %d failed", title, s.TotalAnalyzed, s.TotalErrors)}
	lines = append(lines, formatGroup("BUY", s.BuyRecommendations))
	lines = append(lines, formatGroup("SELL", s.SellRecommendations))
	lines = append(lines, formatGroup("HOLD", s.HoldRecommendations))
	for _, e := range s.Errors {
		lines = append(lines, fmt.Sprintf("! %s: %s", e.StockID, e.Kind))
	}
	return strings.Join(lines, "\n")
}

func formatGroup(label string, recs []domain.Recommendation) string {
	if len(recs) == 0 {
		return label + ": none"
	}
	parts := make([]string, 0, len(recs))
	for _, r := range recs {
		parts = append(parts, fmt.Sprintf("%s %s (%d)", r.StockID, r.Name, r.Confidence))
	}
	return label + ": " + strings.Join(parts, ", ")
}

func formatStockList(stocks []domain.StockMetadata) string {
	lines := make([]string, 0, len(stocks)+1)
	lines = append(lines, fmt.Sprintf("%d stocks:", len(stocks)))
	for _, s := range stocks {
		lines = append(lines, fmt.Sprintf("%s %s  %s  %s", s.Code, s.Name, s.Industry, s.Market))
	}
	return strings.Join(lines, "\n")
}
