package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"twstock-advisor/internal/domain"
)

// FormatRecommendation renders a recommendation as a single table row.
func FormatRecommendation(r domain.Recommendation) string {
	return fmt.Sprintf("%-6s %-8s %9.2f  %-11s %s  %s  RSI %5.1f  %s",
		r.StockID,
		truncateName(r.Name, 8),
		r.CurrentPrice,
		string(r.Trend),
		actionStyle(r.Action).Render(fmt.Sprintf("%-4s", strings.ToUpper(string(r.Action)))),
		confidenceStyle(r.Confidence).Render(fmt.Sprintf("%3d", r.Confidence)),
		r.Indicators.RSI,
		formatSignals(r.Signals),
	)
}

// FormatStock renders catalog metadata as a single line.
func FormatStock(m domain.StockMetadata) string {
	return fmt.Sprintf("%-6s %-10s %-12s %s", m.Code, truncateName(m.Name, 10), m.Industry, m.Market)
}

// FormatBatchError renders a failed batch item.
func FormatBatchError(e domain.BatchError) string {
	return ErrorStyle.Render(fmt.Sprintf("%-6s %s", e.StockID, e.Kind)) + SubtextStyle.Render("  "+e.Error)
}

// RenderDetail renders the full recommendation with levels and rationale.
func RenderDetail(r domain.Recommendation) string {
	lines := []string{
		HeaderStyle.Render(fmt.Sprintf("%s %s", r.StockID, r.Name)) + SubtextStyle.Render(fmt.Sprintf("  %s  %s  as of %s", r.Industry, r.Market, r.AsOf)),
		fmt.Sprintf("Action %s  confidence %s  trend %s",
			actionStyle(r.Action).Render(strings.ToUpper(string(r.Action))),
			confidenceStyle(r.Confidence).Render(fmt.Sprintf("%d", r.Confidence)),
			r.Trend),
		fmt.Sprintf("Close %.2f  support %.2f  resistance %.2f  volatility %.2f%%", r.CurrentPrice, r.Support, r.Resistance, r.Volatility),
		fmt.Sprintf("MACD %.3f / %.3f  Bollinger %.2f-%.2f  volume x%.2f",
			r.Indicators.MACD.Line, r.Indicators.MACD.Signal,
			r.Indicators.Bollinger.Lower, r.Indicators.Bollinger.Upper,
			r.Indicators.VolumeRatio),
		formatSignals(r.Signals),
	}
	for _, reason := range r.Rationale {
		lines = append(lines, SubtextStyle.Render("• "+reason))
	}
	return strings.Join(lines, "\n")
}

// RenderGroup renders one action group of a summary as a bordered column.
func RenderGroup(title string, action domain.Action, recs []domain.Recommendation, width int) string {
	lines := []string{actionStyle(action).Render(fmt.Sprintf("%s (%d)", title, len(recs)))}
	for _, r := range recs {
		lines = append(lines, fmt.Sprintf("%-6s %-8s %3d", r.StockID, truncateName(r.Name, 8), r.Confidence))
	}
	if len(recs) == 0 {
		lines = append(lines, SubtextStyle.Render("none"))
	}
	return BorderStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func formatSignals(s domain.SignalSet) string {
	var parts []string
	if s.FourPoint != domain.FourPointNone && s.FourPoint != "" {
		parts = append(parts, "four_point_"+string(s.FourPoint))
	}
	if s.RSI != domain.RSINormal && s.RSI != "" {
		parts = append(parts, string(s.RSI))
	}
	if s.MACD != domain.MACDNone && s.MACD != "" {
		parts = append(parts, string(s.MACD))
	}
	if s.Bollinger != domain.BollingerNone && s.Bollinger != "" {
		parts = append(parts, string(s.Bollinger))
	}
	if s.Volume == domain.VolumeSurge {
		parts = append(parts, "volume_surge")
	}
	if len(parts) == 0 {
		return SubtextStyle.Render("no signals")
	}
	return strings.Join(parts, " ")
}

func actionStyle(a domain.Action) lipgloss.Style {
	switch a {
	case domain.ActionBuy:
		return ActionBuyStyle
	case domain.ActionSell:
		return ActionSellStyle
	default:
		return ActionHoldStyle
	}
}

func confidenceStyle(c int) lipgloss.Style {
	switch {
	case c >= 60:
		return ConfidenceHighStyle
	case c >= 35:
		return ConfidenceMedStyle
	default:
		return ConfidenceLowStyle
	}
}

// truncateName cuts s to at most n runes.
func truncateName(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
