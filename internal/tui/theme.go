package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Tab bar styles
	TabStyle       = lipgloss.NewStyle().Padding(0, 2)
	ActiveTabStyle = TabStyle.Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))
	InactiveTabStyle = TabStyle.
				Foreground(lipgloss.Color("#888888"))

	// Action colors follow the local convention: red for buy, green for sell.
	ActionBuyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	ActionSellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00C853")).Bold(true)
	ActionHoldStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))

	// Confidence colors
	ConfidenceHighStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")).Bold(true)
	ConfidenceMedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	ConfidenceLowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

	// General styles
	HeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA"))
	SubtextStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	BorderStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#555555"))
	ErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	SelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#444444"))
	SpinnerColor  = lipgloss.Color("#7D56F4")
)
