package ui

import "github.com/charmbracelet/lipgloss"

// palette holds the shared [lipgloss.Style] set for the TUI.
type palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
}

var styles = palette{
	title: lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true).MarginBottom(1),
	ok:    lipgloss.NewStyle().Foreground(lipgloss.Color("#1DB954")).Bold(true),
	err:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true),
	warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")),
}
