package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	activeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("118"))
	cursorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	systemStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("214"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	spinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
)
