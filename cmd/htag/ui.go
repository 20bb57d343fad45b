package main

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor   = lipgloss.Color("#3b82f6")
	secondaryColor = lipgloss.Color("#64748b")
	successColor   = lipgloss.Color("#10b981")
	warningColor   = lipgloss.Color("#f59e0b")
	errorColor     = lipgloss.Color("#ef4444")
	mutedColor     = lipgloss.Color("#94a3b8")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	sectionStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true).
			MarginTop(1)

	tagStyle = lipgloss.NewStyle().
			Foreground(primaryColor)

	attrStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	textStyle = lipgloss.NewStyle().
			Foreground(successColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)
)

// siteStyles colors fixture sites by kind
var siteStyles = map[string]lipgloss.Style{
	"value": mutedStyle,
	"text":  textStyle,
	"ref":   attrStyle,
	"slot":  tagStyle,
	"list":  titleStyle,
}
