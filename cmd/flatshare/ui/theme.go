package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Flatshare theme. Small on purpose: a few styles and icons.

const (
	IconBroom    = "🧹"
	IconCalendar = "📅"
	IconBill     = "🧾"
	IconMoney    = "💶"
	IconDone     = "✅"
	IconHouse    = "🏠"
	IconInfo     = "ℹ️"
	IconWarn     = "⚠️"
	IconError    = "🧨"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)

	Panel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// Check renders a task checkbox.
func Check(done bool) string {
	if done {
		return Good.Render("[x]")
	}
	return Muted.Render("[ ]")
}

// TurnStatus renders the state of a cleaning turn.
func TurnStatus(done, editable bool) string {
	switch {
	case done:
		return Good.Render("done")
	case editable:
		return H2.Render("your turn")
	default:
		return Warn.Render("pending")
	}
}

// PaymentStatus renders whether a payment was accepted.
func PaymentStatus(accepted bool) string {
	if accepted {
		return Good.Render("accepted")
	}
	return Warn.Render("open")
}

// Money renders an amount with its currency.
func Money(amount string) string {
	return Gold.Render(amount + " EUR")
}
