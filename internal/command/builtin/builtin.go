// Package builtin ships the framework's stock commands. Each command is a
// stateless handler; everything it needs arrives through the execution
// context.
package builtin

import (
	"fmt"
	"time"

	"github.com/Irfan430/wp-bot/internal/command"
)

// Set is the discovery source for the stock commands.
type Set struct{}

// Commands returns the stock handlers.
func (Set) Commands() []command.Handler {
	return []command.Handler{
		pingCommand{},
		helpCommand{},
		prefixCommand{},
		languageCommand{},
		banCommand{},
		unbanCommand{},
		dailyCommand{},
		balanceCommand{},
	}
}

// formatDuration renders a duration as 1d2h3m4s, dropping leading zero units.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	seconds := d - minutes*time.Minute

	switch {
	case days > 0:
		return fmt.Sprintf("%dd%dh%dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh%dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm%ds", minutes, seconds/time.Second)
	default:
		return fmt.Sprintf("%ds", seconds/time.Second)
	}
}
