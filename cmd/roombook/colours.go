package main

import "github.com/jrsteele09/go-roombook/calendar"

const (
	// Standard colors
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	Gray   = "\033[90m" // Bright black, often appears as gray

	ResetColor = "\033[0m" // Reset to default color
)

// eventColors maps calendar event colors onto the closest terminal color.
var eventColors = map[string]string{
	calendar.ColorConfirmed: Green,
	calendar.ColorCancelled: Red,
	calendar.ColorPending:   Yellow,
	calendar.ColorDefault:   Gray,
}

func colourise(hex, text string) string {
	c, ok := eventColors[hex]
	if !ok {
		c = Gray
	}
	return c + text + ResetColor
}
