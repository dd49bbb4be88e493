package receipts

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	paperWidth  = 30
	dateLayout  = "02-01-2006"
	clockLayout = "3:04 pm"
)

// Render lays the receipt out for a narrow receipt printer.
func Render(r Receipt) string {
	var b strings.Builder
	stars := strings.Repeat("*", paperWidth)
	rule := strings.Repeat("-", paperWidth)

	b.WriteString(stars + "\n")
	b.WriteString(center("INVOICE") + "\n")
	b.WriteString(stars + "\n")

	b.WriteString(center(r.Terminal) + "\n")
	b.WriteString(columns(r.IssuedAt.Format(dateLayout), r.IssuedAt.Format(clockLayout)) + "\n")
	if r.ClientName != "" {
		b.WriteString(truncate("Client: "+r.ClientName, paperWidth) + "\n")
	}
	b.WriteString(rule + "\n")

	for _, line := range r.Lines {
		left := fmt.Sprintf("%d x %s", line.Quantity, line.Name)
		b.WriteString(columns(left, line.Amount.StringFixed(2)) + "\n")
	}

	b.WriteString(rule + "\n")
	b.WriteString(columns("Total Amount:", r.Total.StringFixed(2)) + "\n")
	return b.String()
}

// columns left-aligns left and right-aligns right on one paper-width row,
// shortening left when both do not fit.
func columns(left, right string) string {
	rightWidth := utf8.RuneCountInString(right)
	room := paperWidth - rightWidth - 1
	if room < 1 {
		return left + " " + right
	}
	left = truncate(left, room)
	gap := paperWidth - utf8.RuneCountInString(left) - rightWidth
	return left + strings.Repeat(" ", gap) + right
}

func center(text string) string {
	pad := (paperWidth - utf8.RuneCountInString(text)) / 2
	if pad <= 0 {
		return text
	}
	return strings.Repeat(" ", pad) + text
}

func truncate(text string, width int) string {
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "~"
}
