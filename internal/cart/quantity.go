package cart

import (
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
)

// ParseQuantity converts free-form quantity text into a positive integer.
// Blank, non-numeric, fractional, zero and negative input are all rejected;
// nothing is coerced to a default.
func ParseQuantity(text string) (int, error) {
	trimmed := strings.TrimSpace(text)
	qty, err := strconv.Atoi(trimmed)
	if err != nil || qty <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be a positive whole number").
			WithDetails(map[string]any{"input": text})
	}
	return qty, nil
}
