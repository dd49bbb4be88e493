package enums

import "fmt"

// PendingOp selects which pending-quantity map a cart action reads from.
type PendingOp string

const (
	PendingOpAdd    PendingOp = "add"
	PendingOpRemove PendingOp = "remove"
)

// IsValid reports whether the value is a known PendingOp.
func (o PendingOp) IsValid() bool {
	return o == PendingOpAdd || o == PendingOpRemove
}

// ParsePendingOp converts raw input into a PendingOp.
func ParsePendingOp(value string) (PendingOp, error) {
	op := PendingOp(value)
	if !op.IsValid() {
		return "", fmt.Errorf("invalid pending op %q", value)
	}
	return op, nil
}
