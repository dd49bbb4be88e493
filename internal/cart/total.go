package cart

import "github.com/shopspring/decimal"

// ComputeTotal sums UnitPrice × Quantity over lines. The empty cart totals zero.
func ComputeTotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total
}
