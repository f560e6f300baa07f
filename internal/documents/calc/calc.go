// Package calc holds the pure line-item arithmetic shared by quotes, orders,
// deliveries and invoices. Stored totals must always be re-derivable from the
// stored lines plus the discount percentage through these functions.
package calc

// Line is the minimal shape needed to total a document.
type Line struct {
	Quantity  float64
	UnitPrice float64
}

// LineTotal returns quantity times unit price.
func LineTotal(quantity, unitPrice float64) float64 {
	return quantity * unitPrice
}

// GrossTotal sums the line totals.
func GrossTotal(lines []Line) float64 {
	var gross float64
	for _, l := range lines {
		gross += LineTotal(l.Quantity, l.UnitPrice)
	}
	return gross
}

// DiscountAmount applies a percentage discount to a gross total.
func DiscountAmount(gross, discountPercent float64) float64 {
	return gross * discountPercent / 100
}

// NetTotal subtracts the discount amount from the gross total.
func NetTotal(gross, discountAmount float64) float64 {
	return gross - discountAmount
}

// BalanceRemaining returns the outstanding amount on an invoice, floored at zero.
func BalanceRemaining(net, amountPaid float64) float64 {
	if balance := net - amountPaid; balance > 0 {
		return balance
	}
	return 0
}

// Totals composes the full document computation.
func Totals(lines []Line, discountPercent float64) (gross, discount, net float64) {
	gross = GrossTotal(lines)
	discount = DiscountAmount(gross, discountPercent)
	net = NetTotal(gross, discount)
	return gross, discount, net
}
