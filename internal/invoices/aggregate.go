package invoices

// mergeKey groups delivery lines that bill as one invoice line. The unit price
// is part of the key, so the same item delivered at two prices stays on two
// lines.
type mergeKey struct {
	description string
	unit        string
	unitPrice   float64
}

// MergeDeliveryLines folds the lines of the given deliveries into invoice
// lines, summing quantities per (description, unit, unit price) group. Line
// numbers follow first-encounter order over the input deliveries, then over
// each delivery's lines. Every merged line records one contribution entry per
// delivery that fed it.
func MergeDeliveryLines(sources []SourceDelivery) []Line {
	index := make(map[mergeKey]int)
	var lines []Line

	for _, d := range sources {
		for _, dl := range d.Lines {
			key := mergeKey{description: dl.Description, unit: dl.Unit, unitPrice: dl.UnitPrice}
			i, ok := index[key]
			if !ok {
				i = len(lines)
				index[key] = i
				lines = append(lines, Line{
					LineNumber:  i + 1,
					Description: dl.Description,
					Unit:        dl.Unit,
					UnitPrice:   dl.UnitPrice,
				})
			}
			lines[i].Quantity += dl.DeliveredQuantity

			// One contribution entry per delivery, even when two of its lines
			// share the merge key.
			if n := len(lines[i].Sources); n > 0 && lines[i].Sources[n-1].DeliveryID == d.ID {
				lines[i].Sources[n-1].Quantity += dl.DeliveredQuantity
			} else {
				lines[i].Sources = append(lines[i].Sources, SourceContribution{
					DeliveryID:     d.ID,
					DeliveryNumber: d.Number,
					Quantity:       dl.DeliveredQuantity,
				})
			}
		}
	}
	return lines
}
