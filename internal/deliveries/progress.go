package deliveries

// BuildProgress computes per-line fulfillment for an order from the deliveries
// referencing it. Deliveries with status CANCELED are excluded from the sums.
// The function is pure: calling it twice over the same inputs yields identical
// reports, and remaining quantity is always derived here, never stored.
func BuildProgress(order OrderRef, all []Delivery) ProgressReport {
	deliveredByLine := make(map[int]float64, len(order.Lines))
	for _, d := range all {
		if d.Status == StatusCanceled {
			continue
		}
		for _, l := range d.Lines {
			deliveredByLine[l.LineNumber] += l.DeliveredQuantity
		}
	}

	report := ProgressReport{
		OrderID:        order.ID,
		OrderNumber:    order.Number,
		Lines:          make([]LineProgress, 0, len(order.Lines)),
		FullyDelivered: len(order.Lines) > 0,
	}

	var percentSum float64
	for _, ol := range order.Lines {
		delivered := deliveredByLine[ol.LineNumber]
		remaining := ol.Quantity - delivered
		percent := 0.0
		if ol.Quantity > 0 {
			percent = delivered / ol.Quantity * 100
		}
		percentSum += percent
		if remaining != 0 {
			report.FullyDelivered = false
		}
		report.Lines = append(report.Lines, LineProgress{
			LineNumber:       ol.LineNumber,
			Description:      ol.Description,
			Unit:             ol.Unit,
			OrderedQuantity:  ol.Quantity,
			DeliveredSoFar:   delivered,
			Remaining:        remaining,
			PercentDelivered: percent,
		})
	}
	if len(order.Lines) > 0 {
		report.AveragePercent = percentSum / float64(len(order.Lines))
	}
	return report
}

// remainingByLine returns the remaining deliverable quantity per order line
// given the delivered sums, used by the transactional over-delivery gate.
func remainingByLine(order OrderRef, deliveredByLine map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(order.Lines))
	for _, ol := range order.Lines {
		out[ol.LineNumber] = ol.Quantity - deliveredByLine[ol.LineNumber]
	}
	return out
}
