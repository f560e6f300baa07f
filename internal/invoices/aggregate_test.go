package invoices

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeDeliveryLinesGroupsByDescriptionUnitPrice(t *testing.T) {
	sources := []SourceDelivery{
		{
			ID: 1, Number: "001/BDL/2025",
			Lines: []SourceDeliveryLine{
				{LineNumber: 1, Description: "Ciment CPJ 45", Unit: "sac", DeliveredQuantity: 60, UnitPrice: 7500},
				{LineNumber: 2, Description: "Fer 8mm", Unit: "barre", DeliveredQuantity: 20, UnitPrice: 3000},
			},
		},
		{
			ID: 2, Number: "002/BDL/2025",
			Lines: []SourceDeliveryLine{
				{LineNumber: 1, Description: "Ciment CPJ 45", Unit: "sac", DeliveredQuantity: 40, UnitPrice: 7500},
				{LineNumber: 2, Description: "Gravier", Unit: "m3", DeliveredQuantity: 5, UnitPrice: 15000},
			},
		},
	}

	lines := MergeDeliveryLines(sources)
	require.Len(t, lines, 3)

	// First-encounter order across deliveries.
	require.Equal(t, "Ciment CPJ 45", lines[0].Description)
	require.Equal(t, "Fer 8mm", lines[1].Description)
	require.Equal(t, "Gravier", lines[2].Description)
	require.Equal(t, 1, lines[0].LineNumber)
	require.Equal(t, 3, lines[2].LineNumber)

	require.InDelta(t, 100.0, lines[0].Quantity, 0.001)
	require.Len(t, lines[0].Sources, 2)
	require.Equal(t, "001/BDL/2025", lines[0].Sources[0].DeliveryNumber)
	require.InDelta(t, 60.0, lines[0].Sources[0].Quantity, 0.001)
	require.Equal(t, "002/BDL/2025", lines[0].Sources[1].DeliveryNumber)
	require.InDelta(t, 40.0, lines[0].Sources[1].Quantity, 0.001)
}

func TestMergeDeliveryLinesPriceSplitsLine(t *testing.T) {
	sources := []SourceDelivery{
		{
			ID: 1, Number: "001/BDL/2025",
			Lines: []SourceDeliveryLine{
				{LineNumber: 1, Description: "Ciment CPJ 45", Unit: "sac", DeliveredQuantity: 10, UnitPrice: 7500},
			},
		},
		{
			ID: 2, Number: "002/BDL/2025",
			Lines: []SourceDeliveryLine{
				{LineNumber: 1, Description: "Ciment CPJ 45", Unit: "sac", DeliveredQuantity: 10, UnitPrice: 8000},
			},
		},
	}

	lines := MergeDeliveryLines(sources)
	require.Len(t, lines, 2)
	require.InDelta(t, 7500.0, lines[0].UnitPrice, 0.001)
	require.InDelta(t, 8000.0, lines[1].UnitPrice, 0.001)
}

func TestMergeDeliveryLinesOneContributionPerDelivery(t *testing.T) {
	// Two lines of the same delivery sharing a merge key collapse into a
	// single contribution entry.
	sources := []SourceDelivery{
		{
			ID: 1, Number: "001/BDL/2025",
			Lines: []SourceDeliveryLine{
				{LineNumber: 1, Description: "Sable", Unit: "m3", DeliveredQuantity: 3, UnitPrice: 10000},
				{LineNumber: 2, Description: "Sable", Unit: "m3", DeliveredQuantity: 2, UnitPrice: 10000},
			},
		},
	}

	lines := MergeDeliveryLines(sources)
	require.Len(t, lines, 1)
	require.InDelta(t, 5.0, lines[0].Quantity, 0.001)
	require.Len(t, lines[0].Sources, 1)
	require.InDelta(t, 5.0, lines[0].Sources[0].Quantity, 0.001)
}

func TestMergeDeliveryLinesEmpty(t *testing.T) {
	require.Empty(t, MergeDeliveryLines(nil))
}
