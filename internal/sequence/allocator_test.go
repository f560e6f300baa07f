package sequence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	require.Equal(t, "001/BC/2025", Format(1, FamilyOrder, 2025))
	require.Equal(t, "042/BDL/2026", Format(42, FamilyDelivery, 2026))
	require.Equal(t, "007/FAC/2025", Format(7, FamilyInvoice, 2025))
}

func TestFormatKeepsWidthPastThreeDigits(t *testing.T) {
	require.Equal(t, "1204/DEV/2025", Format(1204, FamilyQuote, 2025))
}
