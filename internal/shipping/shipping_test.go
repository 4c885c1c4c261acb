package shipping

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuoteKnownCity(t *testing.T) {
	methods := Quote("Osasco", "SP")
	require.Len(t, methods, 2)

	require.Equal(t, MethodStandard, methods[0].MethodID)
	require.Equal(t, int64(1290), methods[0].PriceInCents)
	require.NotEmpty(t, methods[0].EtaLabel)

	require.Equal(t, MethodExpress, methods[1].MethodID)
	require.Equal(t, int64(1290+1500), methods[1].PriceInCents)
}

func TestQuoteNormalizesCity(t *testing.T) {
	a := Quote("  RIO DE JANEIRO ", "RJ")
	b := Quote("rio de janeiro", "rj")
	require.Equal(t, a, b)
	require.Equal(t, int64(2490), a[0].PriceInCents)
}

func TestQuoteUnknownCityFallsBack(t *testing.T) {
	methods := Quote("Atlantis", "XX")
	require.Equal(t, int64(3990), methods[0].PriceInCents)
}
