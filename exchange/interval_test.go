package exchange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterval(t *testing.T) {
	cases := []struct {
		interval string
		want     time.Duration
	}{
		{"1m", time.Minute},
		{"15m", 15 * time.Minute},
		{"4h", 4 * time.Hour},
		{"1d", 24 * time.Hour},
		{"1w", 7 * 24 * time.Hour},
	}

	for _, tc := range cases {
		d, err := ParseInterval(tc.interval)
		require.NoError(t, err, tc.interval)
		assert.Equal(t, tc.want, d, tc.interval)
	}
}

func TestParseInterval_Invalid(t *testing.T) {
	_, err := ParseInterval("banana")
	assert.Error(t, err)

	_, err = ParseInterval("0m")
	assert.Error(t, err)
}

func TestNextBoundary(t *testing.T) {
	at := time.Date(2023, 6, 1, 10, 7, 30, 0, time.UTC)

	next, err := NextBoundary(at, "15m")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 6, 1, 10, 15, 0, 0, time.UTC), next)

	next, err = NextBoundary(at, "1h")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 6, 1, 11, 0, 0, 0, time.UTC), next)
}

func TestNextBoundary_OnBoundaryMovesForward(t *testing.T) {
	at := time.Date(2023, 6, 1, 10, 15, 0, 0, time.UTC)

	next, err := NextBoundary(at, "15m")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 6, 1, 10, 30, 0, 0, time.UTC), next)
}

func TestSplitAssetQuote(t *testing.T) {
	cases := []struct {
		pair  string
		asset string
		quote string
	}{
		{"BTCUSDT", "BTC", "USDT"},
		{"ETHBTC", "ETH", "BTC"},
		{"BNBBUSD", "BNB", "BUSD"},
		{"SOLEUR", "SOL", "EUR"},
	}

	for _, tc := range cases {
		asset, quote := SplitAssetQuote(tc.pair)
		assert.Equal(t, tc.asset, asset, tc.pair)
		assert.Equal(t, tc.quote, quote, tc.pair)
	}
}

func TestSplitAssetQuote_UnknownQuoteSplitsInHalf(t *testing.T) {
	asset, quote := SplitAssetQuote("ABCXYZ")
	assert.Equal(t, "ABC", asset)
	assert.Equal(t, "XYZ", quote)
}
