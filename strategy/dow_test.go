package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oraclelink/oraclelink/core"
)

func dfFromCloses(at time.Time, closes, volumes []float64) *core.Dataframe {
	candles := make([]core.Candle, len(closes))
	for i, c := range closes {
		volume := 100.0
		if volumes != nil {
			volume = volumes[i]
		}
		candles[i] = core.Candle{
			Symbol: "BTCUSDT",
			Time:   at.Add(time.Duration(i) * time.Minute),
			Open:   c,
			Close:  c,
			High:   c + 0.1,
			Low:    c - 0.1,
			Volume: volume,
		}
	}
	return core.NewDataframe("BTCUSDT", candles)
}

// zigzag with rising highs and rising lows, ending on a swing low
var uptrendCloses = []float64{10, 13, 10.5, 14, 11, 15, 11.5, 12}

// the mirror image: falling highs and falling lows
var downtrendCloses = []float64{15, 12, 14.5, 11, 14, 10, 13.5, 13}

func confirmingVolumes(n int) []float64 {
	volumes := make([]float64, n)
	for i := range volumes {
		volumes[i] = 100
	}
	volumes[n-1] = 200
	return volumes
}

func TestFindPeaks(t *testing.T) {
	values := []float64{0, 1, 0, 2, 0, 3, 0}

	peaks := findPeaks(values, 2, 0)
	assert.Equal(t, []int{1, 3, 5}, peaks)

	// A prominence floor filters the shallow swing.
	peaks = findPeaks(values, 2, 1.5)
	assert.Equal(t, []int{3, 5}, peaks)
}

func TestFindPeaks_DistanceKeepsHigherPeak(t *testing.T) {
	values := []float64{0, 4, 3, 5, 0}

	peaks := findPeaks(values, 3, 0.5)
	assert.Equal(t, []int{3}, peaks)
}

func TestFindPeaks_NoPeaks(t *testing.T) {
	assert.Empty(t, findPeaks([]float64{1, 2, 3, 4}, 2, 0))
	assert.Empty(t, findPeaks([]float64{4, 3, 2, 1}, 2, 0))
}

func TestPeakProminence(t *testing.T) {
	values := []float64{0, 3, 1, 5, 0}

	// The col at index 2 separates the peak from higher terrain.
	assert.Equal(t, 2.0, peakProminence(values, 1))

	// The highest peak measures down to the global bases.
	assert.Equal(t, 5.0, peakProminence(values, 3))
}

func TestDowDetector_DetectsUptrend(t *testing.T) {
	detector := NewDowDetector(core.DefaultLog)
	at := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	df := dfFromCloses(at, uptrendCloses, confirmingVolumes(len(uptrendCloses)))
	info, peaks, valleys, state := detector.Detect(df, TrendState{})

	require.NotNil(t, info)
	assert.Equal(t, TrendUp, info.Trend)
	assert.NotEmpty(t, peaks)
	assert.NotEmpty(t, valleys)
	assert.Equal(t, TrendUp, state.Last)
	assert.Greater(t, info.Strength, 0.0)
}

func TestDowDetector_DetectsDowntrend(t *testing.T) {
	detector := NewDowDetector(core.DefaultLog)
	at := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	df := dfFromCloses(at, downtrendCloses, confirmingVolumes(len(downtrendCloses)))
	info, _, _, state := detector.Detect(df, TrendState{})

	require.NotNil(t, info)
	assert.Equal(t, TrendDown, info.Trend)
	assert.Equal(t, TrendDown, state.Last)
}

func TestDowDetector_VolumeGate(t *testing.T) {
	detector := NewDowDetector(core.DefaultLog)
	at := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	// Flat volume never exceeds its own average, so the signal is suppressed
	// while the swing structure is still reported.
	df := dfFromCloses(at, uptrendCloses, nil)
	info, peaks, valleys, _ := detector.Detect(df, TrendState{})

	assert.Nil(t, info)
	assert.NotEmpty(t, peaks)
	assert.NotEmpty(t, valleys)
}

func TestDowDetector_DebouncesTrendChanges(t *testing.T) {
	detector := NewDowDetector(core.DefaultLog)
	at := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	up := dfFromCloses(at, uptrendCloses, confirmingVolumes(len(uptrendCloses)))
	_, _, _, state := detector.Detect(up, TrendState{})
	require.Equal(t, TrendUp, state.Last)
	changedAt := state.ChangedAt

	// A reversal only minutes later is reported but not yet adopted.
	soon := dfFromCloses(changedAt.Add(3*time.Minute), downtrendCloses, confirmingVolumes(len(downtrendCloses)))
	info, _, _, state := detector.Detect(soon, state)
	require.NotNil(t, info)
	assert.Equal(t, TrendDown, info.Trend)
	assert.Equal(t, TrendUp, state.Last)

	// After the debounce window the change sticks.
	later := dfFromCloses(changedAt.Add(50*time.Minute), downtrendCloses, confirmingVolumes(len(downtrendCloses)))
	_, _, _, state = detector.Detect(later, state)
	assert.Equal(t, TrendDown, state.Last)
}

func TestDowDetector_TooFewBars(t *testing.T) {
	detector := NewDowDetector(core.DefaultLog)
	at := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	df := dfFromCloses(at, []float64{10, 11}, nil)
	info, peaks, valleys, _ := detector.Detect(df, TrendState{})

	assert.Nil(t, info)
	assert.Empty(t, peaks)
	assert.Empty(t, valleys)
}
