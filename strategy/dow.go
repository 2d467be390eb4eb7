// Package strategy contains the built-in trading strategies and the market
// structure analysis they share.
package strategy

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/oraclelink/oraclelink/core"
)

// Trend is the market direction according to Dow theory
type Trend string

// Phase qualifies where inside a trend the market currently sits
type Phase string

const (
	TrendUp       Trend = "Uptrend"
	TrendDown     Trend = "Downtrend"
	TrendSideways Trend = "Sideways"
)

const (
	PhaseAccumulation  Phase = "Accumulation Phase"
	PhaseParticipation Phase = "Participation Phase"
	PhaseDistribution  Phase = "Distribution Phase"
	PhaseMarkdown      Phase = "Markdown Phase"

	PhaseConsolidationExpanding   Phase = "Consolidation - Increased Volatility"
	PhaseConsolidationContracting Phase = "Consolidation - Decreased Volatility"
)

// TrendInfo is one confirmed detection result
type TrendInfo struct {
	Trend    Trend
	Phase    Phase
	Strength float64
	Time     time.Time
	Price    float64
}

// TrendState carries the detector's memory between calls: the last announced
// trend and when it changed. Callers thread it through explicitly so two
// symbols never share state.
type TrendState struct {
	Last      Trend
	ChangedAt time.Time
}

// DowDetector identifies the market trend from swing highs and lows. Peaks
// and valleys are found with a prominence threshold derived from price
// volatility; the last two of each decide whether highs and lows are rising
// or falling.
type DowDetector struct {
	prominenceFactor float64
	minSwingFactor   float64
	distance         int
	volumeWindow     int
	debounce         time.Duration
	log              core.Logger
}

// NewDowDetector creates a detector with the standard tuning
func NewDowDetector(log core.Logger) *DowDetector {
	return &DowDetector{
		prominenceFactor: 0.05,
		minSwingFactor:   0.5,
		distance:         2,
		volumeWindow:     10,
		debounce:         45 * time.Minute,
		log:              log,
	}
}

// Detect analyzes the dataframe and returns the confirmed trend info, the
// peak and valley indexes, and the updated state. Info is nil when the data
// gives no confirmed signal: too few swings, a swing too small to matter, or
// volume below its recent average.
func (d *DowDetector) Detect(df *core.Dataframe, state TrendState) (*TrendInfo, []int, []int, TrendState) {
	closes := df.Close.Values()
	if len(closes) < 3 {
		return nil, nil, nil, state
	}

	stdDev := stat.StdDev(closes, nil)
	prominence := stdDev * d.prominenceFactor

	peaks := findPeaks(closes, d.distance, prominence)
	valleys := findPeaks(negate(closes), d.distance, prominence)

	if len(peaks) < 2 || len(valleys) < 2 {
		return nil, peaks, valleys, state
	}

	highs := [2]float64{closes[peaks[len(peaks)-2]], closes[peaks[len(peaks)-1]]}
	lows := [2]float64{closes[valleys[len(valleys)-2]], closes[valleys[len(valleys)-1]]}

	strength := math.Abs(highs[1]-highs[0]) + math.Abs(lows[1]-lows[0])
	if strength < stdDev*d.minSwingFactor {
		return nil, peaks, valleys, state
	}

	higherHigh := highs[1] > highs[0]
	lowerHigh := highs[1] < highs[0]
	higherLow := lows[1] > lows[0]
	lowerLow := lows[1] < lows[0]

	var trend Trend
	var phase Phase
	switch {
	case higherHigh && higherLow:
		trend = TrendUp
		phase = PhaseParticipation
		if lows[1]-lows[0] > highs[1]-highs[0] {
			phase = PhaseAccumulation
		}
	case lowerHigh && lowerLow:
		trend = TrendDown
		phase = PhaseMarkdown
		if highs[0]-highs[1] > lows[0]-lows[1] {
			phase = PhaseDistribution
		}
	case higherHigh && lowerLow:
		trend = TrendSideways
		phase = PhaseConsolidationExpanding
	case lowerHigh && higherLow:
		trend = TrendSideways
		phase = PhaseConsolidationContracting
	default:
		trend = TrendSideways
		phase = PhaseAccumulation
	}

	now := df.Time[len(df.Time)-1]
	if state.Last != trend {
		// debounce trend changes to avoid whipsaws
		if state.ChangedAt.IsZero() || now.Sub(state.ChangedAt) > d.debounce {
			state.Last = trend
			state.ChangedAt = now
			d.log.Infof("trend changed to %s (%s) at %s, strength %.6f", trend, phase, now, strength)
		}
	}

	if !d.volumeConfirmed(df) {
		d.log.Debug("volume below recent average, ignoring trend signal")
		return nil, peaks, valleys, state
	}

	info := &TrendInfo{
		Trend:    trend,
		Phase:    phase,
		Strength: strength,
		Time:     now,
		Price:    closes[len(closes)-1],
	}
	return info, peaks, valleys, state
}

// volumeConfirmed requires the latest volume to exceed its rolling average
func (d *DowDetector) volumeConfirmed(df *core.Dataframe) bool {
	volumes := df.Volume.Values()
	if len(volumes) == 0 {
		return false
	}

	window := d.volumeWindow
	if len(volumes) < window {
		window = len(volumes)
	}
	avg := stat.Mean(volumes[len(volumes)-window:], nil)
	return volumes[len(volumes)-1] > avg
}

func negate(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = -v
	}
	return out
}

// findPeaks returns the indexes of local maxima that are at least distance
// samples apart and rise at least prominence above their surrounding bases.
// When two candidates are closer than distance the higher one survives.
func findPeaks(values []float64, distance int, prominence float64) []int {
	var candidates []int
	for i := 1; i < len(values)-1; i++ {
		if values[i] > values[i-1] && values[i] >= values[i+1] {
			candidates = append(candidates, i)
		}
	}

	var prominent []int
	for _, idx := range candidates {
		if peakProminence(values, idx) >= prominence {
			prominent = append(prominent, idx)
		}
	}

	if distance <= 1 || len(prominent) == 0 {
		return prominent
	}

	// highest peaks claim their neighborhood first
	byHeight := make([]int, len(prominent))
	copy(byHeight, prominent)
	sort.Slice(byHeight, func(i, j int) bool {
		return values[byHeight[i]] > values[byHeight[j]]
	})

	keep := make(map[int]bool)
	for _, idx := range byHeight {
		ok := true
		for kept := range keep {
			if abs(kept-idx) < distance {
				ok = false
				break
			}
		}
		if ok {
			keep[idx] = true
		}
	}

	var out []int
	for _, idx := range prominent {
		if keep[idx] {
			out = append(out, idx)
		}
	}
	return out
}

// peakProminence measures how far a peak rises above the higher of the two
// lowest points separating it from higher terrain on each side
func peakProminence(values []float64, peak int) float64 {
	height := values[peak]

	leftBase := height
	for i := peak - 1; i >= 0; i-- {
		if values[i] > height {
			break
		}
		if values[i] < leftBase {
			leftBase = values[i]
		}
	}

	rightBase := height
	for i := peak + 1; i < len(values); i++ {
		if values[i] > height {
			break
		}
		if values[i] < rightBase {
			rightBase = values[i]
		}
	}

	return height - math.Max(leftBase, rightBase)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
