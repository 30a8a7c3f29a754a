package features

import (
	"sort"
	"sync"

	"github.com/exampulse/exampulse-backend/internal/domain/behavior"
)

// Extractor converts raw behavioral telemetry into a flat, named feature
// vector. Extraction is a pure function of its input; the only state is the
// feature-name ordering established on the first positional-vector call,
// which must stay fixed for the lifetime of the anomaly model consuming the
// vectors. Extractors are created explicitly and injected rather than shared
// through package state so tests get fresh ordering per case.
type Extractor struct {
	mu    sync.RWMutex
	names []string
}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract computes the full named feature set for one session sample.
func (e *Extractor) Extract(s behavior.Sample) map[string]float64 {
	out := make(map[string]float64, 40)
	e.mouseFeatures(s.Mouse, out)
	e.keyboardFeatures(s.Keyboard, out)
	e.tabFeatures(s.Tabs, s.Duration, out)
	e.answerFeatures(s.Answers, out)
	e.crossModalFeatures(s, out)
	return out
}

// Vector computes features and returns them in the extractor's fixed
// ordering. The first call establishes the ordering (alphabetical by name);
// every later call reuses it so positional vectors stay consistent.
func (e *Extractor) Vector(s behavior.Sample) []float64 {
	feats := e.Extract(s)
	names := e.ordering(feats)

	vec := make([]float64, len(names))
	for i, name := range names {
		vec[i] = feats[name]
	}
	return vec
}

// Matrix extracts features for a collection of sessions, producing the
// training matrix for the anomaly model (rows = sessions, columns = the
// fixed feature ordering). Offline use only.
func (e *Extractor) Matrix(samples []behavior.Sample) [][]float64 {
	rows := make([][]float64, len(samples))
	for i, s := range samples {
		rows[i] = e.Vector(s)
	}
	return rows
}

// FeatureNames returns a copy of the established ordering, or nil before the
// first Vector call.
func (e *Extractor) FeatureNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.names == nil {
		return nil
	}
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

func (e *Extractor) ordering(feats map[string]float64) []string {
	e.mu.RLock()
	names := e.names
	e.mu.RUnlock()
	if names != nil {
		return names
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.names == nil {
		sorted := make([]string, 0, len(feats))
		for name := range feats {
			sorted = append(sorted, name)
		}
		sort.Strings(sorted)
		e.names = sorted
	}
	return e.names
}

// mouseFeatures derives 10 features from mouse movement series.
func (e *Extractor) mouseFeatures(m behavior.Mouse, out map[string]float64) {
	out["mouse_speed_mean"] = mean(m.Speeds)
	out["mouse_speed_std"] = stdDev(m.Speeds)
	out["mouse_speed_cv"] = coefVar(m.Speeds)

	out["mouse_pause_freq"] = float64(len(m.Pauses)) / float64(len(m.Speeds)+1)
	out["mouse_pause_mean"] = mean(m.Pauses)

	out["mouse_jitter_mean"] = mean(m.Jitter)
	out["mouse_jitter_std"] = stdDev(m.Jitter)

	out["mouse_smoothness_mean"] = mean(m.Smoothness)
	out["mouse_smoothness_std"] = stdDev(m.Smoothness)

	// Abrupt speed transitions read as bot-like movement.
	out["mouse_speed_transitions"] = meanAbsDiff(m.Speeds)
}

// keyboardFeatures derives 12 features from keystroke dynamics.
func (e *Extractor) keyboardFeatures(k behavior.Keyboard, out map[string]float64) {
	out["key_interval_mean"] = mean(k.Intervals)
	out["key_interval_std"] = stdDev(k.Intervals)
	out["key_interval_cv"] = coefVar(k.Intervals)

	// Low rhythm entropy means mechanical, evenly spaced keystrokes; high
	// entropy means irregular timing, as left behind by pasting.
	out["key_rhythm_entropy"] = rhythmEntropy(k.Intervals)

	out["key_hold_mean"] = mean(k.HoldTimes)
	out["key_hold_std"] = stdDev(k.HoldTimes)

	out["key_burst_mean"] = mean(k.BurstSizes)
	out["key_burst_std"] = stdDev(k.BurstSizes)

	out["key_backspace_rate"] = mean(k.Backspaces)

	totalMinutes := 0.0
	for _, iv := range k.Intervals {
		totalMinutes += iv
	}
	totalMinutes /= 60
	out["key_typing_speed"] = float64(len(k.Intervals)) / (totalMinutes + epsilon)

	// Paste events land as near-zero intervals, far outside the IQR fence.
	out["key_interval_outliers"] = iqrOutlierFraction(k.Intervals)

	out["key_pattern_stability"] = patternStability(k.Intervals)
}

func rhythmEntropy(intervals []float64) float64 {
	if len(intervals) == 0 {
		return 0
	}
	lo, hi := intervals[0], intervals[0]
	for _, v := range intervals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	counts := histogramCounts(intervals, lo, hi, 20)
	total := 0.0
	for _, c := range counts {
		total += c
	}
	pk := make([]float64, len(counts))
	for i, c := range counts {
		pk[i] = c/(total+epsilon) + epsilon
	}
	return shannonEntropy(pk)
}

// patternStability compares mean typing cadence across five windows of the
// session; it is defined as 0 until enough intervals exist to window.
func patternStability(intervals []float64) float64 {
	n := len(intervals)
	if n <= 20 {
		return 0
	}
	windowSize := n / 5
	var windowMeans []float64
	for i := 0; i+windowSize <= n && i < n-windowSize; i += windowSize {
		windowMeans = append(windowMeans, mean(intervals[i:i+windowSize]))
	}
	return stdDev(windowMeans) / (mean(windowMeans) + epsilon)
}

// tabFeatures derives 8 features from tab-switching behavior. With zero
// switches everything except the frequency, away percentage, and the neutral
// early/late ratio defaults to zero.
func (e *Extractor) tabFeatures(t behavior.Tabs, duration float64, out map[string]float64) {
	if duration <= 0 {
		duration = epsilon
	}
	out["tab_switch_freq"] = float64(t.SwitchCount) / (duration / 3600)
	out["tab_time_away_pct"] = t.TotalTimeAway / duration * 100

	if t.SwitchCount == 0 {
		out["tab_time_away_mean"] = 0
		out["tab_time_away_std"] = 0
		out["tab_clustering"] = 0
		out["tab_regularity"] = 0
		out["tab_early_late_ratio"] = 1.0
		out["tab_long_absence_count"] = 0
		return
	}

	out["tab_time_away_mean"] = mean(t.AwayDurations)
	out["tab_time_away_std"] = stdDev(t.AwayDurations)

	gaps := diffs(t.SwitchTimes)

	// Clustering: bursts of switches within ten seconds of each other.
	if len(gaps) > 0 {
		out["tab_clustering"] = countWhere(gaps, 0, 10) / float64(len(gaps))
	} else {
		out["tab_clustering"] = 0
	}

	// Regularity: a low gap CV means periodic, bot-like switching.
	if len(t.SwitchTimes) > 2 {
		out["tab_regularity"] = stdDev(gaps) / (mean(gaps) + epsilon)
	} else {
		out["tab_regularity"] = 0
	}

	mid := duration / 2
	early := 0
	for _, st := range t.SwitchTimes {
		if st < mid {
			early++
		}
	}
	late := t.SwitchCount - early
	out["tab_early_late_ratio"] = float64(early) / float64(late+1)

	long := 0.0
	for _, away := range t.AwayDurations {
		if away > 30 {
			long++
		}
	}
	out["tab_long_absence_count"] = long
}

// answerFeatures derives 5 features from answer submission patterns.
func (e *Extractor) answerFeatures(a behavior.Answers, out map[string]float64) {
	out["answer_time_mean"] = mean(a.TimePerQuestion)
	out["answer_time_std"] = stdDev(a.TimePerQuestion)
	out["answer_change_rate"] = mean(a.AnswerChanges)

	n := len(a.TimePerQuestion)
	if n == 0 {
		out["answer_quick_ratio"] = 0
		out["answer_slow_ratio"] = 0
		return
	}
	quick, slow := 0.0, 0.0
	for _, tq := range a.TimePerQuestion {
		if tq < 10 {
			quick++ // suspiciously fast: prior knowledge or pre-filled
		}
		if tq > 180 {
			slow++ // suspiciously slow: external lookup
		}
	}
	out["answer_quick_ratio"] = quick / float64(n)
	out["answer_slow_ratio"] = slow / float64(n)
}

// crossModalFeatures derives 5 features capturing relationships between
// modalities over a shared activity timeline.
func (e *Extractor) crossModalFeatures(s behavior.Sample, out map[string]float64) {
	duration := s.Duration
	if duration <= 0 {
		duration = epsilon
	}

	const activityBins = 49
	mouseActivity := histogramCounts(s.Mouse.Timestamps, 0, duration, activityBins)
	keyActivity := histogramCounts(s.Keyboard.Timestamps, 0, duration, activityBins)

	out["cross_mouse_key_correlation"] = pearson(mouseActivity, keyActivity)

	total := make([]float64, activityBins)
	for i := range total {
		total[i] = mouseActivity[i] + keyActivity[i] + epsilon
	}
	out["cross_activity_concentration"] = giniCoefficient(total)

	// Simultaneous fast mouse, fast typing, and tab switching reads as
	// coordinated multitasking.
	p75 := percentile(s.Mouse.Speeds, 75)
	p25 := percentile(s.Keyboard.Intervals, 25)
	highMouse := 0.0
	for _, sp := range s.Mouse.Speeds {
		if sp > p75 {
			highMouse++
		}
	}
	fastTyping := 0.0
	for _, iv := range s.Keyboard.Intervals {
		if iv < p25 {
			fastTyping++
		}
	}
	out["cross_multitask_indicator"] = (highMouse + fastTyping + float64(s.Tabs.SwitchCount)) /
		float64(len(s.Mouse.Speeds)+1)

	windowCounts := make([]float64, 10)
	windowSize := duration / 10
	for i := 0; i < 10; i++ {
		start := float64(i) * windowSize
		end := float64(i+1) * windowSize
		windowCounts[i] = countWhere(s.Mouse.Timestamps, start, end) +
			countWhere(s.Keyboard.Timestamps, start, end)
	}
	out["cross_focus_stability"] = 1 / (stdDev(windowCounts) + epsilon)

	third := duration / 3
	partCounts := make([]float64, 3)
	for i := 0; i < 3; i++ {
		start := float64(i) * third
		end := float64(i+1) * third
		partCounts[i] = countWhere(s.Mouse.Timestamps, start, end) +
			countWhere(s.Keyboard.Timestamps, start, end)
	}
	cv := stdDev(partCounts) / (mean(partCounts) + epsilon)
	out["cross_behavioral_consistency"] = 1 / (cv + epsilon)
}
