package features

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exampulse/exampulse-backend/internal/domain/behavior"
	"github.com/exampulse/exampulse-backend/internal/testutil/fixtures"
)

var expectedFeatureNames = []string{
	"answer_change_rate",
	"answer_quick_ratio",
	"answer_slow_ratio",
	"answer_time_mean",
	"answer_time_std",
	"cross_activity_concentration",
	"cross_behavioral_consistency",
	"cross_focus_stability",
	"cross_mouse_key_correlation",
	"cross_multitask_indicator",
	"key_backspace_rate",
	"key_burst_mean",
	"key_burst_std",
	"key_hold_mean",
	"key_hold_std",
	"key_interval_cv",
	"key_interval_mean",
	"key_interval_outliers",
	"key_interval_std",
	"key_pattern_stability",
	"key_rhythm_entropy",
	"key_typing_speed",
	"mouse_jitter_mean",
	"mouse_jitter_std",
	"mouse_pause_freq",
	"mouse_pause_mean",
	"mouse_smoothness_mean",
	"mouse_smoothness_std",
	"mouse_speed_cv",
	"mouse_speed_mean",
	"mouse_speed_std",
	"mouse_speed_transitions",
	"tab_clustering",
	"tab_early_late_ratio",
	"tab_long_absence_count",
	"tab_regularity",
	"tab_switch_freq",
	"tab_time_away_mean",
	"tab_time_away_pct",
	"tab_time_away_std",
}

func TestExtract_ProducesFullFeatureSet(t *testing.T) {
	e := NewExtractor()
	sample := fixtures.NewSampleBuilder(t).Build()

	feats := e.Extract(sample)

	require.Len(t, feats, len(expectedFeatureNames))
	for _, name := range expectedFeatureNames {
		v, ok := feats[name]
		require.True(t, ok, "missing feature %s", name)
		assert.False(t, math.IsNaN(v), "feature %s is NaN", name)
		assert.False(t, math.IsInf(v, 0), "feature %s is infinite", name)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	e := NewExtractor()
	sample := fixtures.NewSampleBuilder(t).Build()

	first := e.Extract(sample)
	second := e.Extract(sample)

	assert.Equal(t, first, second)
}

func TestExtract_EmptySampleIsFinite(t *testing.T) {
	e := NewExtractor()

	feats := e.Extract(behavior.Sample{Duration: 600})

	require.Len(t, feats, len(expectedFeatureNames))
	for name, v := range feats {
		assert.False(t, math.IsNaN(v), "feature %s is NaN", name)
		assert.False(t, math.IsInf(v, 0), "feature %s is infinite", name)
	}
}

func TestExtract_NoTabSwitchDefaults(t *testing.T) {
	e := NewExtractor()
	sample := fixtures.NewSampleBuilder(t).WithNoTabSwitches().Build()

	feats := e.Extract(sample)

	assert.Zero(t, feats["tab_switch_freq"])
	assert.Zero(t, feats["tab_time_away_mean"])
	assert.Zero(t, feats["tab_time_away_std"])
	assert.Zero(t, feats["tab_clustering"])
	assert.Zero(t, feats["tab_regularity"])
	assert.Zero(t, feats["tab_long_absence_count"])
	assert.Equal(t, 1.0, feats["tab_early_late_ratio"])
}

func TestExtract_AnswerRatios(t *testing.T) {
	e := NewExtractor()
	sample := fixtures.NewSampleBuilder(t).
		WithAnswerTimes([]float64{5, 8, 200, 60}).
		Build()

	feats := e.Extract(sample)

	assert.InDelta(t, 0.5, feats["answer_quick_ratio"], 1e-9)
	assert.InDelta(t, 0.25, feats["answer_slow_ratio"], 1e-9)
}

func TestVector_OrderingIsSortedAndStable(t *testing.T) {
	e := NewExtractor()
	sample := fixtures.NewSampleBuilder(t).Build()

	_ = e.Vector(sample)
	names := e.FeatureNames()

	require.Len(t, names, len(expectedFeatureNames))
	assert.True(t, sort.StringsAreSorted(names))

	again := e.FeatureNames()
	assert.Equal(t, names, again)
}

func TestMatrix_RowsShareOrdering(t *testing.T) {
	e := NewExtractor()
	samples := []behavior.Sample{
		fixtures.NewSampleBuilder(t).Build(),
		fixtures.NewSampleBuilder(t).WithDuration(900).Build(),
		{Duration: 300},
	}

	rows := e.Matrix(samples)

	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Len(t, row, len(expectedFeatureNames))
	}

	feats := e.Extract(samples[0])
	names := e.FeatureNames()
	for i, name := range names {
		assert.InDelta(t, feats[name], rows[0][i], 1e-12)
	}
}

func TestExtract_TypingSpeedScalesWithIntervals(t *testing.T) {
	e := NewExtractor()

	slow := fixtures.NewSampleBuilder(t).
		WithKeyIntervals(repeat(0.5, 100)).
		Build()
	fast := fixtures.NewSampleBuilder(t).
		WithKeyIntervals(repeat(0.1, 100)).
		Build()

	slowFeats := e.Extract(slow)
	fastFeats := e.Extract(fast)

	assert.Greater(t, fastFeats["key_typing_speed"], slowFeats["key_typing_speed"])
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
