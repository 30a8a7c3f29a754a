package fixtures

import (
	"math"
	"testing"

	"github.com/exampulse/exampulse-backend/internal/domain/behavior"
)

// SampleBuilder builds behavior.Sample telemetry for tests. Defaults model
// an unremarkable 30 minute session: steady mouse movement, even typing,
// two brief tab switches.
type SampleBuilder struct {
	t      *testing.T
	sample behavior.Sample
}

func NewSampleBuilder(t *testing.T) *SampleBuilder {
	t.Helper()

	b := &SampleBuilder{t: t}
	b.sample.Duration = 1800

	for i := 0; i < 200; i++ {
		ts := float64(i) * 9.0
		b.sample.Mouse.Timestamps = append(b.sample.Mouse.Timestamps, ts)
		b.sample.Mouse.Speeds = append(b.sample.Mouse.Speeds, 480+40*math.Sin(float64(i)/7))
		b.sample.Mouse.Jitter = append(b.sample.Mouse.Jitter, 2.0+0.5*math.Sin(float64(i)/3))
		b.sample.Mouse.Smoothness = append(b.sample.Mouse.Smoothness, 0.8+0.1*math.Cos(float64(i)/5))
	}
	b.sample.Mouse.Pauses = []float64{3.2, 5.1, 2.4, 8.0, 4.5}

	for i := 0; i < 300; i++ {
		ts := float64(i) * 6.0
		b.sample.Keyboard.Timestamps = append(b.sample.Keyboard.Timestamps, ts)
		b.sample.Keyboard.Intervals = append(b.sample.Keyboard.Intervals, 0.25+0.05*math.Sin(float64(i)/11))
		b.sample.Keyboard.HoldTimes = append(b.sample.Keyboard.HoldTimes, 0.09+0.01*math.Cos(float64(i)/13))
	}
	b.sample.Keyboard.BurstSizes = []float64{8, 12, 6, 15, 10, 9}
	b.sample.Keyboard.Backspaces = []float64{0, 0, 1, 0, 0, 0, 0, 1, 0, 0}

	b.sample.Tabs.SwitchCount = 2
	b.sample.Tabs.SwitchTimes = []float64{400, 1200}
	b.sample.Tabs.AwayDurations = []float64{6, 9}
	b.sample.Tabs.TotalTimeAway = 15

	b.sample.Answers.TimePerQuestion = []float64{45, 62, 38, 90, 55, 71, 48, 66}
	b.sample.Answers.AnswerChanges = []float64{0, 1, 0, 2, 0, 0, 1, 0}

	return b
}

func (b *SampleBuilder) WithDuration(seconds float64) *SampleBuilder {
	b.sample.Duration = seconds
	return b
}

func (b *SampleBuilder) WithTabSwitches(times, awayDurations []float64) *SampleBuilder {
	b.sample.Tabs.SwitchCount = len(times)
	b.sample.Tabs.SwitchTimes = times
	b.sample.Tabs.AwayDurations = awayDurations
	total := 0.0
	for _, d := range awayDurations {
		total += d
	}
	b.sample.Tabs.TotalTimeAway = total
	return b
}

func (b *SampleBuilder) WithNoTabSwitches() *SampleBuilder {
	b.sample.Tabs = behavior.Tabs{}
	return b
}

func (b *SampleBuilder) WithAnswerTimes(times []float64) *SampleBuilder {
	b.sample.Answers.TimePerQuestion = times
	return b
}

func (b *SampleBuilder) WithKeyIntervals(intervals []float64) *SampleBuilder {
	b.sample.Keyboard.Intervals = intervals
	return b
}

func (b *SampleBuilder) WithMouseSpeeds(speeds []float64) *SampleBuilder {
	b.sample.Mouse.Speeds = speeds
	return b
}

func (b *SampleBuilder) Build() behavior.Sample {
	return b.sample
}

// TypicalSummary is a plausible compact summary for a normal session.
func TypicalSummary() behavior.Summary {
	return behavior.Summary{
		TypingSpeedWPM:     52,
		MouseSpeedPxs:      480,
		AvgQuestionTimeSec: 59,
	}
}

// TypicalBaselineFeatures matches the summary-level keys the session rules
// read.
func TypicalBaselineFeatures() map[string]interface{} {
	return map[string]interface{}{
		"wpm_mean":              50.0,
		"mouse_speed_pxs":       500.0,
		"avg_question_time_sec": 60.0,
	}
}
