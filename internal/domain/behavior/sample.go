package behavior

import (
	"fmt"
)

// Sample is one session's worth of raw behavioral telemetry as captured by
// the exam client. It is ephemeral: consumed once per scoring or extraction
// call and never persisted in raw form.
type Sample struct {
	Duration float64  `json:"duration"` // total session duration, seconds
	Mouse    Mouse    `json:"mouse"`
	Keyboard Keyboard `json:"keyboard"`
	Tabs     Tabs     `json:"tabs"`
	Answers  Answers  `json:"answers"`
}

// Mouse holds per-sample mouse movement series. Speeds, Jitter, Smoothness
// and Timestamps describe the same movement samples; Pauses is its own series.
type Mouse struct {
	Timestamps []float64 `json:"timestamps"`
	Speeds     []float64 `json:"speeds"`
	Pauses     []float64 `json:"pauses"`
	Jitter     []float64 `json:"jitter"`
	Smoothness []float64 `json:"smoothness"`
}

// Keyboard holds keystroke dynamics series.
type Keyboard struct {
	Timestamps []float64 `json:"timestamps"`
	Intervals  []float64 `json:"intervals"`   // inter-key intervals, seconds
	HoldTimes  []float64 `json:"hold_times"`  // key hold durations, seconds
	BurstSizes []float64 `json:"burst_sizes"` // keystrokes per typing burst
	Backspaces []float64 `json:"backspace_freq"` // 1.0 per backspace keystroke, else 0.0
}

// Tabs describes tab-switching behavior over the session.
type Tabs struct {
	SwitchCount   int       `json:"num_switches"`
	SwitchTimes   []float64 `json:"switch_times"`    // seconds from session start
	AwayDurations []float64 `json:"time_away"`       // seconds away per switch
	TotalTimeAway float64   `json:"total_time_away"` // seconds
}

// Answers describes answer submission timing.
type Answers struct {
	TimePerQuestion []float64 `json:"time_per_question"` // seconds
	AnswerChanges   []float64 `json:"answer_changes"`    // change count per question
}

// Summary is the compact per-session behavior summary consumed by the
// anomaly scorer and the session-level heuristic rules. Zero values mean
// "not reported"; consumers substitute population defaults.
type Summary struct {
	TypingSpeedWPM     float64 `json:"typing_speed_wpm"`
	MouseSpeedPxs      float64 `json:"mouse_speed_pxs"`
	AvgQuestionTimeSec float64 `json:"avg_question_time_sec"`
}

// Validate rejects samples that cannot be scored at all. Per-modality gaps
// (empty series) are tolerated and handled by extraction fallbacks; a
// non-positive duration is the one shape the pipeline cannot absorb.
func (s Sample) Validate() error {
	if s.Duration <= 0 {
		return fmt.Errorf("sample duration must be positive, got %v", s.Duration)
	}
	if s.Tabs.SwitchCount < 0 {
		return fmt.Errorf("tab switch count must be non-negative, got %d", s.Tabs.SwitchCount)
	}
	return nil
}
