package risk

import (
	"fmt"
	"math"

	"github.com/exampulse/exampulse-backend/internal/domain/baseline"
	"github.com/exampulse/exampulse-backend/internal/domain/behavior"
	"github.com/exampulse/exampulse-backend/internal/domain/event"
)

// evaluateSession computes the session-level heuristic: five independently
// bucketed component scores combined with fixed weights. Each component
// compares aggregated behavior against the user's baseline, falling back to
// population defaults for new users.
func evaluateSession(b behavior.Summary, base *baseline.Baseline, events []*event.Event) (float64, []string) {
	var reasons []string

	typingScore := typingDeviationScore(b.TypingSpeedWPM, base.FeatureOr("wpm_mean", defaultBaselineWPM), &reasons)
	tabScore := tabSwitchScore(events, &reasons)
	mouseScore := mouseDeviationScore(b.MouseSpeedPxs, base.FeatureOr("mouse_speed_pxs", defaultBaselineMouseSpeed), &reasons)
	answerScore := answerSpeedScore(b.AvgQuestionTimeSec, base.FeatureOr("avg_question_time_sec", defaultBaselineAnswerTime), &reasons)
	focusScore := windowFocusScore(events, &reasons)

	total := typingScore*typingComponentWeight +
		tabScore*tabComponentWeight +
		mouseScore*mouseComponentWeight +
		answerScore*answerComponentWeight +
		focusScore*focusComponentWeight

	return clamp01(total), reasons
}

// typingDeviationScore buckets relative typing-speed deviation from
// baseline into discrete risk tiers.
func typingDeviationScore(currentWPM, baselineWPM float64, reasons *[]string) float64 {
	if baselineWPM == 0 {
		return 0
	}
	deviation := math.Abs(currentWPM-baselineWPM) / baselineWPM
	switch {
	case deviation > 1.0:
		*reasons = append(*reasons, fmt.Sprintf("typing_deviation=%.0f%%", deviation*100))
		return 0.9
	case deviation > 0.5:
		*reasons = append(*reasons, fmt.Sprintf("typing_deviation=%.0f%%", deviation*100))
		return 0.6
	case deviation > 0.3:
		return 0.3
	default:
		return 0.1
	}
}

func tabSwitchScore(events []*event.Event, reasons *[]string) float64 {
	count := 0
	for _, e := range events {
		if e.Type == event.TypeTabSwitch {
			count++
		}
	}
	switch {
	case count == 0:
		return 0
	case count > 10:
		*reasons = append(*reasons, fmt.Sprintf("tab_switches=%d", count))
		return 1.0
	case count > 5:
		*reasons = append(*reasons, fmt.Sprintf("tab_switches=%d", count))
		return 0.8
	case count > 2:
		*reasons = append(*reasons, fmt.Sprintf("tab_switches=%d", count))
		return 0.5
	default:
		return 0.2
	}
}

// mouseDeviationScore flags unusually slow mouse movement (a second device
// or remote assistance) ahead of generic deviation.
func mouseDeviationScore(currentSpeed, baselineSpeed float64, reasons *[]string) float64 {
	if baselineSpeed == 0 {
		return 0
	}
	if currentSpeed < baselineSpeed*0.3 {
		*reasons = append(*reasons, "mouse_speed_abnormally_low")
		return 0.7
	}
	if math.Abs(currentSpeed-baselineSpeed)/baselineSpeed > 0.5 {
		return 0.4
	}
	return 0.1
}

// answerSpeedScore is deliberately U-shaped: answering far faster than
// baseline suggests pre-filled or copied answers, far slower suggests
// external lookup. Both ends are suspicious.
func answerSpeedScore(currentTime, baselineTime float64, reasons *[]string) float64 {
	if baselineTime == 0 {
		return 0
	}
	if currentTime < baselineTime*0.3 {
		*reasons = append(*reasons, "answers_too_fast")
		return 0.8
	}
	if currentTime > baselineTime*3 {
		*reasons = append(*reasons, "answers_too_slow")
		return 0.6
	}
	return 0.1
}

func windowFocusScore(events []*event.Event, reasons *[]string) float64 {
	totalBlur := 0.0
	seen := false
	for _, e := range events {
		if blur, ok := e.Payload.(event.WindowBlur); ok {
			totalBlur += blur.DurationSeconds
			seen = true
		}
	}
	if !seen {
		return 0
	}
	switch {
	case totalBlur > 120:
		*reasons = append(*reasons, fmt.Sprintf("focus_lost_%ds", int(totalBlur)))
		return 0.9
	case totalBlur > 60:
		*reasons = append(*reasons, fmt.Sprintf("focus_lost_%ds", int(totalBlur)))
		return 0.6
	case totalBlur > 30:
		return 0.3
	default:
		return 0.1
	}
}
