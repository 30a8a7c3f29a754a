package risk

import (
	"fmt"

	"github.com/exampulse/exampulse-backend/internal/domain/baseline"
	"github.com/exampulse/exampulse-backend/internal/domain/event"
)

// EvaluateEvent maps a single behavioral event plus an optional baseline to
// a partial risk score in [0,1] and the human-readable reasons behind it.
// Rules are additive and independently triggered, then clamped.
func EvaluateEvent(payload event.Payload, base *baseline.Baseline) (float64, []string) {
	score := 0.0
	var reasons []string

	switch p := payload.(type) {
	case event.TabSwitch:
		contribution := tabSwitchWeight * float64(p.Count)
		if contribution > tabSwitchCap {
			contribution = tabSwitchCap
		}
		score += contribution
		reasons = append(reasons, fmt.Sprintf("tab_switch_count=%d", p.Count))

	case event.CopyPaste:
		score += copyPasteScore
		reasons = append(reasons, "copy_paste")

	case event.Typing:
		baseWPM, hasBase := 0.0, false
		if base != nil {
			baseWPM, hasBase = base.Feature("wpm_mean")
		}
		if hasBase && baseWPM > minUsableBaseWPM {
			ratio := p.WPM / baseWPM
			if ratio >= typingJumpRatio {
				score += typingJumpScore
				reasons = append(reasons, fmt.Sprintf("wpm_jump_ratio=%.2f", ratio))
			} else if ratio >= typingRiseRatio {
				score += typingRiseScore
				reasons = append(reasons, fmt.Sprintf("wpm_increase=%.2f", ratio))
			}
		} else if p.WPM >= typingHighWPM {
			// No usable baseline: only an extreme absolute speed is
			// suspicious on its own.
			score += typingNoBaseScore
			reasons = append(reasons, "typing_wpm_high_no_baseline")
		}

	case event.WindowBlur:
		if p.DurationSeconds >= blurTriggerSeconds {
			score += windowBlurScore
			reasons = append(reasons, fmt.Sprintf("window_blur_%ds", int(p.DurationSeconds)))
		}
	}

	return clamp01(score), reasons
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
