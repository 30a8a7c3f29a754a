package risk

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/exampulse/exampulse-backend/internal/domain/behavior"
	"github.com/exampulse/exampulse-backend/internal/domain/event"
)

func tabSwitchEvents(n int) []*event.Event {
	events := make([]*event.Event, n)
	for i := range events {
		events[i] = event.New(uuid.New(), event.TabSwitch{Count: 1})
	}
	return events
}

func blurEvents(durations ...float64) []*event.Event {
	events := make([]*event.Event, len(durations))
	for i, d := range durations {
		events[i] = event.New(uuid.New(), event.WindowBlur{DurationSeconds: d})
	}
	return events
}

func TestEvaluateSession_CalmSessionScoresLow(t *testing.T) {
	b := behavior.Summary{TypingSpeedWPM: 46, MouseSpeedPxs: 510, AvgQuestionTimeSec: 140}

	score, reasons := evaluateSession(b, nil, nil)

	// typing 0.1, tabs 0, mouse 0.1, answers 0.1, focus 0.
	assert.InDelta(t, 0.1*typingComponentWeight+0.1*mouseComponentWeight+0.1*answerComponentWeight, score, 1e-9)
	assert.Empty(t, reasons)
	assert.Equal(t, LevelLow, LevelFor(score))
}

func TestEvaluateSession_AnswerSpeedIsUShaped(t *testing.T) {
	base := baselineWith(map[string]interface{}{"avg_question_time_sec": 100.0})
	calm := behavior.Summary{TypingSpeedWPM: 45, MouseSpeedPxs: 500}

	fast := calm
	fast.AvgQuestionTimeSec = 20
	fastScore, fastReasons := evaluateSession(fast, base, nil)
	assert.Contains(t, fastReasons, "answers_too_fast")

	slow := calm
	slow.AvgQuestionTimeSec = 350
	slowScore, slowReasons := evaluateSession(slow, base, nil)
	assert.Contains(t, slowReasons, "answers_too_slow")

	normal := calm
	normal.AvgQuestionTimeSec = 110
	normalScore, _ := evaluateSession(normal, base, nil)

	assert.Greater(t, fastScore, normalScore)
	assert.Greater(t, slowScore, normalScore)
	assert.Greater(t, fastScore, slowScore)
}

func TestEvaluateSession_TabSwitchTiers(t *testing.T) {
	b := behavior.Summary{TypingSpeedWPM: 45, MouseSpeedPxs: 500, AvgQuestionTimeSec: 150}

	baseScore, _ := evaluateSession(b, nil, nil)
	lightScore, _ := evaluateSession(b, nil, tabSwitchEvents(2))
	heavyScore, _ := evaluateSession(b, nil, tabSwitchEvents(11))

	assert.InDelta(t, baseScore+0.2*tabComponentWeight, lightScore, 1e-9)
	assert.InDelta(t, baseScore+1.0*tabComponentWeight, heavyScore, 1e-9)
}

func TestEvaluateSession_SlowMouseFlagged(t *testing.T) {
	base := baselineWith(map[string]interface{}{"mouse_speed_pxs": 500.0})
	b := behavior.Summary{TypingSpeedWPM: 45, MouseSpeedPxs: 100, AvgQuestionTimeSec: 150}

	_, reasons := evaluateSession(b, base, nil)

	assert.Contains(t, reasons, "mouse_speed_abnormally_low")
}

func TestEvaluateSession_FocusLossTiers(t *testing.T) {
	b := behavior.Summary{TypingSpeedWPM: 45, MouseSpeedPxs: 500, AvgQuestionTimeSec: 150}

	baseScore, _ := evaluateSession(b, nil, nil)
	briefScore, _ := evaluateSession(b, nil, blurEvents(10))
	longScore, longReasons := evaluateSession(b, nil, blurEvents(70, 80))

	assert.InDelta(t, baseScore+0.1*focusComponentWeight, briefScore, 1e-9)
	assert.InDelta(t, baseScore+0.9*focusComponentWeight, longScore, 1e-9)
	assert.Contains(t, longReasons[len(longReasons)-1], "focus_lost_150")
}

func TestEvaluateSession_HeavyDeviationEverywhereStaysBounded(t *testing.T) {
	base := baselineWith(map[string]interface{}{
		"wpm_mean":              50.0,
		"mouse_speed_pxs":       500.0,
		"avg_question_time_sec": 100.0,
	})
	b := behavior.Summary{TypingSpeedWPM: 150, MouseSpeedPxs: 50, AvgQuestionTimeSec: 10}
	events := append(tabSwitchEvents(12), blurEvents(200)...)

	score, reasons := evaluateSession(b, base, events)

	assert.LessOrEqual(t, score, 1.0)
	assert.GreaterOrEqual(t, score, 0.7)
	assert.NotEmpty(t, reasons)
}
