package risk

// Hybrid combination weights. Heuristic signals dominate because they are
// rule-based and auditable; the anomaly model contributes a secondary
// catch-all adjustment.
const (
	HeuristicWeight = 0.7
	AnomalyWeight   = 0.3
)

// Risk level thresholds, half-open: a score of exactly 0.3 is medium and
// exactly 0.7 is high. AlertThreshold shares the high boundary.
const (
	MediumThreshold = 0.3
	HighThreshold   = 0.7
	AlertThreshold  = HighThreshold
)

// Event-level rule contributions.
const (
	tabSwitchWeight   = 0.15
	tabSwitchCap      = 0.6
	copyPasteScore    = 0.6
	typingJumpScore   = 0.4  // wpm ratio >= 2.0 against baseline
	typingRiseScore   = 0.25 // wpm ratio in [1.5, 2.0)
	typingNoBaseScore = 0.25 // wpm >= 120 with no usable baseline
	windowBlurScore   = 0.35 // focus lost for >= 30 seconds

	typingJumpRatio    = 2.0
	typingRiseRatio    = 1.5
	typingHighWPM      = 120.0
	minUsableBaseWPM   = 5.0
	blurTriggerSeconds = 30.0
)

// Session-level component weights (sum to 1).
const (
	typingComponentWeight = 0.20
	tabComponentWeight    = 0.30
	mouseComponentWeight  = 0.15
	answerComponentWeight = 0.20
	focusComponentWeight  = 0.15
)

// Population defaults used when a baseline is absent or missing a key.
const (
	defaultBaselineWPM        = 45.0
	defaultBaselineMouseSpeed = 500.0
	defaultBaselineAnswerTime = 150.0
)
