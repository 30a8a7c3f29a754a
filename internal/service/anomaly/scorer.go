package anomaly

import (
	"encoding/json"
	"math"
	"math/rand"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/exampulse/exampulse-backend/internal/domain/errors"
)

// logisticSteepness maps the raw decision value to a probability:
// p = 1/(1+exp(k*decision)). Decision values near -0.5 (anomalous) map close
// to 1, values near +0.5 (typical) close to 0.
const logisticSteepness = 5.0

// Feature order consumed by the scorer's compact behavior summary, matching
// the synthetic bootstrap distribution below.
var summaryFeatureNames = []string{
	"typing_speed_wpm",
	"tab_switch_count",
	"mouse_speed_pxs",
	"avg_question_time_sec",
}

// bootstrap distribution of a typical exam taker: ~45 wpm typing, about one
// tab switch every other session, ~500 px/s mouse speed, ~150 s per question.
var (
	bootstrapMeans  = []float64{45, 0.5, 500, 150}
	bootstrapScales = []float64{10, 0.5, 100, 30}
)

const bootstrapSamples = 100

// Scorer wraps the unsupervised outlier model behind the bounded-probability
// contract: any well-formed feature vector maps to a score in [0,1], and
// malformed input degrades to 0.0 instead of propagating. One Scorer is
// built at wiring time and shared; it is read-mostly after construction, and
// Reset exists so tests can re-bootstrap deterministically.
type Scorer struct {
	logger *zap.Logger
	path   string

	mu      sync.RWMutex
	scaler  *StandardScaler
	forest  *IsolationForest
	names   []string
	trained bool
}

// artifact is the persisted model bundle. The scaler and forest are only
// valid together; loading one without the other is a configuration error.
type artifact struct {
	Version      int             `json:"version"`
	FeatureNames []string        `json:"feature_names"`
	Scaler       *StandardScaler `json:"scaler"`
	Forest       *IsolationForest `json:"forest"`
}

// NewScorer loads the model artifact at path, or self-initializes on
// synthetic typical-behavior data when no usable artifact exists, so scoring
// is always available. A corrupt or half-missing artifact is logged and
// replaced by the bootstrap model, never surfaced to the caller.
func NewScorer(path string, logger *zap.Logger) *Scorer {
	s := &Scorer{logger: logger, path: path}

	if path != "" {
		if err := s.load(path); err == nil {
			logger.Info("anomaly model loaded", zap.String("path", path))
			return s
		} else if !os.IsNotExist(err) {
			logger.Warn("anomaly model artifact unusable, falling back to bootstrap",
				zap.String("path", path), zap.Error(err))
		}
	}

	s.bootstrap()
	logger.Info("anomaly model initialized from synthetic baseline data")
	return s
}

// FeatureNames returns the feature ordering the model was fitted on.
func (s *Scorer) FeatureNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Score maps a feature vector to an anomaly probability in [0,1] plus the
// model's raw decision value. Dimension mismatches and non-finite inputs
// return 0.0 rather than an error: a scoring call must never block the
// caller's transaction on bad telemetry.
func (s *Scorer) Score(features []float64) (probability, decision float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.trained {
		return 0, 0
	}
	for _, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			s.logger.Warn("anomaly scoring skipped: non-finite feature value")
			return 0, 0
		}
	}

	scaled, err := s.scaler.Transform(features)
	if err != nil {
		s.logger.Warn("anomaly scoring skipped", zap.Error(err))
		return 0, 0
	}

	decision = s.forest.Decision(scaled)
	probability = 1 / (1 + math.Exp(decision*logisticSteepness))
	return probability, decision
}

// Save persists the model and its standardization parameters as one bundle.
func (s *Scorer) Save(path string) error {
	s.mu.RLock()
	bundle := artifact{
		Version:      1,
		FeatureNames: s.names,
		Scaler:       s.scaler,
		Forest:       s.forest,
	}
	s.mu.RUnlock()

	data, err := json.Marshal(bundle)
	if err != nil {
		return errors.Wrap(err, "marshaling model artifact")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "writing model artifact")
	}
	return nil
}

// Reset discards the current model and re-runs the synthetic bootstrap.
// Intended for tests that need deterministic fresh state.
func (s *Scorer) Reset() {
	s.bootstrap()
}

func (s *Scorer) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var bundle artifact
	if err := json.Unmarshal(data, &bundle); err != nil {
		return errors.NewModelArtifactError("model artifact is not valid JSON").WithCause(err)
	}
	if bundle.Scaler == nil || bundle.Forest == nil {
		return errors.NewModelArtifactError("model artifact must contain both model and scaler")
	}
	if len(bundle.FeatureNames) != len(bundle.Scaler.Means) {
		return errors.NewModelArtifactError("model artifact feature names do not match scaler dimension")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scaler = bundle.Scaler
	s.forest = bundle.Forest
	s.names = bundle.FeatureNames
	s.trained = true
	return nil
}

// bootstrap fits the scaler and forest on synthetic draws from the typical
// exam-taker distribution. Seeded so the fallback model is reproducible.
func (s *Scorer) bootstrap() {
	rng := rand.New(rand.NewSource(42))

	rows := make([][]float64, bootstrapSamples)
	for i := range rows {
		row := make([]float64, len(bootstrapMeans))
		for j := range row {
			row[j] = bootstrapMeans[j] + rng.NormFloat64()*bootstrapScales[j]
		}
		rows[i] = row
	}

	scaler := fitScaler(rows)
	scaled := make([][]float64, len(rows))
	for i, row := range rows {
		scaled[i], _ = scaler.Transform(row)
	}
	forest := fitForest(scaled, rng)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scaler = scaler
	s.forest = forest
	s.names = summaryFeatureNames
	s.trained = true
}

// Fit retrains the model on a feature matrix (rows = sessions) with the
// given feature ordering, replacing the current model. Offline path used to
// promote a model trained on the extractor's full feature matrix.
func (s *Scorer) Fit(rows [][]float64, names []string) error {
	if len(rows) == 0 {
		return errors.NewValidationError("EMPTY_TRAINING_SET", "training matrix must not be empty")
	}
	for _, row := range rows {
		if len(row) != len(names) {
			return errors.NewValidationError("DIMENSION_MISMATCH", "training rows must match feature names")
		}
	}

	rng := rand.New(rand.NewSource(42))
	scaler := fitScaler(rows)
	scaled := make([][]float64, len(rows))
	for i, row := range rows {
		scaled[i], _ = scaler.Transform(row)
	}
	forest := fitForest(scaled, rng)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scaler = scaler
	s.forest = forest
	s.names = append([]string(nil), names...)
	s.trained = true
	return nil
}
