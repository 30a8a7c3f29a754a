package anomaly

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBootstrapScorer(t *testing.T) *Scorer {
	t.Helper()
	return NewScorer("", zap.NewNop())
}

func TestNewScorer_BootstrapsWithoutArtifact(t *testing.T) {
	s := newBootstrapScorer(t)

	assert.Equal(t, summaryFeatureNames, s.FeatureNames())

	p, d := s.Score([]float64{45, 0.5, 500, 150})
	assert.GreaterOrEqual(t, p, 0.0)
	assert.LessOrEqual(t, p, 1.0)
	assert.False(t, math.IsNaN(d))
}

func TestScore_TypicalVsExtreme(t *testing.T) {
	s := newBootstrapScorer(t)

	typical, _ := s.Score([]float64{45, 0.5, 500, 150})
	extreme, _ := s.Score([]float64{200, 40, 5, 2})

	assert.Greater(t, extreme, typical,
		"behavior far outside the training distribution must score higher")
}

func TestScore_MalformedInputDegradesToZero(t *testing.T) {
	s := newBootstrapScorer(t)

	p, d := s.Score([]float64{45, 0.5})
	assert.Zero(t, p)
	assert.Zero(t, d)

	p, d = s.Score([]float64{math.NaN(), 0.5, 500, 150})
	assert.Zero(t, p)
	assert.Zero(t, d)

	p, d = s.Score([]float64{math.Inf(1), 0.5, 500, 150})
	assert.Zero(t, p)
	assert.Zero(t, d)
}

func TestScore_Deterministic(t *testing.T) {
	s := newBootstrapScorer(t)
	x := []float64{60, 3, 300, 90}

	p1, d1 := s.Score(x)
	p2, d2 := s.Score(x)

	assert.Equal(t, p1, p2)
	assert.Equal(t, d1, d2)
}

func TestReset_ReproducesBootstrapModel(t *testing.T) {
	s := newBootstrapScorer(t)
	x := []float64{70, 2, 420, 110}

	before, _ := s.Score(x)
	s.Reset()
	after, _ := s.Score(x)

	assert.Equal(t, before, after, "bootstrap is seeded and must reproduce")
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anomaly.json")

	original := newBootstrapScorer(t)
	require.NoError(t, original.Save(path))

	loaded := NewScorer(path, zap.NewNop())
	assert.Equal(t, original.FeatureNames(), loaded.FeatureNames())

	x := []float64{55, 1, 480, 130}
	pOrig, dOrig := original.Score(x)
	pLoaded, dLoaded := loaded.Score(x)
	assert.InDelta(t, pOrig, pLoaded, 1e-12)
	assert.InDelta(t, dOrig, dLoaded, 1e-12)
}

func TestNewScorer_CorruptArtifactFallsBackToBootstrap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anomaly.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"feature_names":["a"]}`), 0o644))

	s := NewScorer(path, zap.NewNop())

	// Half-missing artifact is discarded; the scorer still works.
	assert.Equal(t, summaryFeatureNames, s.FeatureNames())
	p, _ := s.Score([]float64{45, 0.5, 500, 150})
	assert.GreaterOrEqual(t, p, 0.0)
	assert.LessOrEqual(t, p, 1.0)
}

func TestFit_RetrainsOnNewData(t *testing.T) {
	s := newBootstrapScorer(t)

	rows := make([][]float64, 60)
	for i := range rows {
		rows[i] = []float64{40 + float64(i%10), float64(i % 3), 450 + float64(i), 120 + float64(i%20)}
	}
	require.NoError(t, s.Fit(rows, summaryFeatureNames))

	p, _ := s.Score([]float64{45, 1, 480, 130})
	assert.GreaterOrEqual(t, p, 0.0)
	assert.LessOrEqual(t, p, 1.0)
}

func TestFit_RejectsMismatchedInput(t *testing.T) {
	s := newBootstrapScorer(t)

	assert.Error(t, s.Fit(nil, summaryFeatureNames))
	assert.Error(t, s.Fit([][]float64{{1, 2}}, summaryFeatureNames))
}

func TestScaler_Transform(t *testing.T) {
	sc := fitScaler([][]float64{{10, 100}, {20, 200}, {30, 300}})

	scaled, err := sc.Transform([]float64{20, 200})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, scaled[0], 1e-9)
	assert.InDelta(t, 0.0, scaled[1], 1e-9)

	_, err = sc.Transform([]float64{20})
	assert.Error(t, err)
}

func TestAvgPathLength(t *testing.T) {
	// Known reference values for the isolation forest normalizer.
	assert.Zero(t, avgPathLength(1))
	assert.InDelta(t, 0.1544, avgPathLength(2), 1e-3)
	assert.Greater(t, avgPathLength(256), avgPathLength(16))
}
