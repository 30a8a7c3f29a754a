package session

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StartsInProgressWithFullIntegrity(t *testing.T) {
	s := New(uuid.New(), uuid.New())

	assert.Equal(t, StatusInProgress, s.Status)
	assert.Equal(t, 1.0, s.IntegrityScore)
	assert.Zero(t, s.RiskScore)
	assert.Zero(t, s.FlaggedIncidents)
}

func TestRecordRisk_IntegrityIsComplement(t *testing.T) {
	s := New(uuid.New(), uuid.New())

	s.RecordRisk(0.62)

	assert.InDelta(t, 0.62, s.RiskScore, 1e-9)
	assert.InDelta(t, 0.38, s.IntegrityScore, 1e-9)
}

func TestSubmit(t *testing.T) {
	s := New(uuid.New(), uuid.New())
	answers := json.RawMessage(`{"q1": "42"}`)
	taken := 1750

	require.NoError(t, s.Submit(answers, &taken))
	assert.Equal(t, StatusSubmitted, s.Status)
	assert.Equal(t, answers, s.Answers)
	require.NotNil(t, s.SubmittedAt)

	// A second submit must fail.
	assert.Error(t, s.Submit(answers, &taken))
}

func TestStatusRoundTrip(t *testing.T) {
	for _, st := range []Status{StatusInProgress, StatusSubmitted, StatusTerminated} {
		assert.Equal(t, st, StatusFromString(st.String()))
	}
	assert.Equal(t, StatusInProgress, StatusFromString("garbage"))
}
