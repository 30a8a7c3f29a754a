package baseline

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Baseline is a user's personal historical average behavioral profile. The
// feature map is free-form JSON; numeric keys carry running means, anything
// else is carried verbatim.
type Baseline struct {
	ID          uuid.UUID              `json:"id"`
	UserID      uuid.UUID              `json:"user_id"`
	Features    map[string]interface{} `json:"features"`
	SampleCount int                    `json:"sample_count"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// New creates a baseline from a first sample.
func New(userID uuid.UUID, features map[string]interface{}) *Baseline {
	now := time.Now().UTC()
	return &Baseline{
		ID:          uuid.New(),
		UserID:      userID,
		Features:    features,
		SampleCount: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Feature returns a numeric feature value, reporting whether the key exists
// and is coercible to a number.
func (b *Baseline) Feature(key string) (float64, bool) {
	if b == nil || b.Features == nil {
		return 0, false
	}
	v, ok := b.Features[key]
	if !ok {
		return 0, false
	}
	return coerceFloat(v)
}

// FeatureOr returns a numeric feature value or the given default.
func (b *Baseline) FeatureOr(key string, def float64) float64 {
	if v, ok := b.Feature(key); ok {
		return v
	}
	return def
}

// Fold merges one new sample into the baseline using the running-average
// recurrence and bumps the sample count. Callers are responsible for
// serializing concurrent folds for the same user (single-writer
// read-modify-write at the persistence layer).
func (b *Baseline) Fold(sample map[string]interface{}) {
	b.Features = Merge(b.Features, sample, b.SampleCount)
	b.SampleCount++
	b.UpdatedAt = time.Now().UTC()
}

// Merge combines numeric features by incremental average:
//
//	merged = (oldMean*oldCount + newValue) / (oldCount + 1)
//
// Keys missing from the old map initialize to the new value. Values that are
// not coercible to a number on either side are overwritten by the new value
// (last-write-wins). A nil old map yields the new map outright.
func Merge(old, sample map[string]interface{}, oldCount int) map[string]interface{} {
	if old == nil {
		return sample
	}

	merged := make(map[string]interface{}, len(old)+len(sample))
	for k, v := range old {
		merged[k] = v
	}
	for k, vNew := range sample {
		vOld, exists := old[k]
		if !exists {
			merged[k] = vNew
			continue
		}
		fOld, okOld := coerceFloat(vOld)
		fNew, okNew := coerceFloat(vNew)
		if okOld && okNew {
			merged[k] = (fOld*float64(oldCount) + fNew) / float64(oldCount+1)
		} else {
			merged[k] = vNew
		}
	}
	return merged
}

// coerceFloat attempts to read a feature value as a number. JSON decoding
// yields float64 for numbers, but baselines written by older clients carry
// ints and numeric strings too.
func coerceFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
