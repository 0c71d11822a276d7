package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/reelvault/asset-services/models/asset"
	"github.com/reelvault/asset-services/models/common"
)

const bytesPerMB = 1024 * 1024

// Bounds are the inclusive size and duration limits for assets.
type Bounds struct {
	MaxDurationSeconds float64
	MaxSizeBytes       int64
	MinDurationSeconds float64
	MinSizeBytes       int64
}

// BoundsFromConfig copies the asset limits out of config.
func BoundsFromConfig(config *common.Config) Bounds {
	return Bounds{
		MaxDurationSeconds: config.MaxDurationSeconds,
		MaxSizeBytes:       config.MaxSizeBytes,
		MinDurationSeconds: config.MinDurationSeconds,
		MinSizeBytes:       config.MinSizeBytes,
	}
}

// Validator checks candidate assets against Bounds. It has no
// state beyond its bounds, so one Validator can serve any number
// of goroutines.
type Validator struct {
	Bounds Bounds
}

func NewValidator(bounds Bounds) *Validator {
	return &Validator{Bounds: bounds}
}

// Validate returns a validation error describing the first bound
// the asset violates, or nil. Size is checked before duration.
func (v *Validator) Validate(a *asset.Asset) error {
	if msg := v.checkSize(a.SizeBytes); msg != "" {
		return common.NewValidationError(msg)
	}
	if msg := v.checkDuration(a.DurationSeconds); msg != "" {
		return common.NewValidationError(msg)
	}
	return nil
}

func (v *Validator) checkSize(size int64) string {
	if size > v.Bounds.MaxSizeBytes {
		return fmt.Sprintf("File size exceeds the maximum limit of %g MB.",
			float64(v.Bounds.MaxSizeBytes)/bytesPerMB)
	}
	if size < v.Bounds.MinSizeBytes {
		return fmt.Sprintf("File size is below the minimum limit of %g MB.",
			float64(v.Bounds.MinSizeBytes)/bytesPerMB)
	}
	return ""
}

func (v *Validator) checkDuration(duration float64) string {
	if math.IsNaN(duration) || math.IsInf(duration, 0) {
		return "Video duration could not be determined."
	}
	if duration < v.Bounds.MinDurationSeconds {
		return fmt.Sprintf("Video duration is too short. Minimum duration is %g seconds.",
			v.Bounds.MinDurationSeconds)
	}
	if duration > v.Bounds.MaxDurationSeconds {
		return fmt.Sprintf("Video duration is too long. Maximum duration is %g seconds.",
			v.Bounds.MaxDurationSeconds)
	}
	return ""
}

// ValidateIDSet checks that raw is a non-empty list of integers and
// returns them as int64s in the same order. Elements may be int,
// int64, json.Number or float64 values with no fractional part.
func ValidateIDSet(raw []any) ([]int64, error) {
	if len(raw) == 0 {
		return nil, common.NewValidationError("video_ids must be a non-empty list.")
	}
	ids := make([]int64, len(raw))
	for i, item := range raw {
		id, ok := toInt64(item)
		if !ok {
			return nil, common.NewValidationError("All items in video_ids must be integers.")
		}
		ids[i] = id
	}
	return ids, nil
}

func toInt64(item any) (int64, bool) {
	switch value := item.(type) {
	case int:
		return int64(value), true
	case int64:
		return value, true
	case json.Number:
		id, err := strconv.ParseInt(value.String(), 10, 64)
		return id, err == nil
	case float64:
		if math.IsNaN(value) || math.IsInf(value, 0) || value != math.Trunc(value) {
			return 0, false
		}
		if value < math.MinInt64 || value >= math.MaxInt64 {
			return 0, false
		}
		return int64(value), true
	}
	return 0, false
}
