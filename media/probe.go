package media

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrNoDuration = errors.New("media has no measurable duration")

type probeOutput struct {
	Format struct {
		Duration   string `json:"duration"`
		FormatName string `json:"format_name"`
	} `json:"format"`
}

// parseProbeOutput pulls the container duration out of the JSON
// printed by ffprobe -show_format.
func parseProbeOutput(payload []byte) (float64, error) {
	var out probeOutput
	if err := json.Unmarshal(payload, &out); err != nil {
		return 0, fmt.Errorf("decode ffprobe output: %w", err)
	}
	raw := strings.TrimSpace(out.Format.Duration)
	if raw == "" || raw == "N/A" {
		return 0, ErrNoDuration
	}
	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", raw, err)
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		return 0, ErrNoDuration
	}
	return duration, nil
}
