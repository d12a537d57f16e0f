// Package metrics aggregates pushed backend metrics into a display projection and a bounded history.
package metrics

import (
	"math"
	"strconv"
)

// Update is one metrics event pushed by the backend.
// Absent numeric fields decode as zero.
type Update struct {
	HealthStatus          string  `json:"health_status"`
	ActiveRequests        float64 `json:"active_requests"`
	AvgTokensPerSecond    float64 `json:"avg_tokens_per_second"`
	RequestsTotal         float64 `json:"requests_total"`
	TokensGeneratedTotal  float64 `json:"tokens_generated_total"`
	GenerationDurationAvg float64 `json:"generation_duration_avg"`
	Timestamp             string  `json:"timestamp,omitempty"`
	Error                 string  `json:"error,omitempty"`
}

// Failed reports whether the backend could not collect metrics for this event.
func (u Update) Failed() bool {
	return u.Error != ""
}

// UnknownHealth is shown when an update carries no health status
const UnknownHealth = "Unknown"

// Display is the text shown for the latest update.
type Display struct {
	Health          string
	ActiveRequests  string
	TokensPerSecond string
	RequestsTotal   string
	TokensTotal     string
	AvgGeneration   string
}

// Display projects the update into display strings: counts and rates are rounded
// and the average generation time is shown in whole milliseconds.
func (u Update) Display() Display {
	health := u.HealthStatus
	if health == "" {
		health = UnknownHealth
	}

	return Display{
		Health:          health,
		ActiveRequests:  strconv.FormatFloat(u.ActiveRequests, 'f', -1, 64),
		TokensPerSecond: formatRounded(u.AvgTokensPerSecond),
		RequestsTotal:   formatRounded(u.RequestsTotal),
		TokensTotal:     formatRounded(u.TokensGeneratedTotal),
		AvgGeneration:   formatRounded(u.GenerationDurationAvg*1000) + "ms",
	}
}

// round rounds half up, so 2.5 becomes 3 and -2.5 becomes -2
func round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Floor(v + 0.5)
}

func formatRounded(v float64) string {
	return strconv.FormatFloat(round(v), 'f', 0, 64)
}
