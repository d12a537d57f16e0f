package chat

// Level grades an indicator for display
type Level string

const (
	LevelOK      Level = "success"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

// Health is the backend health indicator
type Health struct {
	Label string
	Level Level
}

var (
	HealthHealthy   = Health{Label: "Healthy", Level: LevelOK}
	HealthDegraded  = Health{Label: "Degraded", Level: LevelWarning}
	HealthUnhealthy = Health{Label: "Unhealthy", Level: LevelDanger}
	HealthOffline   = Health{Label: "Offline", Level: LevelDanger}
)

// healthFromStatus maps a reported status to the indicator. Unrecognized statuses count as healthy.
func healthFromStatus(status string) Health {
	switch status {
	case "degraded":
		return HealthDegraded
	case "unhealthy":
		return HealthUnhealthy
	default:
		return HealthHealthy
	}
}

// ChannelStatus is the push channel indicator
type ChannelStatus struct {
	Label string
	Level Level
}

var (
	ChannelLive    = ChannelStatus{Label: "Live", Level: LevelOK}
	ChannelOffline = ChannelStatus{Label: "Offline", Level: LevelDanger}
)
