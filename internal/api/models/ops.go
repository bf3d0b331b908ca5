package models

// Health is the liveness probe body.
type Health struct {
	Status    HealthStatus `json:"status"`
	Time      Timestamp    `json:"time"`
	Version   string       `json:"version"`
	BuildTime string       `json:"buildTime,omitempty"`
	Uptime    string       `json:"uptime"`
}

// Dependency is one backing store or service checked by the readiness probe.
type Dependency struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Backend string       `json:"backend"`
}

// Readiness is the readiness probe body.
type Readiness struct {
	Status       HealthStatus `json:"status"`
	Time         Timestamp    `json:"time"`
	Dependencies []Dependency `json:"dependencies"`
}
