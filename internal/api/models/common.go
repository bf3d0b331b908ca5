// Package models provides request and response models for the Climatica API.
package models

import (
	"encoding/json"
	"time"
)

// WeatherCondition is the label of an observed or forecast weather state.
type WeatherCondition string

const (
	ConditionClear  WeatherCondition = "CLEAR"
	ConditionCloudy WeatherCondition = "CLOUDY"
	ConditionRain   WeatherCondition = "RAIN"
	ConditionSnow   WeatherCondition = "SNOW"
	ConditionFog    WeatherCondition = "FOG"
	ConditionStorm  WeatherCondition = "STORM"
)

// HealthStatus represents the health status of a service.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// Timestamp is a helper type for time.Time with RFC 3339 JSON formatting.
type Timestamp time.Time

// MarshalJSON implements json.Marshaler for Timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).Format(time.RFC3339))
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// Equal reports whether t and u are the same instant.
func (t Timestamp) Equal(u Timestamp) bool {
	return time.Time(t).Equal(time.Time(u))
}
