package models

// WeatherData is the observed weather snapshot of a region.
type WeatherData struct {
	ID                  int64            `json:"id"`
	RegionID            int64            `json:"regionId"`
	RegionName          string           `json:"regionName"`
	Temperature         float64          `json:"temperature"`
	Humidity            float64          `json:"humidity"`
	WindSpeed           float64          `json:"windSpeed"`
	WeatherCondition    WeatherCondition `json:"weatherCondition"`
	PrecipitationAmount float64          `json:"precipitationAmount"`
	MeasurementDateTime Timestamp        `json:"measurementDateTime"`
	WeatherForecast     []int64          `json:"weatherForecast"`
}

// WeatherCreateRequest is the request body for POST /region/weather.
type WeatherCreateRequest struct {
	RegionID            int64      `json:"regionId"`
	Temperature         float64    `json:"temperature"`
	Humidity            float64    `json:"humidity"`
	WindSpeed           float64    `json:"windSpeed"`
	WeatherCondition    string     `json:"weatherCondition"`
	PrecipitationAmount float64    `json:"precipitationAmount"`
	MeasurementDateTime *Timestamp `json:"measurementDateTime"`
	WeatherForecast     []int64    `json:"weatherForecast,omitempty"`
}

// WeatherUpdateRequest is the request body for PUT /region/weather/{regionId}.
// Every field is required: the update overwrites the stored record.
type WeatherUpdateRequest struct {
	RegionName          *string    `json:"regionName"`
	Temperature         *float64   `json:"temperature"`
	Humidity            *float64   `json:"humidity"`
	WindSpeed           *float64   `json:"windSpeed"`
	WeatherCondition    *string    `json:"weatherCondition"`
	PrecipitationAmount *float64   `json:"precipitationAmount"`
	MeasurementDateTime *Timestamp `json:"measurementDateTime"`
}

// WeatherSearch holds the optional filters for weather search.
type WeatherSearch struct {
	StartDateTime    *Timestamp
	EndDateTime      *Timestamp
	RegionID         *int64
	WeatherCondition *string
}

// Forecast is a predicted weather record loosely tied to a region.
type Forecast struct {
	ID               int64            `json:"id"`
	RegionID         int64            `json:"regionId"`
	DateTime         Timestamp        `json:"dateTime"`
	Temperature      float64          `json:"temperature"`
	WeatherCondition WeatherCondition `json:"weatherCondition"`
}

// ForecastCreateRequest is the request body for POST /region/weather/forecast.
type ForecastCreateRequest struct {
	RegionID         int64      `json:"regionId"`
	DateTime         *Timestamp `json:"dateTime"`
	Temperature      float64    `json:"temperature"`
	WeatherCondition string     `json:"weatherCondition"`
}

// ForecastUpdateRequest is the request body for PUT /region/weather/forecast/{forecastId}.
type ForecastUpdateRequest struct {
	DateTime         *Timestamp `json:"dateTime"`
	Temperature      *float64   `json:"temperature,omitempty"`
	WeatherCondition *string    `json:"weatherCondition,omitempty"`
}
