package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/climatica/climatica/internal/api/models"
	"github.com/climatica/climatica/internal/api/response"
	"github.com/climatica/climatica/internal/apperr"
	"github.com/climatica/climatica/internal/forecast"
	"github.com/climatica/climatica/internal/weather"
)

// WeatherHandler handles weather and forecast endpoints.
type WeatherHandler struct {
	weather   *weather.Service
	forecasts *forecast.Service
	log       zerolog.Logger
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(weatherService *weather.Service, forecasts *forecast.Service, log zerolog.Logger) *WeatherHandler {
	return &WeatherHandler{
		weather:   weatherService,
		forecasts: forecasts,
		log:       log,
	}
}

// SearchWeather handles GET /region/weather/search - page through weather records.
func (h *WeatherHandler) SearchWeather(w http.ResponseWriter, r *http.Request) {
	from, size, err := page(r)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	input, err := weatherSearch(r)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	found, err := h.weather.Search(r.Context(), input, from, size)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.JSON(w, r, http.StatusOK, found)
}

// CreateWeather handles POST /region/weather - record the weather of a region.
func (h *WeatherHandler) CreateWeather(w http.ResponseWriter, r *http.Request) {
	var input models.WeatherCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	created, err := h.weather.Create(r.Context(), &input)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.Created(w, r, "/region/weather/"+strconv.FormatInt(created.RegionID, 10), created)
}

// GetWeather handles GET /region/weather/{regionId} - get the weather of a region.
func (h *WeatherHandler) GetWeather(w http.ResponseWriter, r *http.Request) {
	regionID, err := pathID(r, "regionId")
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	d, err := h.weather.GetByRegionID(r.Context(), regionID)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.JSON(w, r, http.StatusOK, d)
}

// UpdateWeather handles PUT /region/weather/{regionId} - overwrite the weather
// of a region and rename the region.
func (h *WeatherHandler) UpdateWeather(w http.ResponseWriter, r *http.Request) {
	regionID, err := pathID(r, "regionId")
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	var input models.WeatherUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	updated, err := h.weather.UpdateWeatherAndRegion(r.Context(), actorID(r.Context()), regionID, &input)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.JSON(w, r, http.StatusOK, updated)
}

// DeleteWeather handles DELETE /region/weather/{regionId} - delete the weather of a region.
func (h *WeatherHandler) DeleteWeather(w http.ResponseWriter, r *http.Request) {
	regionID, err := pathID(r, "regionId")
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	if err := h.weather.DeleteByRegionID(r.Context(), regionID); err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.NoContent(w, r)
}

// MergeForecast handles POST /region/{regionId}/weather/{forecastId} - attach a
// forecast id to the weather of a region.
func (h *WeatherHandler) MergeForecast(w http.ResponseWriter, r *http.Request) {
	regionID, forecastID, err := regionAndForecastIDs(r)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	d, err := h.weather.MergeForecastIntoRegion(r.Context(), regionID, forecastID)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.JSON(w, r, http.StatusOK, d)
}

// RemoveForecast handles DELETE /region/{regionId}/weather/{forecastId} - detach
// a forecast id from the weather of a region.
func (h *WeatherHandler) RemoveForecast(w http.ResponseWriter, r *http.Request) {
	regionID, forecastID, err := regionAndForecastIDs(r)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	d, err := h.weather.RemoveForecastFromRegion(r.Context(), regionID, forecastID)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.JSON(w, r, http.StatusOK, d)
}

// CreateForecast handles POST /region/weather/forecast - create a forecast.
func (h *WeatherHandler) CreateForecast(w http.ResponseWriter, r *http.Request) {
	var input models.ForecastCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	created, err := h.forecasts.Create(r.Context(), &input)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.Created(w, r, "/region/weather/forecast/"+strconv.FormatInt(created.ID, 10), created)
}

// GetForecast handles GET /region/weather/forecast/{forecastId} - get a forecast.
func (h *WeatherHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "forecastId")
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	f, err := h.forecasts.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.JSON(w, r, http.StatusOK, f)
}

// UpdateForecast handles PUT /region/weather/forecast/{forecastId} - update a forecast.
func (h *WeatherHandler) UpdateForecast(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "forecastId")
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	var input models.ForecastUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	updated, err := h.forecasts.Update(r.Context(), id, &input)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.JSON(w, r, http.StatusOK, updated)
}

// DeleteForecast handles DELETE /region/weather/forecast/{forecastId} - delete a forecast.
func (h *WeatherHandler) DeleteForecast(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "forecastId")
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	deleted, err := h.forecasts.Delete(r.Context(), id)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}
	if !deleted {
		response.NotFound(w, r, "forecast not found")
		return
	}

	response.NoContent(w, r)
}

func regionAndForecastIDs(r *http.Request) (regionID, forecastID int64, err error) {
	if regionID, err = pathID(r, "regionId"); err != nil {
		return 0, 0, err
	}
	if forecastID, err = pathID(r, "forecastId"); err != nil {
		return 0, 0, err
	}
	return regionID, forecastID, nil
}

// weatherSearch parses the weather search filters from the query string.
func weatherSearch(r *http.Request) (models.WeatherSearch, error) {
	var (
		input       models.WeatherSearch
		fieldErrors []models.FieldError
	)

	parseTime := func(name string) *models.Timestamp {
		v := r.URL.Query().Get(name)
		if v == "" {
			return nil
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			fieldErrors = append(fieldErrors, models.FieldError{Field: name, Message: "must be an RFC 3339 timestamp", Code: "INVALID_FORMAT"})
			return nil
		}
		ts := models.Timestamp(t)
		return &ts
	}
	input.StartDateTime = parseTime("startDateTime")
	input.EndDateTime = parseTime("endDateTime")

	if v := r.URL.Query().Get("regionId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			fieldErrors = append(fieldErrors, models.FieldError{Field: "regionId", Message: "must be an integer", Code: "INVALID_FORMAT"})
		} else {
			input.RegionID = &id
		}
	}
	if v := r.URL.Query().Get("weatherCondition"); v != "" {
		input.WeatherCondition = &v
	}

	if len(fieldErrors) > 0 {
		return models.WeatherSearch{}, &apperr.ValidationError{Errors: fieldErrors}
	}
	return input, nil
}
