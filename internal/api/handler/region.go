package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/climatica/climatica/internal/api/models"
	"github.com/climatica/climatica/internal/api/response"
	"github.com/climatica/climatica/internal/region"
	"github.com/climatica/climatica/internal/regiontype"
)

// RegionHandler handles region and region type endpoints.
type RegionHandler struct {
	regions *region.Service
	types   *regiontype.Service
	log     zerolog.Logger
}

// NewRegionHandler creates a new RegionHandler.
func NewRegionHandler(regions *region.Service, types *regiontype.Service, log zerolog.Logger) *RegionHandler {
	return &RegionHandler{
		regions: regions,
		types:   types,
		log:     log,
	}
}

// CreateRegion handles POST /region - create a region owned by the caller.
func (h *RegionHandler) CreateRegion(w http.ResponseWriter, r *http.Request) {
	var input models.RegionRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	created, err := h.regions.Create(r.Context(), actorID(r.Context()), &input)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.Created(w, r, "/region/"+strconv.FormatInt(created.ID, 10), created)
}

// GetRegion handles GET /region/{regionId} - get a region.
func (h *RegionHandler) GetRegion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "regionId")
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	reg, err := h.regions.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.JSON(w, r, http.StatusOK, reg)
}

// UpdateRegion handles PUT /region/{regionId} - replace a region.
func (h *RegionHandler) UpdateRegion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "regionId")
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	var input models.RegionRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	updated, err := h.regions.Update(r.Context(), actorID(r.Context()), id, &input)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.JSON(w, r, http.StatusOK, updated)
}

// DeleteRegion handles DELETE /region/{regionId} - delete a region.
func (h *RegionHandler) DeleteRegion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "regionId")
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	deleted, err := h.regions.Delete(r.Context(), actorID(r.Context()), id)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}
	if !deleted {
		response.NotFound(w, r, "region not found")
		return
	}

	response.NoContent(w, r)
}

// CreateRegionType handles POST /region/types - create a region type.
func (h *RegionHandler) CreateRegionType(w http.ResponseWriter, r *http.Request) {
	var input models.RegionTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	created, err := h.types.Create(r.Context(), input.Type)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.Created(w, r, "/region/types/"+strconv.FormatInt(created.ID, 10), created)
}

// GetRegionType handles GET /region/types/{typeId} - get a region type.
func (h *RegionHandler) GetRegionType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "typeId")
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	rt, err := h.types.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.JSON(w, r, http.StatusOK, rt)
}

// UpdateRegionType handles PUT /region/types/{typeId} - rename a region type.
func (h *RegionHandler) UpdateRegionType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "typeId")
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	var input models.RegionTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	updated, err := h.types.Update(r.Context(), id, input.Type)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.JSON(w, r, http.StatusOK, updated)
}

// DeleteRegionType handles DELETE /region/types/{typeId} - delete a region type.
func (h *RegionHandler) DeleteRegionType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "typeId")
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	deleted, err := h.types.Delete(r.Context(), id)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}
	if !deleted {
		response.NotFound(w, r, "region type not found")
		return
	}

	response.NoContent(w, r)
}
