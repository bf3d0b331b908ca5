package models

// Region is a named geographic point owned by an account.
type Region struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RegionTypeID *int64  `json:"regionType,omitempty"`
	ParentRegion *string `json:"parentRegion,omitempty"`
	AccountID    int64   `json:"accountId"`
}

// RegionRequest is the request body for creating or replacing a region.
// Name, Latitude and Longitude are required.
type RegionRequest struct {
	Name         *string  `json:"name"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	RegionTypeID *int64   `json:"regionType,omitempty"`
	ParentRegion *string  `json:"parentRegion,omitempty"`
}

// RegionType is a label classifying regions.
type RegionType struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// RegionTypeRequest is the request body for creating or renaming a region type.
type RegionTypeRequest struct {
	Type string `json:"type"`
}
