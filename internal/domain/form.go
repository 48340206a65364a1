package domain

import (
	"strconv"
	"strings"
)

// Default radii of the location and image tabs.
const (
	DefaultLocationRadiusKm = 5.0
	DefaultFormRadiusKm     = DefaultImageRadiusKm
)

// BasicForm is the raw input of the basic search tab.
type BasicForm struct {
	RestaurantID string
	Name         string
	City         string
	Cuisine      string
	Country      string
	MinCost      string
	MaxCost      string
}

// Request classifies the form: an id wins, then any text field turns it into
// a free-text query, otherwise it is a first-page listing with cost filters.
func (f BasicForm) Request(pageSize int) (Request, error) {
	if id := strings.TrimSpace(f.RestaurantID); id != "" {
		n, err := strconv.Atoi(id)
		if err != nil {
			return nil, ErrInvalidRestaurantID.WithCause(err)
		}
		if n <= 0 {
			return nil, ErrInvalidRestaurantID
		}
		return ByID{ID: n}, nil
	}

	name := strings.TrimSpace(f.Name)
	city := strings.TrimSpace(f.City)
	cuisine := strings.TrimSpace(f.Cuisine)
	country := strings.TrimSpace(f.Country)
	if name != "" || city != "" || cuisine != "" || country != "" {
		return Query{
			Name:    name,
			City:    city,
			Cuisine: cuisine,
			Country: country,
			Limit:   pageSize,
		}, nil
	}

	listing := Listing{Page: 1, Limit: pageSize}
	var err error
	if listing.MinCost, err = parseOptionalFloat(f.MinCost); err != nil {
		return nil, err
	}
	if listing.MaxCost, err = parseOptionalFloat(f.MaxCost); err != nil {
		return nil, err
	}
	return listing, nil
}

// LocationForm is the raw input of the location tab.
type LocationForm struct {
	Latitude  string
	Longitude string
	Radius    string
}

// Request validates the coordinates and builds a nearby search.
func (f LocationForm) Request(pageSize int) (Request, error) {
	lat, lng, err := parseCoordinates(f.Latitude, f.Longitude)
	if err != nil {
		return nil, err
	}
	radius, err := parseRadius(f.Radius, DefaultLocationRadiusKm)
	if err != nil {
		return nil, err
	}
	return Nearby{Lat: lat, Lng: lng, RadiusKm: radius, Limit: pageSize}, nil
}

// SemanticForm is the raw input of the smart search tab.
type SemanticForm struct {
	Query string
}

func (f SemanticForm) Request(pageSize int) (Request, error) {
	if strings.TrimSpace(f.Query) == "" {
		return nil, ErrEmptyQuery
	}
	return Semantic{Text: f.Query, Limit: pageSize}, nil
}

// ImageForm is the raw input of the image tab.
type ImageForm struct {
	Data      []byte
	Filename  string
	Latitude  string
	Longitude string
	Radius    string
}

// Request builds a photo search. Photo searches keep the backend's own result
// limit, so the page size is not applied.
func (f ImageForm) Request(_ int) (Request, error) {
	if len(f.Data) == 0 {
		return nil, ErrMissingImage
	}
	lat, lng, err := parseCoordinates(f.Latitude, f.Longitude)
	if err != nil {
		return nil, err
	}
	radius, err := parseRadius(f.Radius, DefaultFormRadiusKm)
	if err != nil {
		return nil, err
	}
	return Image{
		Data:     f.Data,
		Filename: f.Filename,
		Lat:      lat,
		Lng:      lng,
		RadiusKm: radius,
		Limit:    DefaultImageLimit,
	}, nil
}

func parseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, ErrInvalidCost.WithCause(err)
	}
	return &v, nil
}

func parseCoordinates(latStr, lngStr string) (float64, float64, error) {
	latStr, lngStr = strings.TrimSpace(latStr), strings.TrimSpace(lngStr)
	if latStr == "" || lngStr == "" {
		return 0, 0, ErrMissingCoordinates
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, ErrInvalidCoordinates.WithCause(err)
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return 0, 0, ErrInvalidCoordinates.WithCause(err)
	}
	return lat, lng, nil
}

func parseRadius(s string, def float64) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, ErrInvalidRadius
	}
	return v, nil
}
