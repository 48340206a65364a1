package domain

// Mode identifies which kind of search produced a result set
type Mode string

const (
	ModeBrowse       Mode = "browse"
	ModeListing      Mode = "basic"
	ModeQuery        Mode = "query"
	ModeRestaurantID Mode = "restaurantId"
	ModeNearby       Mode = "nearby"
	ModeSemantic     Mode = "semantic"
	ModeImage        Mode = "image"
)

// Paginable reports whether the backend endpoint behind the mode accepts
// page/limit and can be re-issued with an advanced page number.
func (m Mode) Paginable() bool {
	return m == ModeBrowse || m == ModeListing
}

// Image search defaults applied when the caller leaves them unset.
const (
	DefaultImageRadiusKm = 3.0
	DefaultImageLimit    = 10
)

// Request is one of the closed set of search request variants.
type Request interface {
	Mode() Mode
	searchRequest()
}

// Listing is a paginable filtered browse of the full restaurant set.
// A Listing with no filters is "browse all".
type Listing struct {
	Country string   `json:"country,omitempty"`
	City    string   `json:"city,omitempty"`
	Cuisine string   `json:"cuisine,omitempty"`
	MinCost *float64 `json:"min_cost,omitempty"`
	MaxCost *float64 `json:"max_cost,omitempty"`
	Page    int      `json:"page"`
	Limit   int      `json:"limit"`
}

// Query is a non-paginable free-text multi-field search.
type Query struct {
	Name    string `json:"name,omitempty"`
	City    string `json:"city,omitempty"`
	Cuisine string `json:"cuisine,omitempty"`
	Country string `json:"country,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// ByID looks up a single restaurant.
type ByID struct {
	ID int `json:"restaurant_id"`
}

// Nearby is a geolocation radius search.
type Nearby struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	RadiusKm float64 `json:"radius_km"`
	Limit    int     `json:"limit"`
}

// Semantic is a natural-language query scored by similarity.
type Semantic struct {
	Text  string `json:"query"`
	Limit int    `json:"limit"`
}

// Image is a search by uploaded photo plus geolocation radius.
type Image struct {
	Data     []byte  `json:"-"`
	Filename string  `json:"filename,omitempty"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	RadiusKm float64 `json:"radius_km"`
	Limit    int     `json:"limit"`
}

func (Listing) Mode() Mode  { return ModeListing }
func (Query) Mode() Mode    { return ModeQuery }
func (ByID) Mode() Mode     { return ModeRestaurantID }
func (Nearby) Mode() Mode   { return ModeNearby }
func (Semantic) Mode() Mode { return ModeSemantic }
func (Image) Mode() Mode    { return ModeImage }

func (Listing) searchRequest()  {}
func (Query) searchRequest()    {}
func (ByID) searchRequest()     {}
func (Nearby) searchRequest()   {}
func (Semantic) searchRequest() {}
func (Image) searchRequest()    {}

// IsBrowseAll reports whether the listing carries no filters.
func (l Listing) IsBrowseAll() bool {
	return l.Country == "" && l.City == "" && l.Cuisine == "" && l.MinCost == nil && l.MaxCost == nil
}

// WithDefaults fills the image search radius and limit when unset.
func (i Image) WithDefaults() Image {
	if i.RadiusKm <= 0 {
		i.RadiusKm = DefaultImageRadiusKm
	}
	if i.Limit <= 0 {
		i.Limit = DefaultImageLimit
	}
	return i
}

// Float returns a pointer to v, for optional cost filters.
func Float(v float64) *float64 {
	return &v
}
