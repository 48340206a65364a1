package domain

import (
	"strings"
)

// Restaurant represents a restaurant record as returned by the directory API
type Restaurant struct {
	ID                int     `json:"id"`
	RestaurantID      int     `json:"restaurant_id"`
	Name              string  `json:"restaurant_name"`
	Country           string  `json:"country"`
	CountryCode       int     `json:"country_code"`
	City              string  `json:"city"`
	Address           string  `json:"address"`
	Locality          string  `json:"locality"`
	LocalityVerbose   string  `json:"locality_verbose"`
	Longitude         float64 `json:"longitude"`
	Latitude          float64 `json:"latitude"`
	Cuisines          string  `json:"cuisines"`
	AverageCostForTwo float64 `json:"average_cost_for_two"`
	Currency          string  `json:"currency"`
	HasTableBooking   string  `json:"has_table_booking"`
	HasOnlineDelivery string  `json:"has_online_delivery"`
	IsDeliveringNow   string  `json:"is_delivering_now"`
	SwitchToOrderMenu string  `json:"switch_to_order_menu"`
	PriceRange        int     `json:"price_range"`
	AggregateRating   float64 `json:"aggregate_rating"`
	RatingColor       string  `json:"rating_color"`
	RatingText        string  `json:"rating_text"`
	Votes             int     `json:"votes"`
}

// RankedRestaurant is a restaurant scored by a semantic search.
// Similarity is in [0,1].
type RankedRestaurant struct {
	Restaurant
	Similarity float64 `json:"similarity"`
}

const flagYes = "Yes"

// CuisineList splits the comma-joined cuisines string.
func (r Restaurant) CuisineList() []string {
	if strings.TrimSpace(r.Cuisines) == "" {
		return nil
	}
	parts := strings.Split(r.Cuisines, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// TableBooking reports whether the restaurant takes table bookings.
func (r Restaurant) TableBooking() bool { return r.HasTableBooking == flagYes }

// OnlineDelivery reports whether the restaurant offers online delivery.
func (r Restaurant) OnlineDelivery() bool { return r.HasOnlineDelivery == flagYes }

// DeliveringNow reports whether the restaurant is currently delivering.
func (r Restaurant) DeliveringNow() bool { return r.IsDeliveringNow == flagYes }

// PriceTier renders the 1-4 price range as dollar signs.
func (r Restaurant) PriceTier() string {
	n := r.PriceRange
	if n < 1 {
		n = 1
	}
	if n > 4 {
		n = 4
	}
	return strings.Repeat("$", n)
}

// Location joins locality and city for display.
func (r Restaurant) Location() string {
	switch {
	case r.Locality != "" && r.City != "":
		return r.Locality + ", " + r.City
	case r.City != "":
		return r.City
	default:
		return r.Locality
	}
}

// SimilarityPercent renders the similarity score as a whole percentage.
func (r RankedRestaurant) SimilarityPercent() int {
	s := r.Similarity
	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}
	return int(s*100 + 0.5)
}
