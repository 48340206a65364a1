package transport

import (
	"net/url"

	"github.com/google/go-querystring/query"

	"github.com/cloo-solutions/tastyfind/internal/domain"
)

type listingParams struct {
	Country string   `url:"country,omitempty"`
	City    string   `url:"city,omitempty"`
	Cuisine string   `url:"cuisine,omitempty"`
	MinCost *float64 `url:"min_cost,omitempty"`
	MaxCost *float64 `url:"max_cost,omitempty"`
	Page    int      `url:"page"`
	Limit   int      `url:"limit"`
}

type queryParams struct {
	Name    string `url:"q_name,omitempty"`
	City    string `url:"q_city,omitempty"`
	Cuisine string `url:"q_cuisine,omitempty"`
	Country string `url:"q_country,omitempty"`
	Limit   int    `url:"limit,omitempty"`
}

type nearbyParams struct {
	Lat    float64 `url:"lat"`
	Lng    float64 `url:"lng"`
	Radius float64 `url:"radius"`
	Limit  int     `url:"limit"`
}

type semanticBody struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func encodeListing(l domain.Listing) (url.Values, error) {
	return query.Values(listingParams{
		Country: l.Country,
		City:    l.City,
		Cuisine: l.Cuisine,
		MinCost: l.MinCost,
		MaxCost: l.MaxCost,
		Page:    l.Page,
		Limit:   l.Limit,
	})
}

func encodeQuery(q domain.Query) (url.Values, error) {
	return query.Values(queryParams{
		Name:    q.Name,
		City:    q.City,
		Cuisine: q.Cuisine,
		Country: q.Country,
		Limit:   q.Limit,
	})
}

func encodeNearby(n domain.Nearby) (url.Values, error) {
	return query.Values(nearbyParams{
		Lat:    n.Lat,
		Lng:    n.Lng,
		Radius: n.RadiusKm,
		Limit:  n.Limit,
	})
}
