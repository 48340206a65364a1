package transport

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"github.com/cloo-solutions/tastyfind/internal/domain"
)

// Backend paths.
const (
	pathRestaurants = "/restaurants"
	pathSearch      = "/restaurants/search"
	pathNearby      = "/restaurants/nearby"
	pathSemantic    = "/semantic-search"
	pathImage       = "/image-search-nearby"
	pathCountries   = "/countries"
)

// ListRestaurants fetches one page of the filtered restaurant listing.
func (c *Client) ListRestaurants(ctx context.Context, l domain.Listing) ([]domain.Restaurant, error) {
	q, err := encodeListing(l)
	if err != nil {
		return nil, newError(OpListRestaurants, 0, fmt.Errorf("encode query: %w", err))
	}
	var out []domain.Restaurant
	if err := c.get(ctx, OpListRestaurants, pathRestaurants, q, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// QueryRestaurants runs a free-text search over name, city, cuisine and country.
func (c *Client) QueryRestaurants(ctx context.Context, qr domain.Query) ([]domain.Restaurant, error) {
	q, err := encodeQuery(qr)
	if err != nil {
		return nil, newError(OpQueryRestaurants, 0, fmt.Errorf("encode query: %w", err))
	}
	var out []domain.Restaurant
	if err := c.get(ctx, OpQueryRestaurants, pathSearch, q, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// GetByID looks up a single restaurant. Any non-2xx answer matches ErrNotFound.
func (c *Client) GetByID(ctx context.Context, id int) (domain.Restaurant, error) {
	var out domain.Restaurant
	path := pathRestaurants + "/" + strconv.Itoa(id)
	if err := c.get(ctx, OpGetByID, path, nil, &out); err != nil {
		return domain.Restaurant{}, err
	}
	return out, nil
}

// Nearby returns restaurants within RadiusKm of the coordinates.
func (c *Client) Nearby(ctx context.Context, n domain.Nearby) ([]domain.Restaurant, error) {
	q, err := encodeNearby(n)
	if err != nil {
		return nil, newError(OpNearby, 0, fmt.Errorf("encode query: %w", err))
	}
	var out []domain.Restaurant
	if err := c.get(ctx, OpNearby, pathNearby, q, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// SemanticSearch returns restaurants ranked by similarity to the text.
func (c *Client) SemanticSearch(ctx context.Context, s domain.Semantic) ([]domain.RankedRestaurant, error) {
	var out []domain.RankedRestaurant
	body := semanticBody{Query: s.Text, Limit: s.Limit}
	if err := c.postJSON(ctx, OpSemanticSearch, pathSemantic, body, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.RankedRestaurant{}
	}
	return out, nil
}

// ImageSearch uploads a dish photo and returns matching restaurants near the
// coordinates. Radius defaults to 3 km and limit to 10.
func (c *Client) ImageSearch(ctx context.Context, img domain.Image) ([]domain.Restaurant, error) {
	img = img.WithDefaults()
	if len(img.Data) == 0 {
		return nil, newError(OpImageSearch, 0, domain.ErrMissingImage)
	}

	body, contentType, err := encodeImage(img)
	if err != nil {
		return nil, newError(OpImageSearch, 0, fmt.Errorf("encode upload: %w", err))
	}

	size := int64(body.Len())
	reader := &progressReader{reader: body, total: size, onProgress: c.onProgress}

	var out []domain.Restaurant
	err = c.do(ctx, call{
		op:          OpImageSearch,
		method:      http.MethodPost,
		path:        pathImage,
		body:        reader,
		size:        size,
		contentType: contentType,
	}, &out)
	if err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// ListCountries returns the distinct country names known to the backend.
func (c *Client) ListCountries(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.get(ctx, OpListCountries, pathCountries, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func encodeImage(img domain.Image) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	filename := img.Filename
	if filename == "" {
		filename = "upload"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", http.DetectContentType(img.Data))
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", err
	}

	fields := []struct{ name, value string }{
		{"lat", formatFloat(img.Lat)},
		{"lng", formatFloat(img.Lng)},
		{"radius", formatFloat(img.RadiusKm)},
		{"limit", strconv.Itoa(img.Limit)},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func nonNil(items []domain.Restaurant) []domain.Restaurant {
	if items == nil {
		return []domain.Restaurant{}
	}
	return items
}
