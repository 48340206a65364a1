package web

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strconv"
	"strings"
)

//go:embed templates/page.html
var pageTemplate string

// Renderer renders the search page.
type Renderer struct {
	template *template.Template
}

// NewRenderer parses the embedded page template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("page").Funcs(TemplateFuncs()).Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Renderer{template: tmpl}, nil
}

// Render writes the page to w. Nothing is written when the template fails.
func (r *Renderer) Render(w io.Writer, p Page) error {
	var buf bytes.Buffer
	if err := r.template.Execute(&buf, p); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// TemplateFuncs returns the helpers available to the page template.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"cost":        FormatCost,
		"rating":      FormatRating,
		"ratingStyle": RatingStyle,
		"coords":      FormatCoordinates,
	}
}

// FormatCost renders an average cost for two with its currency.
func FormatCost(currency string, cost float64) string {
	amount := strconv.FormatFloat(cost, 'f', -1, 64)
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return amount
	}
	return currency + amount
}

// FormatRating renders an aggregate rating with one decimal.
func FormatRating(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// FormatCoordinates renders a latitude/longitude pair.
func FormatCoordinates(lat, lng float64) string {
	return fmt.Sprintf("%.4f, %.4f", lat, lng)
}

var colorPattern = regexp.MustCompile(`^#?[0-9A-Fa-f]{3}([0-9A-Fa-f]{3})?$`)

// namedRatingColors maps the backend's rating color names to hex.
var namedRatingColors = map[string]string{
	"dark green": "#3f7e00",
	"green":      "#5ba829",
	"yellow":     "#cdd614",
	"orange":     "#ffba00",
	"red":        "#cb202d",
}

// RatingStyle turns a backend rating color into an inline style. Hex values
// and known color names are used as given; anything else is picked from the
// rating itself (4.0, 3.0 and 2.0 thresholds).
func RatingStyle(color string, rating float64) template.CSS {
	color = strings.TrimSpace(color)
	switch {
	case colorPattern.MatchString(color):
		if !strings.HasPrefix(color, "#") {
			color = "#" + color
		}
	case namedRatingColors[strings.ToLower(color)] != "":
		color = namedRatingColors[strings.ToLower(color)]
	default:
		color = ratingTier(rating)
	}
	return template.CSS("background-color: " + color)
}

func ratingTier(rating float64) string {
	switch {
	case rating >= 4.0:
		return "#16a34a"
	case rating >= 3.0:
		return "#ca8a04"
	case rating >= 2.0:
		return "#ea580c"
	}
	return "#dc2626"
}
