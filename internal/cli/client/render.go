package client

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cloo-solutions/tastyfind/internal/domain"
	"github.com/cloo-solutions/tastyfind/internal/service"
)

const defaultPageSize = service.DefaultPageSize

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	nameStyle = lipgloss.NewStyle().Bold(true)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	matchStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("32"))

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))
)

// ratingColors maps the backend's rating color names to terminal colors.
var ratingColors = map[string]string{
	"dark green": "28",
	"green":      "34",
	"yellow":     "178",
	"orange":     "208",
	"red":        "196",
	"white":      "250",
}

func ratingStyle(color string) lipgloss.Style {
	c := strings.TrimSpace(color)
	if v, ok := ratingColors[strings.ToLower(c)]; ok {
		c = v
	} else if !strings.HasPrefix(c, "#") || len(c) < 4 {
		c = "245"
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("255")).
		Background(lipgloss.Color(c)).
		Padding(0, 1)
}

// renderCard formats one restaurant. similarity is shown when ranked is set.
func renderCard(r domain.Restaurant, ranked bool, similarity float64) string {
	var b strings.Builder

	header := nameStyle.Render(r.Name)
	if r.AggregateRating > 0 {
		header += " " + ratingStyle(r.RatingColor).Render(fmt.Sprintf("%.1f", r.AggregateRating))
	}
	if ranked {
		pct := domain.RankedRestaurant{Restaurant: r, Similarity: similarity}.SimilarityPercent()
		header += " " + matchStyle.Render(fmt.Sprintf("Match: %d%%", pct))
	}
	b.WriteString(header)
	b.WriteString("\n")

	if loc := r.Location(); loc != "" {
		b.WriteString(metaStyle.Render(loc))
		b.WriteString("\n")
	}

	cuisines := r.CuisineList()
	if len(cuisines) > 3 {
		cuisines = cuisines[:3]
	}
	if len(cuisines) > 0 {
		b.WriteString(strings.Join(cuisines, " · "))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Cost for 2: %s%s  Price Range: %s\n",
		strings.TrimSpace(r.Currency), formatAmount(r.AverageCostForTwo), r.PriceTier())

	var badges []string
	if r.OnlineDelivery() {
		badges = append(badges, "Online Delivery")
	}
	if r.TableBooking() {
		badges = append(badges, "Table Booking")
	}
	if r.DeliveringNow() {
		badges = append(badges, "Delivering Now")
	}
	if len(badges) > 0 {
		b.WriteString(badgeStyle.Render(strings.Join(badges, "  ")))
		b.WriteString("\n")
	}

	if r.Address != "" {
		b.WriteString(metaStyle.Render(r.Address))
		b.WriteString("\n")
	}
	footer := r.Country
	if r.RatingText != "" {
		footer = strings.TrimSpace(footer + "  " + r.RatingText)
	}
	if r.Votes > 0 {
		footer += fmt.Sprintf(" (%d votes)", r.Votes)
	}
	if footer != "" {
		b.WriteString(metaStyle.Render(footer))
	}
	fmt.Fprintf(&b, "\nID: %d", r.RestaurantID)

	return cardStyle.Render(b.String())
}

func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// printResults writes a titled list of cards, or a placeholder when empty.
func printResults(w io.Writer, title string, rs domain.ResultSet) {
	fmt.Fprintln(w, titleStyle.Render(title))
	if rs.Len() == 0 {
		fmt.Fprintln(w, noDataStyle.Render("No restaurants found"))
		return
	}
	if rs.IsRanked() {
		for _, r := range rs.Ranked() {
			fmt.Fprintln(w, renderCard(r.Restaurant, true, r.Similarity))
		}
		return
	}
	for _, r := range rs.Plain() {
		fmt.Fprintln(w, renderCard(r, false, 0))
	}
}

// printError writes a banner for a failed search.
func printError(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render("Search Error: "+msg))
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
