// Package web builds the view model of the search page and renders it with
// html/template.
package web

import (
	"fmt"

	"github.com/cloo-solutions/tastyfind/internal/domain"
	"github.com/cloo-solutions/tastyfind/internal/pagination"
	"github.com/cloo-solutions/tastyfind/internal/service"
)

// Tab is one of the search tabs of the page.
type Tab string

const (
	TabBrowse   Tab = "browse"
	TabBasic    Tab = "basic"
	TabLocation Tab = "location"
	TabSemantic Tab = "semantic"
	TabImage    Tab = "image"
)

// Tabs lists the tabs in display order.
var Tabs = []TabLink{
	{Tab: TabBrowse, Label: "Browse All"},
	{Tab: TabBasic, Label: "Basic Search"},
	{Tab: TabLocation, Label: "Location"},
	{Tab: TabSemantic, Label: "Smart Search"},
	{Tab: TabImage, Label: "Image Search"},
}

// TabLink is a tab and its label.
type TabLink struct {
	Tab   Tab
	Label string
}

// TabForMode picks the tab that produced results of the given mode.
func TabForMode(m domain.Mode) Tab {
	switch m {
	case domain.ModeListing, domain.ModeQuery, domain.ModeRestaurantID:
		return TabBasic
	case domain.ModeNearby:
		return TabLocation
	case domain.ModeSemantic:
		return TabSemantic
	case domain.ModeImage:
		return TabImage
	default:
		return TabBrowse
	}
}

// ParseTab returns the named tab, or fallback for unknown names.
func ParseTab(s string, fallback Tab) Tab {
	for _, t := range Tabs {
		if string(t.Tab) == s {
			return t.Tab
		}
	}
	return fallback
}

// Card is a restaurant prepared for display.
type Card struct {
	domain.Restaurant
	Cuisines   []string
	Ranked     bool
	Similarity int
}

// maxCardCuisines is how many cuisine tags a card shows.
const maxCardCuisines = 3

// NewCard builds a card; similarity is ignored unless ranked is set.
func NewCard(r domain.Restaurant, ranked bool, similarity float64) Card {
	cuisines := r.CuisineList()
	if len(cuisines) > maxCardCuisines {
		cuisines = cuisines[:maxCardCuisines]
	}
	c := Card{Restaurant: r, Cuisines: cuisines, Ranked: ranked}
	if ranked {
		c.Similarity = domain.RankedRestaurant{Restaurant: r, Similarity: similarity}.SimilarityPercent()
	}
	return c
}

// PagerView is the pagination bar of a paginable result list.
type PagerView struct {
	Items      []pagination.Item
	Current    int
	Prev       int
	Next       int
	HasPrev    bool
	HasNext    bool
	First      int
	Last       int
	ShowJump   bool
	KnownPages int
}

func newPagerView(p pagination.Pager) *PagerView {
	return &PagerView{
		Items:      p.Items(),
		Current:    p.Current,
		Prev:       p.Prev(),
		Next:       p.Next(),
		HasPrev:    p.HasPrev(),
		HasNext:    p.HasNext(),
		First:      p.FirstResult(),
		Last:       p.LastResult(),
		ShowJump:   p.ShowJump(),
		KnownPages: p.KnownPages(),
	}
}

// Page is everything the page template needs.
type Page struct {
	Tabs      []TabLink
	Tab       Tab
	Countries []string
	PageSizes []int
	PageSize  int

	Loading   bool
	Err       string
	HasSearch bool
	Empty     bool

	Title   string
	Summary string
	Footer  string
	Cards   []Card
	Pager   *PagerView
}

// NewPage builds the view of a state snapshot. tab overrides the tab derived
// from the state's mode when non-empty.
func NewPage(st service.State, countries []string, tab Tab) Page {
	if tab == "" {
		tab = TabForMode(st.Mode)
	}
	if countries == nil {
		countries = []string{}
	}
	p := Page{
		Tabs:      Tabs,
		Tab:       tab,
		Countries: countries,
		PageSizes: pagination.PageSizes,
		PageSize:  st.PageSize,
		Loading:   st.Loading,
		Err:       st.Err,
		HasSearch: st.HasSearch(),
	}

	p.Cards = cards(st.Results)
	n := len(p.Cards)
	p.Empty = n == 0 && !st.Loading && st.Err == "" && st.HasSearch()
	p.Title = resultsTitle(st)
	p.Summary = resultsSummary(st, n)

	if st.Paginable() {
		p.Pager = newPagerView(pagination.Pager{Current: st.Page, PageSize: st.PageSize, Count: n})
	} else if n > 0 {
		p.Footer = fmt.Sprintf("Showing %d %s", n, plural(n, "result", "results"))
	}
	return p
}

func cards(rs domain.ResultSet) []Card {
	out := make([]Card, 0, rs.Len())
	if rs.IsRanked() {
		for _, r := range rs.Ranked() {
			out = append(out, NewCard(r.Restaurant, true, r.Similarity))
		}
		return out
	}
	for _, r := range rs.Plain() {
		out = append(out, NewCard(r, false, 0))
	}
	return out
}

func resultsTitle(st service.State) string {
	switch {
	case st.Ranked():
		return "Smart Search Results"
	case st.Mode == domain.ModeBrowse:
		return "All Restaurants"
	default:
		return "Restaurant Results"
	}
}

func resultsSummary(st service.State, n int) string {
	noun := plural(n, "restaurant", "restaurants")
	var s string
	if st.Paginable() {
		s = fmt.Sprintf("Showing %d %s (Page %d)", n, noun, st.Page)
	} else {
		s = fmt.Sprintf("Found %d %s", n, noun)
	}
	if st.Ranked() {
		s += " ranked by relevance"
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
