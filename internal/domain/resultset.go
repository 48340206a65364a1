package domain

// ResultKind tags which case of ResultSet is populated
type ResultKind int

const (
	ResultPlain ResultKind = iota
	ResultRanked
)

// ResultSet is either a plain list of restaurants or a similarity-ranked list.
// The producing operation picks the case; nothing is inferred from the data.
type ResultSet struct {
	kind   ResultKind
	plain  []Restaurant
	ranked []RankedRestaurant
}

// PlainResults wraps unranked restaurants.
func PlainResults(items []Restaurant) ResultSet {
	if items == nil {
		items = []Restaurant{}
	}
	return ResultSet{kind: ResultPlain, plain: items}
}

// RankedResults wraps similarity-ranked restaurants.
func RankedResults(items []RankedRestaurant) ResultSet {
	if items == nil {
		items = []RankedRestaurant{}
	}
	return ResultSet{kind: ResultRanked, ranked: items}
}

// EmptyResults is an empty plain result set.
func EmptyResults() ResultSet {
	return PlainResults(nil)
}

func (s ResultSet) Kind() ResultKind { return s.kind }

// IsRanked reports whether the set was produced by a similarity search.
func (s ResultSet) IsRanked() bool { return s.kind == ResultRanked }

func (s ResultSet) Len() int {
	if s.kind == ResultRanked {
		return len(s.ranked)
	}
	return len(s.plain)
}

// Plain returns the plain items, or nil for a ranked set.
func (s ResultSet) Plain() []Restaurant {
	if s.kind == ResultRanked {
		return nil
	}
	return s.plain
}

// Ranked returns the ranked items, or nil for a plain set.
func (s ResultSet) Ranked() []RankedRestaurant {
	if s.kind != ResultRanked {
		return nil
	}
	return s.ranked
}

// Restaurants returns the restaurant view of either case.
func (s ResultSet) Restaurants() []Restaurant {
	if s.kind != ResultRanked {
		return s.plain
	}
	out := make([]Restaurant, len(s.ranked))
	for i, r := range s.ranked {
		out[i] = r.Restaurant
	}
	return out
}

// Similarity returns the score of the i-th item and false for plain sets.
func (s ResultSet) Similarity(i int) (float64, bool) {
	if s.kind != ResultRanked || i < 0 || i >= len(s.ranked) {
		return 0, false
	}
	return s.ranked[i].Similarity, true
}

// Clone copies the backing slices so snapshots don't alias coordinator state.
func (s ResultSet) Clone() ResultSet {
	out := ResultSet{kind: s.kind}
	if s.plain != nil {
		out.plain = append([]Restaurant(nil), s.plain...)
	}
	if s.ranked != nil {
		out.ranked = append([]RankedRestaurant(nil), s.ranked...)
	}
	if out.kind == ResultPlain && out.plain == nil {
		out.plain = []Restaurant{}
	}
	return out
}
