// Package pagination computes the page-number window and the forward-navigation
// policy for result lists whose total size the backend never reports.
package pagination

// MaxVisible is the largest page count rendered without ellipses.
const MaxVisible = 7

// PageSizes are the page-size selector options.
var PageSizes = []int{10, 20, 50, 100}

// Item is one entry of the page window: a page number or an ellipsis.
type Item struct {
	Number   int  `json:"number,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

var ellipsis = Item{Ellipsis: true}

// Pages returns the window of page links for current out of total pages.
// The window always starts with page 1 and ends with total.
func Pages(current, total int) []Item {
	if total < 1 {
		return nil
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	if total <= MaxVisible {
		return numbers(1, total)
	}

	items := []Item{{Number: 1}}
	switch {
	case current <= 4:
		items = append(items, numbers(2, 5)...)
		items = append(items, ellipsis, Item{Number: total})
	case current >= total-3:
		items = append(items, ellipsis)
		items = append(items, numbers(total-4, total)...)
	default:
		items = append(items, ellipsis)
		items = append(items, numbers(current-1, current+1)...)
		items = append(items, ellipsis, Item{Number: total})
	}
	return items
}

func numbers(from, to int) []Item {
	out := make([]Item, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, Item{Number: i})
	}
	return out
}
