package pagination

// JumpThreshold is the known page count above which a jump-to-page control is offered.
const JumpThreshold = 10

// Pager applies the unknown-total policy: the backend never returns a total,
// so forward navigation stays enabled until a page comes back empty.
type Pager struct {
	Current  int
	PageSize int
	Count    int
}

// HasPrev reports whether a previous page exists.
func (p Pager) HasPrev() bool {
	return p.Current > 1
}

// HasNext reports whether forward navigation is allowed.
func (p Pager) HasNext() bool {
	return p.Count > 0
}

// KnownPages is the number of pages the client can vouch for: everything up
// to the current page, plus one more while the current page is non-empty.
func (p Pager) KnownPages() int {
	current := p.current()
	if p.HasNext() {
		return current + 1
	}
	return current
}

// Items is the page window over the known pages.
func (p Pager) Items() []Item {
	return Pages(p.current(), p.KnownPages())
}

// ShowJump reports whether the jump-to-page control should be rendered.
func (p Pager) ShowJump() bool {
	return p.KnownPages() > JumpThreshold
}

// FirstResult is the 1-based index of the first result on the page, or 0 when empty.
func (p Pager) FirstResult() int {
	if p.Count == 0 {
		return 0
	}
	return (p.current()-1)*p.PageSize + 1
}

// LastResult is the 1-based index of the last result on the page, or 0 when empty.
func (p Pager) LastResult() int {
	if p.Count == 0 {
		return 0
	}
	return (p.current()-1)*p.PageSize + p.Count
}

// Prev and Next are the neighbouring page numbers.
func (p Pager) Prev() int {
	if p.Current <= 1 {
		return 1
	}
	return p.Current - 1
}

func (p Pager) Next() int {
	return p.current() + 1
}

func (p Pager) current() int {
	if p.Current < 1 {
		return 1
	}
	return p.Current
}
