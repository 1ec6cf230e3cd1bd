package api

// Pager tracks infinite-scroll state for the transaction listing. The page
// counter only advances after a page actually arrived, so a failed fetch
// retries the same page instead of skipping it.
type Pager struct {
	query      TransactionQuery
	totalPages int
	loaded     bool
}

// NewPager starts at page one with the given filter.
func NewPager(query TransactionQuery) *Pager {
	query.Page = 1
	return &Pager{query: query}
}

// Query returns the request for the page to load next.
func (p *Pager) Query() TransactionQuery {
	return p.query
}

// Advance records a successfully loaded page and moves to the next one.
func (p *Pager) Advance(resp TransactionsResponse) {
	p.loaded = true
	p.totalPages = resp.TotalPages
	p.query.Page++
}

// HasMore reports whether another page remains. Before the first successful
// load it is always true so the initial fetch happens.
func (p *Pager) HasMore() bool {
	if !p.loaded {
		return true
	}
	return p.query.Page <= p.totalPages
}

// SetFilter replaces the filter and resets pagination to page one. A filter
// identical to the current one leaves the position untouched.
func (p *Pager) SetFilter(query TransactionQuery) {
	query.Page = 1
	current := p.query
	current.Page = 1
	if query == current {
		return
	}
	p.query = query
	p.totalPages = 0
	p.loaded = false
}
