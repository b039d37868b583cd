package pagination

// DefaultPerPage is the standard page size when one is not provided.
const DefaultPerPage = 10

// MaxPerPage caps how many rows any page query can request.
const MaxPerPage = 100

// Params holds page pagination inputs from controllers or services.
type Params struct {
	Page    int
	PerPage int
}

// Metadata describes one page of results for view payloads.
type Metadata struct {
	CurrentPage int   `json:"current_page"`
	From        int   `json:"from"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	To          int   `json:"to"`
	Total       int64 `json:"total"`
}

// Normalize enforces the configured defaults and caps.
func Normalize(p Params) Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	n := Normalize(p)
	return (n.Page - 1) * n.PerPage
}

// Build computes page metadata for count rows returned out of total matches.
func Build(p Params, count int, total int64) Metadata {
	n := Normalize(p)

	lastPage := int((total + int64(n.PerPage) - 1) / int64(n.PerPage))
	if lastPage < 1 {
		lastPage = 1
	}

	meta := Metadata{
		CurrentPage: n.Page,
		LastPage:    lastPage,
		PerPage:     n.PerPage,
		Total:       total,
	}
	if count > 0 {
		meta.From = n.Offset() + 1
		meta.To = n.Offset() + count
	}
	return meta
}
