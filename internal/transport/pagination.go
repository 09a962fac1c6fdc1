package transport

import (
	"math"
	"net/http"
	"strconv"
)

type Page struct {
	Page    int
	PerPage int
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// ParsePage reads page and per_page from the query string. per_page falls
// back to def and is capped at max. page is capped so Offset stays within
// int32.
func ParsePage(r *http.Request, def, max int) Page {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(q.Get("per_page"))
	if err != nil || perPage < 1 {
		perPage = def
	}
	if max > 0 && perPage > max {
		perPage = max
	}
	if perPage > 0 {
		if limit := math.MaxInt32/perPage + 1; page > limit {
			page = limit
		}
	}
	return Page{Page: page, PerPage: perPage}
}

// FixedPage ignores per_page from the client.
func FixedPage(r *http.Request, perPage int) Page {
	p := ParsePage(r, perPage, perPage)
	p.PerPage = perPage
	return p
}

type Pagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
}

func NewPagination(p Page, total int64) Pagination {
	pages := 0
	if p.PerPage > 0 {
		pages = int(math.Ceil(float64(total) / float64(p.PerPage)))
	}
	return Pagination{Page: p.Page, PerPage: p.PerPage, Total: total, Pages: pages}
}
