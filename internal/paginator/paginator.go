package paginator

import (
	"strconv"
	"strings"
)

const pageLinksPerPage = 8

type Page struct {
	Number     int // 1-based page being shown
	TotalPages int
	TotalItems int
	PerPage    int
}

// Resolve maps a raw page query value onto an existing page. A value that is
// not a number resolves to the first page, a number outside [1, TotalPages]
// resolves to the last page. An empty result set still has one page.
func Resolve(raw string, totalItems, perPage int) Page {
	if perPage < 1 {
		perPage = 1
	}
	totalPages := (totalItems + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	p := Page{TotalPages: totalPages, TotalItems: totalItems, PerPage: perPage}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	switch {
	case err != nil:
		p.Number = 1
	case n < 1 || n > totalPages:
		p.Number = totalPages
	default:
		p.Number = n
	}
	return p
}

func (p Page) Offset() int {
	return p.Number*p.PerPage - p.PerPage
}

func (p Page) Limit() int {
	return p.PerPage
}

func (p Page) HasPrevious() bool {
	return p.Number > 1
}

func (p Page) HasNext() bool {
	return p.Number < p.TotalPages
}

func (p Page) Previous() int {
	return p.Number - 1
}

func (p Page) Next() int {
	return p.Number + 1
}

// Links returns the page numbers shown in the pager around the current page.
func (p Page) Links() []int {
	pages := []int{}
	pageLinkShift := (pageLinksPerPage / 2) + 1
	firstPage := 1
	if p.Number-pageLinkShift > 0 {
		firstPage = p.Number - pageLinkShift
	}
	for i, j := firstPage, 1; i <= p.TotalPages && j <= pageLinksPerPage; i, j = i+1, j+1 {
		pages = append(pages, i)
	}
	return pages
}
