// ABOUTME: Page-number pagination shared by all list operations
// ABOUTME: Clamps size to a hard cap and derives navigation metadata

package service

import "github.com/larpforge/larpd/internal/store"

const (
	// DefaultPageSize applies when the caller does not ask for a size
	DefaultPageSize = 20
	// MaxPageSize caps the size a caller may ask for
	MaxPageSize = 100
)

// Page is a one-based page request with an optional sort column
type Page struct {
	Number     int
	Size       int
	OrderBy    string
	Descending bool
}

// PageInfo describes the page that was returned
type PageInfo struct {
	Page        int  `json:"page"`
	Size        int  `json:"size"`
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// options clamps the request and converts it to store list options. The
// returned PageInfo has its totals filled in after the query runs.
func (p Page) options() (store.ListOptions, *PageInfo) {
	number := p.Number
	if number < 1 {
		number = 1
	}
	size := p.Size
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	opts := store.ListOptions{
		Limit:      size,
		Offset:     (number - 1) * size,
		OrderBy:    p.OrderBy,
		Descending: p.Descending,
	}
	return opts, &PageInfo{Page: number, Size: size}
}

// fill completes the navigation metadata once the total row count is known
func (pi *PageInfo) fill(total int) {
	pi.TotalItems = total
	pi.TotalPages = (total + pi.Size - 1) / pi.Size
	if pi.TotalPages < 1 {
		pi.TotalPages = 1
	}
	pi.HasNext = pi.Page < pi.TotalPages
	pi.HasPrevious = pi.Page > 1
}
