package models

import "math"

// Location is the structured address shared by both profile types.
type Location struct {
	City    string `json:"city" binding:"required,min=1"`
	State   string `json:"state" binding:"required,min=1"`
	Country string `json:"country" binding:"required,min=1"`
}

// LocationUpdate merges into a Location field by field.
type LocationUpdate struct {
	City    *string `json:"city" binding:"omitempty,min=1"`
	State   *string `json:"state" binding:"omitempty,min=1"`
	Country *string `json:"country" binding:"omitempty,min=1"`
}

// Apply returns l with the provided fields replaced.
func (u *LocationUpdate) Apply(l Location) Location {
	if u == nil {
		return l
	}
	if u.City != nil {
		l.City = *u.City
	}
	if u.State != nil {
		l.State = *u.State
	}
	if u.Country != nil {
		l.Country = *u.Country
	}
	return l
}

// Page is a paginated listing.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// maxOffset keeps (page-1)*limit within a Postgres integer OFFSET.
	maxOffset = math.MaxInt32
)

// NormalizePaging clamps page and limit to sane values. Pages past the
// largest representable offset are pinned to it and come back empty.
func NormalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if maxPage := maxOffset/limit + 1; page > maxPage {
		page = maxPage
	}
	return page, limit
}

// Offset is the row offset of a page normalized by NormalizePaging.
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// TotalPages is ceil(total / limit).
func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
