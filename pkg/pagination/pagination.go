// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination parses page requests for the account listing and
// describes the resulting page in the response envelope.
//
// # Query Parameters
//
//   - page: 1-indexed page number.
//   - page_size: items per page. "limit" is accepted as an alias.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultPage is the starting page (1-indexed).
	DefaultPage = 1
	// DefaultLimit is the page size when none is requested.
	DefaultLimit = 10
	// MaxLimit caps the page size a client may ask for.
	MaxLimit = 100
)

// Params holds the parsed page and page size.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the number of rows skipped before this page.
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Meta describes one page of a listing.
type Meta struct {
	Page        int  `json:"current_page"`
	Limit       int  `json:"page_size"`
	Total       int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// NewMeta builds the page description from the requested page and the total row count.
func NewMeta(page, limit, total int) Meta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return Meta{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page*limit < total,
		HasPrevious: page > 1,
	}
}

// FromRequest parses the page parameters from the query string.
//
// Missing, malformed or out-of-range values fall back to [DefaultPage] and
// [DefaultLimit].
func FromRequest(r *http.Request) Params {
	page := parseIntParam(r, "page", DefaultPage)

	limit := parseIntParam(r, "page_size", 0)
	if limit == 0 {
		limit = parseIntParam(r, "limit", DefaultLimit)
	}

	if page < 1 {
		page = DefaultPage
	}

	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}

	return Params{Page: page, Limit: limit}
}

func parseIntParam(r *http.Request, key string, defaultVal int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultVal
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}

	return n
}
