// Package utils holds small generic helpers with no domain knowledge.
package utils

import "strconv"

// Default and maximum page sizes for listings.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// AtoiDefault parses s, falling back to def when s is empty or invalid.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Page normalizes a 1-based page number and a page size. Pages below 1
// become 1; sizes are clamped to [1, MaxPageSize], with DefaultPageSize for
// non-positive values.
func Page(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case size <= 0:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return page, size
}

// Paginate returns the window of items for a normalized page and size. A
// page past the end yields an empty, non-nil slice.
func Paginate[T any](items []T, page, size int) []T {
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
