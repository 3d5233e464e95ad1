package paging

import "subprocess-review-backend/internal/models"

// Aggregate page icons rendered on the pagination strip.
const (
	IconComplete = "complete"
	IconPartial  = "partial"
	IconEmpty    = "empty"
)

// TotalPages returns ceil(count/size), never less than 1: page 1 of an
// empty batch list is a valid, empty page.
func TotalPages(count, size int) int {
	if size < 1 {
		size = 1
	}
	pages := (count + size - 1) / size
	if pages < 1 {
		return 1
	}
	return pages
}

// Clamp forces page into [1, totalPages]. Out-of-range requests land on
// the nearest valid page instead of erroring.
func Clamp(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Bounds returns the half-open slice range [start, end) of page over a
// list of count items. The page is clamped first.
func Bounds(page, count, size int) (int, int) {
	if size < 1 {
		size = 1
	}
	page = Clamp(page, TotalPages(count, size))
	start := (page - 1) * size
	end := start + size
	if end > count {
		end = count
	}
	if start > count {
		start = count
	}
	return start, end
}

// Icon derives the aggregate icon for a page from its batch states:
// every batch done reads complete, every batch pending (or no batches at
// all) reads empty, and any other mix reads partial.
func Icon(states []string) string {
	if len(states) == 0 {
		return IconEmpty
	}

	allDone := true
	allPending := true
	for _, s := range states {
		if s != models.StateDone {
			allDone = false
		}
		if s != models.StatePending {
			allPending = false
		}
	}

	switch {
	case allDone:
		return IconComplete
	case allPending:
		return IconEmpty
	default:
		return IconPartial
	}
}
