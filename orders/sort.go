package orders

import "sort"

// SortNewestFirst orders by order date, most recent first. Orders with the
// same date, or without one, keep their relative order; undated orders go
// last.
func SortNewestFirst(list []Order) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].OrderDate.After(list[j].OrderDate)
	})
}
