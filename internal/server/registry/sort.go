package registry

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

type SortKey string

const (
	SortNameAsc  SortKey = "name_asc"
	SortNameDesc SortKey = "name_desc"
	SortNewest   SortKey = "newest"
	SortOldest   SortKey = "oldest"
	SortLargest  SortKey = "largest"
	SortSmallest SortKey = "smallest"
	SortExtAsc   SortKey = "ext_asc"
	SortExtDesc  SortKey = "ext_desc"

	DefaultSort = SortNameAsc
)

// SortKeys in display order
var SortKeys = []SortKey{
	SortNameAsc, SortNameDesc,
	SortNewest, SortOldest,
	SortLargest, SortSmallest,
	SortExtAsc, SortExtDesc,
}

// ParseSortKey falls back to DefaultSort for unknown input
func ParseSortKey(s string) SortKey {
	key := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortKeys, key) {
		return key
	}
	return DefaultSort
}

// Sort orders records in place. Unknown upload times go last in both time
// orders. Unknown sizes count as 0 for largest and as +inf for smallest.
func Sort(records []FileRecord, key SortKey) {
	slices.SortStableFunc(records, comparator(key))
}

func comparator(key SortKey) func(a, b FileRecord) int {
	switch key {
	case SortNameDesc:
		return func(a, b FileRecord) int { return -byName(a, b) }

	case SortNewest:
		return func(a, b FileRecord) int {
			return thenByName(byTime(a, b, true), a, b)
		}

	case SortOldest:
		return func(a, b FileRecord) int {
			return thenByName(byTime(a, b, false), a, b)
		}

	case SortLargest:
		return func(a, b FileRecord) int {
			return thenByName(cmp.Compare(sizeOr(b, 0), sizeOr(a, 0)), a, b)
		}

	case SortSmallest:
		return func(a, b FileRecord) int {
			return thenByName(cmp.Compare(sizeOr(a, math.MaxInt64), sizeOr(b, math.MaxInt64)), a, b)
		}

	case SortExtAsc:
		return func(a, b FileRecord) int {
			return thenByName(cmp.Compare(a.Extension, b.Extension), a, b)
		}

	case SortExtDesc:
		return func(a, b FileRecord) int {
			return thenByName(cmp.Compare(b.Extension, a.Extension), a, b)
		}
	}

	return byName
}

func byName(a, b FileRecord) int {
	if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}

func thenByName(c int, a, b FileRecord) int {
	if c != 0 {
		return c
	}
	return byName(a, b)
}

func byTime(a, b FileRecord, newestFirst bool) int {
	switch {
	case a.UploadTime == nil && b.UploadTime == nil:
		return 0
	case a.UploadTime == nil:
		return 1
	case b.UploadTime == nil:
		return -1
	}

	c := a.UploadTime.Compare(*b.UploadTime)
	if newestFirst {
		return -c
	}
	return c
}

func sizeOr(r FileRecord, unknown int64) int64 {
	if r.SizeBytes == nil {
		return unknown
	}
	return *r.SizeBytes
}
