// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package tree provides pure sibling-order maintenance for adjacency-list
// trees. Both the action tree and any other ordered-children feature renumber
// through these functions; none of them touch the database.
package tree

// NextSortOrder returns the sort order for a node appended after the given
// siblings: max(existing)+1, or 0 when the sibling set is empty.
func NextSortOrder(orders []int64) int64 {
	if len(orders) == 0 {
		return 0
	}
	max := orders[0]
	for _, o := range orders[1:] {
		if o > max {
			max = o
		}
	}
	return max + 1
}

// Renumber returns a dense 0..n-1 sort order assignment for ids in the order
// given. Used after a move to keep sibling order contiguous.
func Renumber(ids []int64) map[int64]int64 {
	orders := make(map[int64]int64, len(ids))
	for i, id := range ids {
		orders[id] = int64(i)
	}
	return orders
}

// InsertBefore removes id from ids if present, then inserts it immediately
// before ref. When ref is nil the id is appended at the end. The input slice
// is not modified; the caller renumbers the result.
func InsertBefore(ids []int64, id int64, ref *int64) []int64 {
	out := make([]int64, 0, len(ids)+1)
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}

	if ref == nil {
		return append(out, id)
	}

	for i, v := range out {
		if v == *ref {
			out = append(out[:i], append([]int64{id}, out[i:]...)...)
			return out
		}
	}
	return append(out, id)
}
