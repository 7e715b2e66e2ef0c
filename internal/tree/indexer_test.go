// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextSortOrder(t *testing.T) {
	tests := []struct {
		name   string
		orders []int64
		want   int64
	}{
		{"empty set", nil, 0},
		{"single sibling", []int64{0}, 1},
		{"dense range", []int64{0, 1, 2}, 3},
		{"sparse range", []int64{0, 5, 2}, 6},
		{"unordered input", []int64{7, 1, 3}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextSortOrder(tt.orders))
		})
	}
}

func TestRenumber(t *testing.T) {
	orders := Renumber([]int64{30, 10, 20})

	assert.Equal(t, int64(0), orders[30])
	assert.Equal(t, int64(1), orders[10])
	assert.Equal(t, int64(2), orders[20])
	assert.Len(t, orders, 3)
}

func TestRenumberEmpty(t *testing.T) {
	assert.Empty(t, Renumber(nil))
}

func TestInsertBefore(t *testing.T) {
	ref := func(v int64) *int64 { return &v }

	tests := []struct {
		name string
		ids  []int64
		id   int64
		ref  *int64
		want []int64
	}{
		{"append when ref nil", []int64{1, 2}, 3, nil, []int64{1, 2, 3}},
		{"insert before first", []int64{1, 2, 3}, 3, ref(1), []int64{3, 1, 2}},
		{"insert before middle", []int64{1, 2, 3}, 1, ref(3), []int64{2, 1, 3}},
		{"already before ref keeps order", []int64{1, 2, 3}, 2, ref(3), []int64{1, 2, 3}},
		{"new id into empty list", nil, 9, nil, []int64{9}},
		{"missing ref appends", []int64{1, 2}, 3, ref(99), []int64{1, 2, 3}},
		{"move existing to end", []int64{1, 2, 3}, 1, nil, []int64{2, 3, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InsertBefore(tt.ids, tt.id, tt.ref))
		})
	}
}

func TestInsertBeforeDoesNotMutateInput(t *testing.T) {
	ids := []int64{1, 2, 3}
	r := int64(2)
	_ = InsertBefore(ids, 3, &r)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

// Moving every element before every other element must always yield a
// permutation of the original set.
func TestInsertBeforeIsPermutation(t *testing.T) {
	ids := []int64{10, 20, 30, 40}
	for _, id := range ids {
		for _, r := range ids {
			if id == r {
				continue
			}
			r := r
			out := InsertBefore(ids, id, &r)
			assert.Len(t, out, len(ids))
			seen := map[int64]bool{}
			for _, v := range out {
				seen[v] = true
			}
			for _, v := range ids {
				assert.True(t, seen[v], "id %d missing after move", v)
			}
		}
	}
}
