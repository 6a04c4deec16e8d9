// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := Make[int](10)
	assert.Len(t, s, 0)

	s.Insert(3, 7)
	assert.True(t, s.Has(3))
	assert.False(t, s.Has(5))

	s.InsertSet(MakeWith(5, 7))
	assert.Equal(t, []int{3, 5, 7}, Sorted(s))
}

func TestCloneAndSorted(t *testing.T) {
	a := MakeWith(9, 1, 4)
	c := a.Clone()
	c.Insert(100)
	assert.False(t, a.Has(100))
	assert.Equal(t, []int{1, 4, 9, 100}, Sorted(c))

	var empty Set[int]
	assert.Len(t, empty.Clone(), 0)
	assert.Empty(t, Sorted(empty))
}
