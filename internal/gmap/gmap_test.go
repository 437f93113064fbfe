package gmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClone(t *testing.T) {
	m := map[int]int{1: 1, 2: 2}
	got := Clone(m)
	assert.Equal(t, m, got)

	got[3] = 3
	assert.NotContains(t, m, 3)

	assert.Nil(t, Clone[int, int](nil))
}

func TestSortedKeys(t *testing.T) {
	m := map[string]struct{}{"b": {}, "a": {}, "c": {}}
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(m))
	assert.Empty(t, SortedKeys(map[string]int(nil)))
}
