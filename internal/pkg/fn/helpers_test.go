package fn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	t.Parallel()

	ids := []int64{1, 2, 3}
	labels := Map(ids, func(id int64) string {
		return string(rune('a' + id - 1))
	})

	assert.Equal(t, []string{"a", "b", "c"}, labels)
}

func TestMap_EmptySlice(t *testing.T) {
	t.Parallel()

	out := Map([]int{}, func(n int) int { return n * n })
	assert.Empty(t, out)
	assert.NotNil(t, out)
}

func TestUnique(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"b@su.edu", "a@su.edu"}, Unique([]string{"b@su.edu", "a@su.edu", "b@su.edu"}))
	assert.Empty(t, Unique([]int64(nil)))
}
