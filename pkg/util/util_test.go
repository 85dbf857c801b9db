package util

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	result := Map([]int{1, 2, 3}, func(i int, index uint64) string {
		return strconv.Itoa(i * int(index))
	})
	assert.Equal(t, []string{"0", "2", "6"}, result)

	assert.Empty(t, Map([]int{}, func(i int, _ uint64) int { return i }))
}

func TestFilter(t *testing.T) {
	result := Filter([]int{1, 2, 3, 4, 5}, func(i int) bool {
		return i%2 == 0
	})
	assert.Equal(t, []int{2, 4}, result)

	assert.Empty(t, Filter([]int{1, 3}, func(i int) bool { return i > 10 }))
}

func TestFind(t *testing.T) {
	type item struct{ id int }
	items := []*item{{id: 1}, {id: 2}, {id: 3}}

	found := Find(items, func(i *item) bool { return i.id == 2 })
	assert.Same(t, items[1], found)

	assert.Nil(t, Find(items, func(i *item) bool { return i.id == 9 }))
}

func TestFindValue(t *testing.T) {
	values := []string{"a", "b", "c"}

	found := FindValue(values, func(s string) bool { return s == "b" })
	assert.NotNil(t, found)
	assert.Equal(t, "b", *found)

	assert.Nil(t, FindValue(values, func(s string) bool { return s == "z" }))
}
