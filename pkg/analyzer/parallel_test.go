package analyzer

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapIndexed_PreservesOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	var ticks atomic.Int32

	got := MapIndexed(items, 3, func(n int) int { return n * n }, func() { ticks.Add(1) })

	assert.Equal(t, []int{1, 4, 9, 16, 25, 36, 49, 64}, got)
	assert.Equal(t, int32(len(items)), ticks.Load())
}

func TestMapIndexed_Empty(t *testing.T) {
	got := MapIndexed([]string{}, 0, func(s string) string { return s }, nil)
	assert.Nil(t, got)
}
