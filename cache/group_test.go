package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSquareIDRoundTrip(t *testing.T) {
	id := SquareID(3, 100)
	i, j := SplitSquareID(id)
	assert.Equal(t, uint8(3), i)
	assert.Equal(t, uint8(100), j)
}

func TestNeighborsCornerClamping(t *testing.T) {
	// For core (0,0) with ranges [-1,1]x[-1,1], negative offsets clamp to 0,
	// so only the 2x2 block {(0,0),(0,1),(1,0),(1,1)} is distinct.
	coords := neighbors(0, 0, OffsetRange{Lo: -1, Hi: 1}, OffsetRange{Lo: -1, Hi: 1})
	seen := make(map[[2]uint8]bool)
	for _, c := range coords {
		seen[c] = true
	}
	assert.True(t, seen[[2]uint8{0, 0}])
	assert.True(t, seen[[2]uint8{0, 1}])
	assert.True(t, seen[[2]uint8{1, 0}])
	assert.True(t, seen[[2]uint8{1, 1}])
	assert.Len(t, seen, 4)
}

func TestNeighborsInterior(t *testing.T) {
	coords := neighbors(5, 5, OffsetRange{Lo: -1, Hi: 1}, OffsetRange{Lo: -1, Hi: 1})
	assert.Len(t, coords, 9)
}
