package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeatTiers(t *testing.T) {
	tiers := map[int]SeatPosition{
		1: SeatPositionFront, 2: SeatPositionFront, 3: SeatPositionFront, 4: SeatPositionFront,
		5: SeatPositionMiddle, 6: SeatPositionMiddle,
		7: SeatPositionBack, 8: SeatPositionBack, 9: SeatPositionBack,
	}
	prices := map[SeatPosition]int64{
		SeatPositionFront:  250000,
		SeatPositionMiddle: 200000,
		SeatPositionBack:   150000,
	}

	for seat := 1; seat <= SeatCount; seat++ {
		pos := SeatPositionFor(seat)
		assert.Equal(t, tiers[seat], pos, "seat %d", seat)
		assert.Equal(t, prices[pos], SeatPriceFor(seat), "seat %d", seat)
	}
}

func TestSeatsForPosition(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 4}, SeatsForPosition(SeatPositionFront))
	assert.Equal(t, []int{5, 6}, SeatsForPosition(SeatPositionMiddle))
	assert.Equal(t, []int{7, 8, 9}, SeatsForPosition(SeatPositionBack))
	assert.Nil(t, SeatsForPosition("aisle"))
}
