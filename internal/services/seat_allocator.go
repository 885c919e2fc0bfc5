package services

import (
	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/models"
)

// PickSeat selects a free seat from the 1..9 universe given a snapshot of
// occupied seat numbers and a position preference. Within the preferred
// tier the lowest available number wins; a fully occupied tier (or no
// recognized preference) falls back to the lowest available seat overall.
//
// The function is pure and deterministic over its inputs. It does not
// guarantee exclusivity: the seat lock and the storage uniqueness
// constraint do that downstream.
func PickSeat(occupied []int, preference models.SeatPreference) (int, bool) {
	taken := make(map[int]bool, len(occupied))
	for _, s := range occupied {
		taken[s] = true
	}

	var available []int
	for s := 1; s <= models.SeatCount; s++ {
		if !taken[s] {
			available = append(available, s)
		}
	}
	if len(available) == 0 {
		return 0, false
	}

	for _, s := range models.SeatsForPosition(models.SeatPosition(preference)) {
		if !taken[s] {
			return s, true
		}
	}
	return available[0], true
}
