package models

// SeatCount is the fixed capacity of every vehicle. Seats are numbered
// 1..SeatCount and statically partitioned into position tiers.
const SeatCount = 9

// SeatPosition is the tier a seat number belongs to.
type SeatPosition string

const (
	SeatPositionFront  SeatPosition = "front"
	SeatPositionMiddle SeatPosition = "middle"
	SeatPositionBack   SeatPosition = "back"
)

// Tier prices in VND.
const (
	SeatPriceFront  int64 = 250000
	SeatPriceMiddle int64 = 200000
	SeatPriceBack   int64 = 150000
)

// SeatPositionFor returns the tier for a seat number.
// Front {1-4}, middle {5-6}, back {7-9}.
func SeatPositionFor(seatNumber int) SeatPosition {
	switch {
	case seatNumber >= 1 && seatNumber <= 4:
		return SeatPositionFront
	case seatNumber == 5 || seatNumber == 6:
		return SeatPositionMiddle
	default:
		return SeatPositionBack
	}
}

// SeatPriceFor returns the tier price for a seat number.
func SeatPriceFor(seatNumber int) int64 {
	switch SeatPositionFor(seatNumber) {
	case SeatPositionFront:
		return SeatPriceFront
	case SeatPositionMiddle:
		return SeatPriceMiddle
	default:
		return SeatPriceBack
	}
}

// SeatsForPosition returns the seat numbers in a tier, ascending. An
// unrecognized position returns nil, which callers treat as "no bucket
// restriction".
func SeatsForPosition(position SeatPosition) []int {
	switch position {
	case SeatPositionFront:
		return []int{1, 2, 3, 4}
	case SeatPositionMiddle:
		return []int{5, 6}
	case SeatPositionBack:
		return []int{7, 8, 9}
	}
	return nil
}

// Seat is one of the nine numbered seats created together with its vehicle.
type Seat struct {
	ID         string       `db:"id" json:"id"`
	VehicleID  string       `db:"vehicle_id" json:"vehicle_id"`
	SeatNumber int          `db:"seat_number" json:"seat_number"`
	Position   SeatPosition `db:"position" json:"position"`
	Price      int64        `db:"price" json:"price"`
	IsBooked   bool         `db:"is_booked" json:"is_booked"`
}
