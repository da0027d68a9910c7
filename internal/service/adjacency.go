package service

import (
	"strconv"

	"github.com/Faheem12005/pathable-backend/internal/models"
)

// seatsAdjacent reports whether the labels form one contiguous numeric run
// once the leading row character is dropped: A1,A2,A3 is adjacent, A1,A3 is
// not. Labels without a numeric suffix are never adjacent.
//
// Only the first character is treated as the row, so the row letters of the
// labels are not compared with each other.
func seatsAdjacent(labels []string) bool {
	if len(labels) == 0 {
		return false
	}
	first, ok := seatPosition(labels[0])
	if !ok {
		return false
	}
	for i, label := range labels[1:] {
		n, ok := seatPosition(label)
		if !ok || n != first+i+1 {
			return false
		}
	}
	return true
}

func seatPosition(label string) (int, bool) {
	if len(label) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(label[1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// firstAdjacentBlock slides a window of size over the ordered seats and
// returns the first window that is adjacent. Scanning stops at the first hit.
func firstAdjacentBlock(seats []models.Seat, size int) ([]models.Seat, bool) {
	if size <= 0 || len(seats) < size {
		return nil, false
	}
	labels := make([]string, size)
	for i := 0; i+size <= len(seats); i++ {
		block := seats[i : i+size]
		for j := range block {
			labels[j] = block[j].SeatNumber
		}
		if seatsAdjacent(labels) {
			return block, true
		}
	}
	return nil, false
}

// pickGroupSeats applies the capacity and adjacency rules to the locked list
// of available seats.
func pickGroupSeats(available []models.Seat, size int) ([]models.Seat, error) {
	if len(available) < size {
		return nil, ErrInsufficientSeats
	}
	block, ok := firstAdjacentBlock(available, size)
	if !ok {
		return nil, ErrNoAdjacentSeats
	}
	return block, nil
}
