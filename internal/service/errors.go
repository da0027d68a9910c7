package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Faheem12005/pathable-backend/internal/models"
)

var (
	ErrDateLocked        = errors.New("bookings are locked for this date")
	ErrNoBusesAvailable  = errors.New("no buses available")
	ErrNoSeatsAvailable  = errors.New("no seats available")
	ErrInsufficientSeats = errors.New("not enough seats for group")
	ErrNoAdjacentSeats   = errors.New("no adjacent seats available")
	ErrEmptyGroup        = errors.New("group has no members")
	ErrAlreadyBooked     = errors.New("user already has a confirmed booking for this date")
	ErrRequestNotFound   = errors.New("request not found")
	ErrRequestAllocated  = errors.New("request is already allocated")
	ErrPastDate          = errors.New("cannot change requests for a past date")
	ErrUserNotFound      = errors.New("user not found")
	ErrBusNotFound       = errors.New("bus not found")
	ErrGroupNotFound     = errors.New("group not found")
	ErrRunNotFound       = errors.New("allocation run not found")
)

// LockedError carries the date a mutation was refused for.
type LockedError struct {
	Date time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDateLocked, models.FormatDate(e.Date))
}

func (e *LockedError) Unwrap() error { return ErrDateLocked }

// IsAllocationFailure reports whether err is an expected capacity or
// configuration outcome rather than an infrastructure fault.
func IsAllocationFailure(err error) bool {
	return errors.Is(err, ErrNoBusesAvailable) ||
		errors.Is(err, ErrNoSeatsAvailable) ||
		errors.Is(err, ErrInsufficientSeats) ||
		errors.Is(err, ErrNoAdjacentSeats) ||
		errors.Is(err, ErrEmptyGroup)
}

// FailureReason is the business outcome of an allocation attempt that did
// not place anyone.
type FailureReason string

const (
	ReasonNone           FailureReason = ""
	ReasonNoBus          FailureReason = "NO_BUS"
	ReasonNoSeat         FailureReason = "NO_SEAT"
	ReasonNotPending     FailureReason = "NOT_PENDING"
	ReasonInsufficient   FailureReason = "INSUFFICIENT_SEATS"
	ReasonNoAdjacentSeat FailureReason = "NO_ADJACENT_SEATS"
	ReasonEmptyGroup     FailureReason = "EMPTY_GROUP"
)

// ReasonFor maps an allocation failure error onto its reason.
func ReasonFor(err error) FailureReason {
	switch {
	case errors.Is(err, ErrNoBusesAvailable):
		return ReasonNoBus
	case errors.Is(err, ErrNoSeatsAvailable):
		return ReasonNoSeat
	case errors.Is(err, ErrInsufficientSeats):
		return ReasonInsufficient
	case errors.Is(err, ErrNoAdjacentSeats):
		return ReasonNoAdjacentSeat
	case errors.Is(err, ErrEmptyGroup):
		return ReasonEmptyGroup
	default:
		return ReasonNone
	}
}
