package models

import "time"

// BookingStatus is the lifecycle state of a rental transaction.
type BookingStatus string

const (
	BookingStatusRequested       BookingStatus = "requested"
	BookingStatusAccepted        BookingStatus = "accepted"
	BookingStatusPickupConfirmed BookingStatus = "pickup_confirmed"
	BookingStatusActive          BookingStatus = "active"
	BookingStatusReturnInitiated BookingStatus = "return_initiated"
	BookingStatusCompleted       BookingStatus = "completed"
	BookingStatusCancelled       BookingStatus = "cancelled"
	BookingStatusDisputed        BookingStatus = "disputed"
)

// BlockingBookingStatuses are the states that make an item unavailable for an
// overlapping window. Completed and cancelled bookings never block.
var BlockingBookingStatuses = []BookingStatus{
	BookingStatusRequested,
	BookingStatusAccepted,
	BookingStatusPickupConfirmed,
	BookingStatusActive,
	BookingStatusReturnInitiated,
}

// Blocks reports whether a booking in this status makes the item unavailable.
func (s BookingStatus) Blocks() bool {
	for _, blocking := range BlockingBookingStatuses {
		if s == blocking {
			return true
		}
	}
	return false
}

// Booking is a rental transaction against an item.
type Booking struct {
	ID        string        `json:"id" db:"id"`
	ItemID    string        `json:"itemId" db:"item_id"`
	Status    BookingStatus `json:"status" db:"status"`
	PickupAt  time.Time     `json:"pickupAt" db:"pickup_at"`
	ReturnAt  time.Time     `json:"returnAt" db:"return_at"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
}
