package domain

import "time"

// Reservation is one seat on a flight held by a user.
type Reservation struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"userId"`
	FlightID        int64     `json:"flightId"`
	ReservationDate time.Time `json:"reservationDate"`
}
