// Package usecase は予約ワークフローのビジネスロジックを実装します。
package usecase

import "errors"

var (
	// ErrSlotsRequired is returned when AddSlots receives no slots.
	ErrSlotsRequired = errors.New("slots required")

	// ErrInvalidSlot is returned when a slot has a malformed date or time range.
	ErrInvalidSlot = errors.New("invalid slot")

	// ErrDoctorNotFound is returned when the doctor profile behind a request does not exist.
	ErrDoctorNotFound = errors.New("doctor not found")

	// ErrSlotNotAvailable is returned when a slot does not exist or is already booked.
	ErrSlotNotAvailable = errors.New("slot not available")

	// ErrAdminBooking is returned when an admin principal tries to book for itself.
	ErrAdminBooking = errors.New("admins cannot book slots")
)
