package repositories

import (
	"context"

	"backoffice/internal/domain"
)

// LuggageItem is a read-only enrichment record attached to a booking.
type LuggageItem struct {
	ID          int64   `json:"id"`
	BookingID   int64   `json:"bookingId"`
	Description string  `json:"description"`
	WeightKg    float64 `json:"weightKg"`
}

// VehicleSeat is one seat of a vehicle's layout, in display order.
type VehicleSeat struct {
	VehicleID int64  `json:"vehicleId"`
	Code      string `json:"code"`
	Position  int    `json:"position"`
}

// BookingStore is the organizer's only write surface. Every read is a fresh
// snapshot; writes are best-effort with no optimistic-lock token, so a
// second session can overwrite. Last writer wins.
type BookingStore interface {
	ListBookings(ctx context.Context, tripID int64) ([]domain.Booking, error)
	ListLuggage(ctx context.Context, bookingID int64) ([]LuggageItem, error)

	// UpdateOrder rewrites the canonical manual order: position in
	// orderedIDs becomes order_index. UpdateCityOrder does the same for
	// the city-local index and never touches the canonical one.
	UpdateOrder(ctx context.Context, tripID int64, orderedIDs []int64) error
	UpdateCityOrder(ctx context.Context, tripID int64, orderedIDs []int64) error

	// SetTag sets or clears (nil) the tag color of a single booking.
	// Cascading over a group is the linking service's job.
	SetTag(ctx context.Context, bookingID int64, color *string) error

	// Link puts the target booking into the anchor's group, creating a
	// group identifier for the anchor when it has none. Unlink removes a
	// booking from its group and collapses a remaining singleton.
	Link(ctx context.Context, bookingID, anchorID int64) error
	Unlink(ctx context.Context, bookingID int64) error

	BindSeat(ctx context.Context, bookingID, vehicleID int64, seat string) error
	UnbindSeat(ctx context.Context, bookingID int64) error

	// AssignDriver sets (or clears, driverID nil) the driver on one leg of
	// one booking. Bulk dispatch fans out over this so each booking update
	// stays independent.
	AssignDriver(ctx context.Context, bookingID int64, driverID *int64, leg domain.Leg) error

	ListVehicleSeats(ctx context.Context, vehicleID int64) ([]VehicleSeat, error)
}
