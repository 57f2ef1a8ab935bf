package services

import (
	"context"
	"strconv"
	"strings"

	"backoffice/internal/domain"
	"backoffice/internal/repositories"
	"backoffice/internal/utils"
)

// SeatingService binds and unbinds bookings to vehicle seats. Each
// (vehicle, seat) pair is either FREE or OCCUPIED by exactly one booking,
// and a booking holds at most one seat.
type SeatingService struct {
	Store     repositories.BookingStore
	RequestID string
}

// SeatState is one seat of the derived per-vehicle seat map.
type SeatState struct {
	Code     string          `json:"code"`
	Occupied bool            `json:"occupied"`
	Booking  *domain.Booking `json:"booking,omitempty"`
}

// SeatMap is rebuilt from bookings on demand and never persisted.
type SeatMap struct {
	VehicleID int64       `json:"vehicleId"`
	Seats     []SeatState `json:"seats"`
}

// Bind seats the booking on the given vehicle seat. Fails when the booking
// already holds a different seat (unbind first) or when the seat is taken by
// another booking; the store repeats the occupancy check inside its own
// transaction so a lost race still surfaces as a conflict instead of a
// silent overwrite. Rebinding the seat the booking already holds is a no-op.
func (s SeatingService) Bind(ctx context.Context, snapshot []domain.Booking, bookingID, vehicleID int64, seat string) error {
	seat = strings.ToUpper(strings.TrimSpace(seat))
	if seat == "" {
		return domain.ValidationError{Field: "seat", Msg: "seat number is required"}
	}
	if vehicleID <= 0 {
		return domain.ValidationError{Field: "vehicleId", Msg: "vehicle is required"}
	}

	booking, ok := findBooking(snapshot, bookingID)
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	if booking.Seated() {
		if *booking.VehicleID == vehicleID && *booking.SeatNumber == seat {
			return nil
		}
		return domain.ValidationError{Field: "bookingId", Msg: "booking already holds a seat, unbind first"}
	}

	if occ := Occupant(snapshot, vehicleID, seat); occ != nil && occ.ID != bookingID {
		return domain.ConflictError{Resource: "seat", Msg: "seat " + seat + " already occupied"}
	}

	utils.LogEvent(s.RequestID, "seating", "bind",
		"booking_id="+strconv.FormatInt(bookingID, 10)+" vehicle_id="+strconv.FormatInt(vehicleID, 10)+" seat="+seat)
	return s.Store.BindSeat(ctx, bookingID, vehicleID, seat)
}

// Unbind clears the booking's seat number and vehicle together. Always
// permitted for the seat's own occupant; unbinding an unseated booking is a
// no-op.
func (s SeatingService) Unbind(ctx context.Context, bookingID int64) error {
	utils.LogEvent(s.RequestID, "seating", "unbind", "booking_id="+strconv.FormatInt(bookingID, 10))
	return s.Store.UnbindSeat(ctx, bookingID)
}

// Occupant returns the booking seated on (vehicle, seat), nil when FREE.
// Inspecting a seat never transitions state; the caller gets the occupant's
// identity and must issue an explicit unbind to free it.
func Occupant(snapshot []domain.Booking, vehicleID int64, seat string) *domain.Booking {
	seat = strings.ToUpper(strings.TrimSpace(seat))
	for i := range snapshot {
		b := snapshot[i]
		if b.Seated() && *b.VehicleID == vehicleID && strings.EqualFold(*b.SeatNumber, seat) {
			return &snapshot[i]
		}
	}
	return nil
}

// BuildSeatMap assembles the ordered seat map of one vehicle from its layout
// plus the trip snapshot. Occupied seats missing from the layout (stale
// layout data) are appended so no occupant is hidden.
func (s SeatingService) BuildSeatMap(ctx context.Context, snapshot []domain.Booking, vehicleID int64) (SeatMap, error) {
	layout, err := s.Store.ListVehicleSeats(ctx, vehicleID)
	if err != nil {
		return SeatMap{}, err
	}

	out := SeatMap{VehicleID: vehicleID, Seats: []SeatState{}}
	covered := map[string]bool{}
	for _, seat := range layout {
		code := strings.ToUpper(strings.TrimSpace(seat.Code))
		if code == "" || covered[code] {
			continue
		}
		covered[code] = true
		state := SeatState{Code: code}
		if occ := Occupant(snapshot, vehicleID, code); occ != nil {
			state.Occupied = true
			state.Booking = occ
		}
		out.Seats = append(out.Seats, state)
	}

	for i := range snapshot {
		b := snapshot[i]
		if !b.Seated() || *b.VehicleID != vehicleID {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(*b.SeatNumber))
		if covered[code] {
			continue
		}
		covered[code] = true
		out.Seats = append(out.Seats, SeatState{Code: code, Occupied: true, Booking: &snapshot[i]})
	}

	return out, nil
}

// CheckSeatInvariant verifies that no (vehicle, seat) pair is held by more
// than one booking and that no record is half-seated.
func CheckSeatInvariant(snapshot []domain.Booking) error {
	seen := map[string]int64{}
	for _, b := range snapshot {
		if (b.SeatNumber == nil) != (b.VehicleID == nil) {
			return domain.InternalError{Msg: "booking " + strconv.FormatInt(b.ID, 10) + " is half-seated"}
		}
		if !b.Seated() {
			continue
		}
		key := strconv.FormatInt(*b.VehicleID, 10) + "/" + strings.ToUpper(*b.SeatNumber)
		if other, ok := seen[key]; ok {
			return domain.ConflictError{
				Resource: "seat",
				Msg: "seat " + key + " held by bookings " +
					strconv.FormatInt(other, 10) + " and " + strconv.FormatInt(b.ID, 10),
			}
		}
		seen[key] = b.ID
	}
	return nil
}
