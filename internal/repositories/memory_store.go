package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"

	"backoffice/internal/domain"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory BookingStore with the same semantics as the
// MySQL one. It backs service tests and local development without a DB.
type MemoryStore struct {
	mu       sync.Mutex
	bookings map[int64]*domain.Booking
	luggage  map[int64][]LuggageItem
	seats    map[int64][]VehicleSeat

	// FailOps/FailIDs inject failures: FailOps["updateOrder"] makes that
	// operation fail, FailIDs makes per-booking writes fail for those ids.
	FailOps map[string]bool
	FailIDs map[int64]bool
}

func NewMemoryStore(bookings []domain.Booking) *MemoryStore {
	s := &MemoryStore{
		bookings: map[int64]*domain.Booking{},
		luggage:  map[int64][]LuggageItem{},
		seats:    map[int64][]VehicleSeat{},
		FailOps:  map[string]bool{},
		FailIDs:  map[int64]bool{},
	}
	for i := range bookings {
		b := bookings[i]
		s.bookings[b.ID] = &b
	}
	return s
}

func (s *MemoryStore) SetLuggage(bookingID int64, items []LuggageItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.luggage[bookingID] = items
}

func (s *MemoryStore) SetVehicleSeats(vehicleID int64, codes []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seats := make([]VehicleSeat, 0, len(codes))
	for i, c := range codes {
		seats = append(seats, VehicleSeat{VehicleID: vehicleID, Code: c, Position: i})
	}
	s.seats[vehicleID] = seats
}

// Booking returns a copy of the stored record, for assertions.
func (s *MemoryStore) Booking(id int64) (domain.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, false
	}
	return *b, true
}

func (s *MemoryStore) fail(op string) error {
	if s.FailOps[op] {
		return domain.TransportError{Op: op}
	}
	return nil
}

func (s *MemoryStore) ListBookings(_ context.Context, tripID int64) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("listBookings"); err != nil {
		return nil, err
	}
	out := []domain.Booking{}
	for _, b := range s.bookings {
		if b.TripID == tripID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) ListLuggage(_ context.Context, bookingID int64) ([]LuggageItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("listLuggage"); err != nil {
		return nil, err
	}
	return s.luggage[bookingID], nil
}

func (s *MemoryStore) UpdateOrder(_ context.Context, tripID int64, orderedIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("updateOrder"); err != nil {
		return err
	}
	for pos, id := range orderedIDs {
		if b, ok := s.bookings[id]; ok && b.TripID == tripID {
			b.OrderIndex = pos
		}
	}
	return nil
}

func (s *MemoryStore) UpdateCityOrder(_ context.Context, tripID int64, orderedIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("updateCityOrder"); err != nil {
		return err
	}
	for pos, id := range orderedIDs {
		if b, ok := s.bookings[id]; ok && b.TripID == tripID {
			b.CityOrderIndex = pos
		}
	}
	return nil
}

func (s *MemoryStore) SetTag(_ context.Context, bookingID int64, color *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("setTag"); err != nil {
		return err
	}
	if s.FailIDs[bookingID] {
		return domain.TransportError{Op: "setTag"}
	}
	b, ok := s.bookings[bookingID]
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	if color == nil || strings.TrimSpace(*color) == "" {
		b.TagColor = nil
		return nil
	}
	c := strings.TrimSpace(*color)
	b.TagColor = &c
	return nil
}

func (s *MemoryStore) Link(_ context.Context, bookingID, anchorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("link"); err != nil {
		return err
	}
	anchor, ok := s.bookings[anchorID]
	if !ok {
		return domain.NotFoundError{Resource: "anchor booking"}
	}
	target, ok := s.bookings[bookingID]
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	gid := anchor.GroupKey()
	if gid == "" {
		gid = uuid.NewString()
		anchor.GroupID = &gid
	}
	g := gid
	target.GroupID = &g
	return nil
}

func (s *MemoryStore) Unlink(_ context.Context, bookingID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("unlink"); err != nil {
		return err
	}
	b, ok := s.bookings[bookingID]
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	gid := b.GroupKey()
	if gid == "" {
		return nil
	}
	b.GroupID = nil

	var members []*domain.Booking
	for _, other := range s.bookings {
		if other.GroupKey() == gid {
			members = append(members, other)
		}
	}
	if len(members) == 1 {
		members[0].GroupID = nil
	}
	return nil
}

func (s *MemoryStore) BindSeat(_ context.Context, bookingID, vehicleID int64, seat string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("bindSeat"); err != nil {
		return err
	}
	seat = strings.ToUpper(strings.TrimSpace(seat))
	if seat == "" {
		return domain.ValidationError{Field: "seat", Msg: "seat number is required"}
	}
	for _, other := range s.bookings {
		if other.ID != bookingID && other.Seated() &&
			*other.VehicleID == vehicleID && *other.SeatNumber == seat {
			return domain.ConflictError{Resource: "seat", Msg: "seat already occupied"}
		}
	}
	b, ok := s.bookings[bookingID]
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	b.VehicleID = &vehicleID
	b.SeatNumber = &seat
	return nil
}

func (s *MemoryStore) UnbindSeat(_ context.Context, bookingID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("unbindSeat"); err != nil {
		return err
	}
	b, ok := s.bookings[bookingID]
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	b.VehicleID = nil
	b.SeatNumber = nil
	return nil
}

func (s *MemoryStore) AssignDriver(_ context.Context, bookingID int64, driverID *int64, leg domain.Leg) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("assignDriver"); err != nil {
		return err
	}
	if s.FailIDs[bookingID] {
		return domain.TransportError{Op: "assignDriver"}
	}
	b, ok := s.bookings[bookingID]
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	var v *int64
	if driverID != nil {
		d := *driverID
		v = &d
	}
	if leg == domain.LegDelivery {
		b.DelivererDriverID = v
	} else {
		b.CollectorDriverID = v
	}
	return nil
}

func (s *MemoryStore) ListVehicleSeats(_ context.Context, vehicleID int64) ([]VehicleSeat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("listVehicleSeats"); err != nil {
		return nil, err
	}
	return s.seats[vehicleID], nil
}
