package domain

import "strings"

// Kind discriminates the two booking variants carried on a trip.
type Kind string

const (
	KindPassenger Kind = "passenger"
	KindParcel    Kind = "parcel"
)

// Leg is the ground-transport side of a booking: pickup (coleta)
// or delivery (entrega).
type Leg string

const (
	LegPickup   Leg = "pickup"
	LegDelivery Leg = "delivery"
)

// OrgMode selects how the manifest hierarchy is organized.
type OrgMode string

const (
	ModeDefault OrgMode = "default"
	ModeCity    OrgMode = "city"
	ModeDriver  OrgMode = "driver"
	ModeBroker  OrgMode = "broker"
)

// CityGroupBy chooses which address feeds the city-mode buckets.
type CityGroupBy string

const (
	GroupByPickup   CityGroupBy = "pickup"
	GroupByDelivery CityGroupBy = "delivery"
)

func ParseOrgMode(s string) (OrgMode, bool) {
	switch OrgMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDefault, "":
		return ModeDefault, true
	case ModeCity:
		return ModeCity, true
	case ModeDriver:
		return ModeDriver, true
	case ModeBroker:
		return ModeBroker, true
	}
	return ModeDefault, false
}

func ParseLeg(s string) (Leg, bool) {
	switch Leg(strings.ToLower(strings.TrimSpace(s))) {
	case LegPickup:
		return LegPickup, true
	case LegDelivery:
		return LegDelivery, true
	}
	return LegPickup, false
}

type Address struct {
	ID           int64  `json:"id"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
}

type PersonRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// PassengerInfo carries the passenger-only fields.
type PassengerInfo struct {
	Document string `json:"document"`
}

// ParcelInfo carries the parcel-only fields. Sender is the counterparty of
// the recipient stored in Booking.Person.
type ParcelInfo struct {
	Sender      PersonRef `json:"sender"`
	Description string    `json:"description"`
	WeightKg    float64   `json:"weightKg"`
}

// Booking is one passenger-on-trip or parcel-on-trip record as served by the
// booking store. Exactly one of Passenger/Parcel is set, matching Kind.
type Booking struct {
	ID     int64 `json:"id"`
	TripID int64 `json:"tripId"`
	Kind   Kind  `json:"kind"`

	// Person is the passenger, or the parcel recipient.
	Person PersonRef `json:"person"`

	Pickup   *Address `json:"pickup,omitempty"`
	Delivery *Address `json:"delivery,omitempty"`

	CollectorDriverID *int64 `json:"collectorDriverId,omitempty"`
	CollectorDriver   string `json:"collectorDriver,omitempty"`
	DelivererDriverID *int64 `json:"delivererDriverId,omitempty"`
	DelivererDriver   string `json:"delivererDriver,omitempty"`
	BrokerID          *int64 `json:"brokerId,omitempty"`
	Broker            string `json:"broker,omitempty"`

	Amount int64 `json:"amount"`
	Paid   bool  `json:"paid"`

	// OrderIndex is the canonical per-trip sequence (dense, 0..n-1).
	// CityOrderIndex is the view-local order used only in city mode.
	OrderIndex     int `json:"orderIndex"`
	CityOrderIndex int `json:"cityOrderIndex"`

	GroupID  *string `json:"groupId,omitempty"`
	TagColor *string `json:"tagColor,omitempty"`

	SeatNumber *string `json:"seatNumber,omitempty"`
	VehicleID  *int64  `json:"vehicleId,omitempty"`

	Passenger *PassengerInfo `json:"passenger,omitempty"`
	Parcel    *ParcelInfo    `json:"parcel,omitempty"`

	// Luggage summary, enriched from the store's luggage read.
	LuggageCount   int    `json:"luggageCount"`
	LuggageSummary string `json:"luggageSummary,omitempty"`
}

func (b Booking) IsPassenger() bool { return b.Kind == KindPassenger }
func (b Booking) IsParcel() bool    { return b.Kind == KindParcel }

// InGroup reports whether the booking belongs to a linked (family) group.
func (b Booking) InGroup() bool {
	return b.GroupID != nil && strings.TrimSpace(*b.GroupID) != ""
}

// GroupKey returns the group identifier, or "" when ungrouped.
func (b Booking) GroupKey() string {
	if b.GroupID == nil {
		return ""
	}
	return strings.TrimSpace(*b.GroupID)
}

// Seated reports whether the booking holds a seat. Seat number and vehicle
// are always both set or both null; a half-seated record is invalid data.
func (b Booking) Seated() bool {
	return b.SeatNumber != nil && b.VehicleID != nil
}

// AddressFor returns the address on the given leg, nil when missing.
func (b Booking) AddressFor(leg Leg) *Address {
	if leg == LegDelivery {
		return b.Delivery
	}
	return b.Pickup
}

// DriverFor returns the driver id assigned on the given leg.
func (b Booking) DriverFor(leg Leg) *int64 {
	if leg == LegDelivery {
		return b.DelivererDriverID
	}
	return b.CollectorDriverID
}

// DriverNameFor returns the driver display name on the given leg.
func (b Booking) DriverNameFor(leg Leg) string {
	if leg == LegDelivery {
		return b.DelivererDriver
	}
	return b.CollectorDriver
}
