package services

import (
	"backoffice/internal/domain"
)

// test fixture helpers shared by the service tests

func strPtr(s string) *string { return &s }
func i64Ptr(n int64) *int64   { return &n }

type bookingOpt func(*domain.Booking)

func withGroup(gid string) bookingOpt {
	return func(b *domain.Booking) { b.GroupID = &gid }
}

func withPickupCity(city, hood string) bookingOpt {
	return func(b *domain.Booking) {
		b.Pickup = &domain.Address{City: city, Neighborhood: hood}
	}
}

func withDeliveryCity(city, hood string) bookingOpt {
	return func(b *domain.Booking) {
		b.Delivery = &domain.Address{City: city, Neighborhood: hood}
	}
}

func withCollector(id int64, name string) bookingOpt {
	return func(b *domain.Booking) {
		b.CollectorDriverID = i64Ptr(id)
		b.CollectorDriver = name
	}
}

func withBroker(id int64, name string) bookingOpt {
	return func(b *domain.Booking) {
		b.BrokerID = i64Ptr(id)
		b.Broker = name
	}
}

func withSeat(vehicleID int64, seat string) bookingOpt {
	return func(b *domain.Booking) {
		b.VehicleID = i64Ptr(vehicleID)
		b.SeatNumber = strPtr(seat)
	}
}

func withCityOrder(n int) bookingOpt {
	return func(b *domain.Booking) { b.CityOrderIndex = n }
}

func withTag(color string) bookingOpt {
	return func(b *domain.Booking) { b.TagColor = &color }
}

func asParcel() bookingOpt {
	return func(b *domain.Booking) {
		b.Kind = domain.KindParcel
		b.Passenger = nil
		b.Parcel = &domain.ParcelInfo{Description: "box"}
	}
}

func makeBooking(id int64, order int, opts ...bookingOpt) domain.Booking {
	b := domain.Booking{
		ID:         id,
		TripID:     1,
		Kind:       domain.KindPassenger,
		Person:     domain.PersonRef{ID: id * 100, Name: "Person " + itoa64(id)},
		OrderIndex: order,
		Passenger:  &domain.PassengerInfo{},
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}
