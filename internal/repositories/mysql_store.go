package repositories

import (
	"context"
	"database/sql"
	"strings"

	intconfig "backoffice/internal/config"
	"backoffice/internal/domain"

	"github.com/google/uuid"
)

// MySQLStore is the production BookingStore over the shared MySQL schema.
type MySQLStore struct {
	DB *sql.DB
}

func (s MySQLStore) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

const listBookingsQuery = `
SELECT b.id, b.trip_id, COALESCE(b.kind,'passenger'),
       COALESCE(b.person_id,0), COALESCE(b.person_name,''), COALESCE(b.person_phone,''),
       pa.id, COALESCE(pa.street,''), COALESCE(pa.number,''), COALESCE(pa.neighborhood,''), COALESCE(pa.city,''),
       da.id, COALESCE(da.street,''), COALESCE(da.number,''), COALESCE(da.neighborhood,''), COALESCE(da.city,''),
       b.collector_driver_id, COALESCE(cd.name,''),
       b.deliverer_driver_id, COALESCE(dd.name,''),
       b.broker_id, COALESCE(bk.name,''),
       COALESCE(b.amount,0), COALESCE(b.paid,0),
       COALESCE(b.order_index,0), COALESCE(b.city_order_index,0),
       b.group_id, b.tag_color, b.seat_number, b.vehicle_id,
       COALESCE(b.document,''),
       COALESCE(b.sender_id,0), COALESCE(b.sender_name,''), COALESCE(b.sender_phone,''),
       COALESCE(b.parcel_description,''), COALESCE(b.weight_kg,0)
FROM bookings b
LEFT JOIN addresses pa ON pa.id = b.pickup_address_id
LEFT JOIN addresses da ON da.id = b.delivery_address_id
LEFT JOIN drivers cd ON cd.id = b.collector_driver_id
LEFT JOIN drivers dd ON dd.id = b.deliverer_driver_id
LEFT JOIN brokers bk ON bk.id = b.broker_id
WHERE b.trip_id = ?
ORDER BY b.order_index ASC, b.id ASC`

func (s MySQLStore) ListBookings(ctx context.Context, tripID int64) ([]domain.Booking, error) {
	rows, err := s.db().QueryContext(ctx, listBookingsQuery, tripID)
	if err != nil {
		return nil, domain.TransportError{Op: "listBookings", Err: err}
	}
	defer rows.Close()

	out := []domain.Booking{}
	for rows.Next() {
		var (
			b        domain.Booking
			kind     string
			paID     sql.NullInt64
			pa       [4]string
			daID     sql.NullInt64
			da       [4]string
			collID   sql.NullInt64
			delivID  sql.NullInt64
			brokerID sql.NullInt64
			paid     int
			groupID  sql.NullString
			tagColor sql.NullString
			seatNo   sql.NullString
			vehID    sql.NullInt64
			document string
			senderID int64
			sender   [2]string
			parcel   string
			weightKg float64
		)
		if err := rows.Scan(
			&b.ID, &b.TripID, &kind,
			&b.Person.ID, &b.Person.Name, &b.Person.Phone,
			&paID, &pa[0], &pa[1], &pa[2], &pa[3],
			&daID, &da[0], &da[1], &da[2], &da[3],
			&collID, &b.CollectorDriver,
			&delivID, &b.DelivererDriver,
			&brokerID, &b.Broker,
			&b.Amount, &paid,
			&b.OrderIndex, &b.CityOrderIndex,
			&groupID, &tagColor, &seatNo, &vehID,
			&document,
			&senderID, &sender[0], &sender[1],
			&parcel, &weightKg,
		); err != nil {
			return out, domain.TransportError{Op: "listBookings", Err: err}
		}

		b.Paid = paid != 0
		if strings.EqualFold(kind, string(domain.KindParcel)) {
			b.Kind = domain.KindParcel
			b.Parcel = &domain.ParcelInfo{
				Sender:      domain.PersonRef{ID: senderID, Name: sender[0], Phone: sender[1]},
				Description: parcel,
				WeightKg:    weightKg,
			}
		} else {
			b.Kind = domain.KindPassenger
			b.Passenger = &domain.PassengerInfo{Document: document}
		}
		if paID.Valid {
			b.Pickup = &domain.Address{ID: paID.Int64, Street: pa[0], Number: pa[1], Neighborhood: pa[2], City: pa[3]}
		}
		if daID.Valid {
			b.Delivery = &domain.Address{ID: daID.Int64, Street: da[0], Number: da[1], Neighborhood: da[2], City: da[3]}
		}
		b.CollectorDriverID = nullInt64Ptr(collID)
		b.DelivererDriverID = nullInt64Ptr(delivID)
		b.BrokerID = nullInt64Ptr(brokerID)
		b.GroupID = nullStringPtr(groupID)
		b.TagColor = nullStringPtr(tagColor)
		b.SeatNumber = nullStringPtr(seatNo)
		b.VehicleID = nullInt64Ptr(vehID)

		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return out, domain.TransportError{Op: "listBookings", Err: err}
	}
	return out, nil
}

func (s MySQLStore) ListLuggage(ctx context.Context, bookingID int64) ([]LuggageItem, error) {
	rows, err := s.db().QueryContext(ctx, `
		SELECT id, booking_id, COALESCE(description,''), COALESCE(weight_kg,0)
		FROM luggage_items
		WHERE booking_id=?
		ORDER BY id ASC`, bookingID)
	if err != nil {
		return nil, domain.TransportError{Op: "listLuggage", Err: err}
	}
	defer rows.Close()

	out := []LuggageItem{}
	for rows.Next() {
		var it LuggageItem
		if err := rows.Scan(&it.ID, &it.BookingID, &it.Description, &it.WeightKg); err != nil {
			return out, domain.TransportError{Op: "listLuggage", Err: err}
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s MySQLStore) UpdateOrder(ctx context.Context, tripID int64, orderedIDs []int64) error {
	return s.updateOrderColumn(ctx, "order_index", tripID, orderedIDs)
}

func (s MySQLStore) UpdateCityOrder(ctx context.Context, tripID int64, orderedIDs []int64) error {
	return s.updateOrderColumn(ctx, "city_order_index", tripID, orderedIDs)
}

func (s MySQLStore) updateOrderColumn(ctx context.Context, column string, tripID int64, orderedIDs []int64) error {
	tx, err := s.db().BeginTx(ctx, nil)
	if err != nil {
		return domain.TransportError{Op: "updateOrder", Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "UPDATE bookings SET "+column+"=? WHERE id=? AND trip_id=?")
	if err != nil {
		return domain.TransportError{Op: "updateOrder", Err: err}
	}
	defer stmt.Close()

	for pos, id := range orderedIDs {
		if _, err := stmt.ExecContext(ctx, pos, id, tripID); err != nil {
			return domain.TransportError{Op: "updateOrder", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.TransportError{Op: "updateOrder", Err: err}
	}
	return nil
}

func (s MySQLStore) SetTag(ctx context.Context, bookingID int64, color *string) error {
	res, err := s.db().ExecContext(ctx,
		`UPDATE bookings SET tag_color=? WHERE id=?`, nullIfEmptyPtr(color), bookingID)
	if err != nil {
		return domain.TransportError{Op: "setTag", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if !s.bookingExists(ctx, bookingID) {
			return domain.NotFoundError{Resource: "booking"}
		}
	}
	return nil
}

func (s MySQLStore) Link(ctx context.Context, bookingID, anchorID int64) error {
	tx, err := s.db().BeginTx(ctx, nil)
	if err != nil {
		return domain.TransportError{Op: "link", Err: err}
	}
	defer tx.Rollback()

	var groupID sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT group_id FROM bookings WHERE id=? FOR UPDATE`, anchorID).Scan(&groupID)
	if err == sql.ErrNoRows {
		return domain.NotFoundError{Resource: "anchor booking"}
	}
	if err != nil {
		return domain.TransportError{Op: "link", Err: err}
	}

	gid := strings.TrimSpace(groupID.String)
	if !groupID.Valid || gid == "" {
		gid = uuid.NewString()
		if _, err := tx.ExecContext(ctx,
			`UPDATE bookings SET group_id=? WHERE id=?`, gid, anchorID); err != nil {
			return domain.TransportError{Op: "link", Err: err}
		}
	}

	res, err := tx.ExecContext(ctx, `UPDATE bookings SET group_id=? WHERE id=?`, gid, bookingID)
	if err != nil {
		return domain.TransportError{Op: "link", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM bookings WHERE id=?`, bookingID).Scan(&exists); err == sql.ErrNoRows {
			return domain.NotFoundError{Resource: "booking"}
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.TransportError{Op: "link", Err: err}
	}
	return nil
}

func (s MySQLStore) Unlink(ctx context.Context, bookingID int64) error {
	tx, err := s.db().BeginTx(ctx, nil)
	if err != nil {
		return domain.TransportError{Op: "unlink", Err: err}
	}
	defer tx.Rollback()

	var groupID sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT group_id FROM bookings WHERE id=? FOR UPDATE`, bookingID).Scan(&groupID)
	if err == sql.ErrNoRows {
		return domain.NotFoundError{Resource: "booking"}
	}
	if err != nil {
		return domain.TransportError{Op: "unlink", Err: err}
	}

	if !groupID.Valid || strings.TrimSpace(groupID.String) == "" {
		return tx.Commit() // already ungrouped
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE bookings SET group_id=NULL WHERE id=?`, bookingID); err != nil {
		return domain.TransportError{Op: "unlink", Err: err}
	}

	// groups of one do not exist: collapse the remaining singleton
	var remaining int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE group_id=?`, groupID.String).Scan(&remaining); err != nil {
		return domain.TransportError{Op: "unlink", Err: err}
	}
	if remaining == 1 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE bookings SET group_id=NULL WHERE group_id=?`, groupID.String); err != nil {
			return domain.TransportError{Op: "unlink", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.TransportError{Op: "unlink", Err: err}
	}
	return nil
}

func (s MySQLStore) BindSeat(ctx context.Context, bookingID, vehicleID int64, seat string) error {
	seat = strings.ToUpper(strings.TrimSpace(seat))
	if seat == "" {
		return domain.ValidationError{Field: "seat", Msg: "seat number is required"}
	}

	tx, err := s.db().BeginTx(ctx, nil)
	if err != nil {
		return domain.TransportError{Op: "bindSeat", Err: err}
	}
	defer tx.Rollback()

	// authoritative occupancy check inside the transaction; the service
	// pre-checks against its snapshot but a second session may have won
	var occupant int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM bookings WHERE vehicle_id=? AND seat_number=? AND id<>? FOR UPDATE`,
		vehicleID, seat, bookingID).Scan(&occupant)
	if err == nil {
		return domain.ConflictError{Resource: "seat", Msg: "seat already occupied"}
	}
	if err != sql.ErrNoRows {
		return domain.TransportError{Op: "bindSeat", Err: err}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET vehicle_id=?, seat_number=? WHERE id=?`, vehicleID, seat, bookingID)
	if err != nil {
		return domain.TransportError{Op: "bindSeat", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if !s.bookingExists(ctx, bookingID) {
			return domain.NotFoundError{Resource: "booking"}
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.TransportError{Op: "bindSeat", Err: err}
	}
	return nil
}

func (s MySQLStore) UnbindSeat(ctx context.Context, bookingID int64) error {
	_, err := s.db().ExecContext(ctx,
		`UPDATE bookings SET vehicle_id=NULL, seat_number=NULL WHERE id=?`, bookingID)
	if err != nil {
		return domain.TransportError{Op: "unbindSeat", Err: err}
	}
	return nil
}

func (s MySQLStore) AssignDriver(ctx context.Context, bookingID int64, driverID *int64, leg domain.Leg) error {
	column := "collector_driver_id"
	if leg == domain.LegDelivery {
		column = "deliverer_driver_id"
	}

	var val any
	if driverID != nil {
		val = *driverID
	}
	res, err := s.db().ExecContext(ctx,
		"UPDATE bookings SET "+column+"=? WHERE id=?", val, bookingID)
	if err != nil {
		return domain.TransportError{Op: "assignDriver", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if !s.bookingExists(ctx, bookingID) {
			return domain.NotFoundError{Resource: "booking"}
		}
	}
	return nil
}

func (s MySQLStore) ListVehicleSeats(ctx context.Context, vehicleID int64) ([]VehicleSeat, error) {
	rows, err := s.db().QueryContext(ctx, `
		SELECT vehicle_id, seat_code, COALESCE(position,0)
		FROM vehicle_seats
		WHERE vehicle_id=?
		ORDER BY position ASC, seat_code ASC`, vehicleID)
	if err != nil {
		return nil, domain.TransportError{Op: "listVehicleSeats", Err: err}
	}
	defer rows.Close()

	out := []VehicleSeat{}
	for rows.Next() {
		var seat VehicleSeat
		if err := rows.Scan(&seat.VehicleID, &seat.Code, &seat.Position); err != nil {
			return out, domain.TransportError{Op: "listVehicleSeats", Err: err}
		}
		out = append(out, seat)
	}
	return out, rows.Err()
}

func (s MySQLStore) bookingExists(ctx context.Context, bookingID int64) bool {
	var id int64
	err := s.db().QueryRowContext(ctx, `SELECT id FROM bookings WHERE id=?`, bookingID).Scan(&id)
	return err == nil
}

func nullInt64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullStringPtr(n sql.NullString) *string {
	if !n.Valid || strings.TrimSpace(n.String) == "" {
		return nil
	}
	v := n.String
	return &v
}

func nullIfEmptyPtr(s *string) any {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return strings.TrimSpace(*s)
}
