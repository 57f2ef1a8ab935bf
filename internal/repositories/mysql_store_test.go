package repositories

import (
	"context"
	"database/sql"
	"testing"

	"backoffice/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
)

var bookingColumns = []string{
	"id", "trip_id", "kind",
	"person_id", "person_name", "person_phone",
	"pa_id", "pa_street", "pa_number", "pa_neighborhood", "pa_city",
	"da_id", "da_street", "da_number", "da_neighborhood", "da_city",
	"collector_driver_id", "collector_name",
	"deliverer_driver_id", "deliverer_name",
	"broker_id", "broker_name",
	"amount", "paid",
	"order_index", "city_order_index",
	"group_id", "tag_color", "seat_number", "vehicle_id",
	"document",
	"sender_id", "sender_name", "sender_phone",
	"parcel_description", "weight_kg",
}

func newMockStore(t *testing.T) (MySQLStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	return MySQLStore{DB: db}, mock, func() { db.Close() }
}

func TestListBookingsScansPassengerAndParcel(t *testing.T) {
	store, mock, closeDB := newMockStore(t)
	defer closeDB()

	rows := sqlmock.NewRows(bookingColumns).
		AddRow(
			int64(7), int64(1), "passenger",
			int64(700), "Maria Silva", "7199",
			int64(40), "Rua A", "12", "CENTRO", "Salvador",
			nil, "", "", "", "",
			int64(5), "Carlos",
			nil, "",
			nil, "",
			int64(12000), 1,
			0, 2,
			"fam-1", "#f44336", "03", int64(10),
			"123.456.789-00",
			int64(0), "", "",
			"", 0.0,
		).
		AddRow(
			int64(8), int64(1), "parcel",
			int64(800), "Loja X", "",
			nil, "", "", "", "",
			int64(41), "Rua B", "9", "PITUBA", "Salvador",
			nil, "",
			int64(6), "Ana",
			int64(3), "Corretora Y",
			int64(5000), 0,
			1, 0,
			nil, nil, nil, nil,
			"",
			int64(900), "Fulano", "7188",
			"caixa de pecas", 4.5,
		)
	mock.ExpectQuery("FROM bookings b").WithArgs(int64(1)).WillReturnRows(rows)

	out, err := store.ListBookings(context.Background(), 1)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(out))
	}

	pax := out[0]
	if !pax.IsPassenger() || pax.Passenger == nil || pax.Passenger.Document != "123.456.789-00" {
		t.Fatalf("passenger row scanned wrong: %+v", pax)
	}
	if pax.Pickup == nil || pax.Pickup.City != "Salvador" || pax.Pickup.Neighborhood != "CENTRO" {
		t.Fatalf("pickup address scanned wrong: %+v", pax.Pickup)
	}
	if pax.Delivery != nil {
		t.Fatalf("NULL delivery address must stay nil")
	}
	if pax.GroupKey() != "fam-1" || *pax.SeatNumber != "03" || *pax.VehicleID != 10 {
		t.Fatalf("group/seat columns scanned wrong: %+v", pax)
	}
	if !pax.Paid || pax.Amount != 12000 {
		t.Fatalf("money columns scanned wrong: %+v", pax)
	}

	pcl := out[1]
	if !pcl.IsParcel() || pcl.Parcel == nil {
		t.Fatalf("parcel row scanned wrong: %+v", pcl)
	}
	if pcl.Parcel.Sender.Name != "Fulano" || pcl.Parcel.Description != "caixa de pecas" || pcl.Parcel.WeightKg != 4.5 {
		t.Fatalf("parcel payload scanned wrong: %+v", pcl.Parcel)
	}
	if pcl.GroupID != nil || pcl.SeatNumber != nil {
		t.Fatalf("NULL group/seat must stay nil: %+v", pcl)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateOrderWritesEveryPositionInOneTx(t *testing.T) {
	store, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("UPDATE bookings SET order_index")
	prep.ExpectExec().WithArgs(0, int64(3), int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(1, int64(1), int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(2, int64(2), int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.UpdateOrder(context.Background(), 1, []int64{3, 1, 2}); err != nil {
		t.Fatalf("update order error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateOrderRollsBackOnFailure(t *testing.T) {
	store, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("UPDATE bookings SET city_order_index")
	prep.ExpectExec().WithArgs(0, int64(3), int64(1)).WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := store.UpdateCityOrder(context.Background(), 1, []int64{3})
	if !domain.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLinkReusesAnchorGroup(t *testing.T) {
	store, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT group_id FROM bookings").WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"group_id"}).AddRow("fam-1"))
	mock.ExpectExec("UPDATE bookings SET group_id").WithArgs("fam-1", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.Link(context.Background(), 2, 1); err != nil {
		t.Fatalf("link error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLinkMintsGroupForUngroupedAnchor(t *testing.T) {
	store, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT group_id FROM bookings").WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"group_id"}).AddRow(nil))
	mock.ExpectExec("UPDATE bookings SET group_id").WithArgs(sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings SET group_id").WithArgs(sqlmock.AnyArg(), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.Link(context.Background(), 2, 1); err != nil {
		t.Fatalf("link error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLinkMissingAnchor(t *testing.T) {
	store, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT group_id FROM bookings").WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	if err := store.Link(context.Background(), 2, 9); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUnlinkCollapsesSingletonGroup(t *testing.T) {
	store, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT group_id FROM bookings").WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"group_id"}).AddRow("fam-1"))
	mock.ExpectExec("UPDATE bookings SET group_id=NULL WHERE id").WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT COUNT").WithArgs("fam-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec("UPDATE bookings SET group_id=NULL WHERE group_id").WithArgs("fam-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.Unlink(context.Background(), 2); err != nil {
		t.Fatalf("unlink error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUnlinkUngroupedIsNoop(t *testing.T) {
	store, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT group_id FROM bookings").WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"group_id"}).AddRow(nil))
	mock.ExpectCommit()

	if err := store.Unlink(context.Background(), 2); err != nil {
		t.Fatalf("unlink error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBindSeatRefusesOccupiedSeat(t *testing.T) {
	store, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM bookings WHERE vehicle_id").
		WithArgs(int64(10), "03", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectRollback()

	err := store.BindSeat(context.Background(), 7, 10, "03")
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBindSeatUppercasesAndWrites(t *testing.T) {
	store, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM bookings WHERE vehicle_id").
		WithArgs(int64(10), "3A", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("UPDATE bookings SET vehicle_id").
		WithArgs(int64(10), "3A", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.BindSeat(context.Background(), 7, 10, " 3a "); err != nil {
		t.Fatalf("bind error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAssignDriverNilClearsColumn(t *testing.T) {
	store, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectExec("UPDATE bookings SET collector_driver_id").
		WithArgs(nil, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.AssignDriver(context.Background(), 7, nil, domain.LegPickup); err != nil {
		t.Fatalf("assign error: %v", err)
	}

	driverID := int64(42)
	mock.ExpectExec("UPDATE bookings SET deliverer_driver_id").
		WithArgs(driverID, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.AssignDriver(context.Background(), 7, &driverID, domain.LegDelivery); err != nil {
		t.Fatalf("assign error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetTagMissingBooking(t *testing.T) {
	store, mock, closeDB := newMockStore(t)
	defer closeDB()

	color := "#f44336"
	mock.ExpectExec("UPDATE bookings SET tag_color").
		WithArgs(color, int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id FROM bookings WHERE id").WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	if err := store.SetTag(context.Background(), 99, &color); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListVehicleSeats(t *testing.T) {
	store, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectQuery("FROM vehicle_seats").WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"vehicle_id", "seat_code", "position"}).
			AddRow(int64(10), "01", 0).
			AddRow(int64(10), "02", 1))

	seats, err := store.ListVehicleSeats(context.Background(), 10)
	if err != nil {
		t.Fatalf("list seats error: %v", err)
	}
	if len(seats) != 2 || seats[0].Code != "01" || seats[1].Position != 1 {
		t.Fatalf("seats scanned wrong: %+v", seats)
	}
}
