package services

import (
	"context"
	"testing"

	"backoffice/internal/domain"
	"backoffice/internal/repositories"

	"github.com/stretchr/testify/require"
)

func organizerFixture(bookings ...domain.Booking) (*repositories.MemoryStore, *Organizer) {
	store := repositories.NewMemoryStore(bookings)
	return store, NewOrganizer(store, testPalette)
}

func TestManifestRefreshesFromStore(t *testing.T) {
	store, org := organizerFixture(makeBooking(1, 0), makeBooking(2, 1))

	tree, err := org.Manifest(context.Background(), 1, domain.ModeDefault, domain.GroupByPickup)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, domain.FlattenIDs(tree))

	// a store write made outside the organizer shows up on the next read
	require.NoError(t, store.UpdateOrder(context.Background(), 1, []int64{2, 1}))
	tree, err = org.Manifest(context.Background(), 1, domain.ModeDefault, domain.GroupByPickup)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 1}, domain.FlattenIDs(tree))
}

func TestManifestEnrichesLuggage(t *testing.T) {
	store, org := organizerFixture(makeBooking(1, 0))
	store.SetLuggage(1, []repositories.LuggageItem{
		{BookingID: 1, Description: "mala grande"},
		{BookingID: 1, Description: "mochila"},
	})

	snap, err := org.Snapshot(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 2, snap[0].LuggageCount)
	require.Equal(t, "mala grande, mochila", snap[0].LuggageSummary)
}

func TestManifestServesStaleTreeOnRefreshFailure(t *testing.T) {
	store, org := organizerFixture(makeBooking(1, 0))

	_, err := org.Manifest(context.Background(), 1, domain.ModeDefault, domain.GroupByPickup)
	require.NoError(t, err)

	store.FailOps["listBookings"] = true
	tree, err := org.Manifest(context.Background(), 1, domain.ModeDefault, domain.GroupByPickup)
	require.Error(t, err)
	require.Equal(t, []int64{1}, domain.FlattenIDs(tree), "last known-good tree must survive a failed refresh")
}

func TestManifestErrorsWhenNeverLoaded(t *testing.T) {
	store, org := organizerFixture(makeBooking(1, 0))
	store.FailOps["listBookings"] = true

	tree, err := org.Manifest(context.Background(), 1, domain.ModeDefault, domain.GroupByPickup)
	require.Error(t, err)
	require.Nil(t, tree)
}

func TestCachedManifestSkipsStore(t *testing.T) {
	store, org := organizerFixture(makeBooking(1, 0), makeBooking(2, 1))

	_, err := org.Manifest(context.Background(), 1, domain.ModeDefault, domain.GroupByPickup)
	require.NoError(t, err)

	// mode switch must not hit the store at all
	store.FailOps["listBookings"] = true
	tree, err := org.CachedManifest(context.Background(), 1, domain.ModeCity, domain.GroupByPickup)
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{1, 2}, domain.FlattenIDs(tree))
}

func TestMutateRefreshesOnSuccess(t *testing.T) {
	_, org := organizerFixture(makeBooking(1, 0), makeBooking(2, 1))

	require.NoError(t, org.Reorder(context.Background(), 1, []int64{2, 1}, domain.ModeDefault, "req-1"))

	tree, err := org.CachedManifest(context.Background(), 1, domain.ModeDefault, domain.GroupByPickup)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 1}, domain.FlattenIDs(tree))
}

func TestMutateKeepsSnapshotOnFailure(t *testing.T) {
	store, org := organizerFixture(makeBooking(1, 0), makeBooking(2, 1))

	_, err := org.Manifest(context.Background(), 1, domain.ModeDefault, domain.GroupByPickup)
	require.NoError(t, err)

	store.FailOps["updateOrder"] = true
	err = org.Reorder(context.Background(), 1, []int64{2, 1}, domain.ModeDefault, "req-1")
	require.True(t, domain.IsTransport(err))

	tree, err := org.CachedManifest(context.Background(), 1, domain.ModeDefault, domain.GroupByPickup)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, domain.FlattenIDs(tree), "failed mutation must not dirty the snapshot")
}

func TestMutationsSpanServices(t *testing.T) {
	store, org := organizerFixture(makeBooking(1, 0), makeBooking(2, 1), makeBooking(3, 2))
	ctx := context.Background()

	require.NoError(t, org.Link(ctx, 1, 2, 1, "req-1"))
	one, _ := store.Booking(1)
	two, _ := store.Booking(2)
	require.True(t, one.InGroup())
	require.Equal(t, one.GroupKey(), two.GroupKey())

	require.NoError(t, org.SetTag(ctx, 1, 1, strPtr(testPalette[0]), "req-2"))
	two, _ = store.Booking(2)
	require.Equal(t, testPalette[0], *two.TagColor)

	require.NoError(t, org.BindSeat(ctx, 1, 3, 10, "07", "req-3"))
	three, _ := store.Booking(3)
	require.Equal(t, "07", *three.SeatNumber)

	require.NoError(t, org.UnbindSeat(ctx, 1, 3, "req-4"))
	three, _ = store.Booking(3)
	require.False(t, three.Seated())

	require.NoError(t, org.Unlink(ctx, 1, 2, "req-5"))
	one, _ = store.Booking(1)
	require.False(t, one.InGroup(), "group of two collapses when one leaves")
}

func TestBulkAssignThroughOrganizer(t *testing.T) {
	store, org := organizerFixture(
		makeBooking(1, 0, withGroup("fam")),
		makeBooking(2, 1, withGroup("fam")),
		makeBooking(3, 2),
	)

	res, err := org.BulkAssign(context.Background(), 1, []int64{1}, i64Ptr(42), domain.LegPickup, "req-1")
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, res.Applied)

	two, _ := store.Booking(2)
	require.Equal(t, int64(42), *two.CollectorDriverID)
}

func TestSeatMapThroughOrganizer(t *testing.T) {
	store, org := organizerFixture(makeBooking(1, 0, withSeat(10, "01")))
	store.SetVehicleSeats(10, []string{"01", "02"})

	sm, err := org.SeatMap(context.Background(), 1, 10, "req-1")
	require.NoError(t, err)
	require.Len(t, sm.Seats, 2)
	require.True(t, sm.Seats[0].Occupied)
	require.False(t, sm.Seats[1].Occupied)
}

func TestDuplicateOperationInFlight(t *testing.T) {
	_, org := organizerFixture(makeBooking(1, 0), makeBooking(2, 1))

	ts := org.trip(1)
	require.NoError(t, ts.begin("reorder"))
	defer ts.end("reorder")

	err := org.Reorder(context.Background(), 1, []int64{2, 1}, domain.ModeDefault, "req-1")
	require.True(t, domain.IsConflict(err), "second submission of an in-flight op must be refused")

	// a different operation on the same trip is fine
	require.NoError(t, org.UnbindSeat(context.Background(), 1, 1, "req-2"))
}
