package services

import (
	"context"
	"testing"

	"backoffice/internal/domain"
	"backoffice/internal/repositories"

	"github.com/stretchr/testify/require"
)

var testPalette = []string{"#f44336", "#2196f3", "#4caf50"}

func linkingFixture(bookings ...domain.Booking) (*repositories.MemoryStore, LinkingService, []domain.Booking) {
	store := repositories.NewMemoryStore(bookings)
	svc := LinkingService{Store: store, TagPalette: testPalette}
	return store, svc, bookings
}

func TestLinkAdjacentCreatesGroup(t *testing.T) {
	store, svc, snapshot := linkingFixture(
		makeBooking(1, 0),
		makeBooking(2, 1),
	)

	require.NoError(t, svc.Link(context.Background(), snapshot, 2, 1))

	a, _ := store.Booking(1)
	b, _ := store.Booking(2)
	require.True(t, a.InGroup())
	require.Equal(t, a.GroupKey(), b.GroupKey())
}

func TestLinkIsIdempotent(t *testing.T) {
	store, svc, _ := linkingFixture(
		makeBooking(1, 0),
		makeBooking(2, 1),
	)

	ctx := context.Background()
	snapshot := func() []domain.Booking {
		a, _ := store.Booking(1)
		b, _ := store.Booking(2)
		return []domain.Booking{a, b}
	}

	require.NoError(t, svc.Link(ctx, snapshot(), 2, 1))
	first, _ := store.Booking(2)

	// linking twice in a row produces the same group as once
	require.NoError(t, svc.Link(ctx, snapshot(), 2, 1))
	second, _ := store.Booking(2)
	require.Equal(t, first.GroupKey(), second.GroupKey())
}

func TestLinkRejectsMergingTwoGroups(t *testing.T) {
	_, svc, snapshot := linkingFixture(
		makeBooking(1, 0, withGroup("g1")),
		makeBooking(2, 1, withGroup("g2")),
	)

	err := svc.Link(context.Background(), snapshot, 2, 1)
	require.True(t, domain.IsValidation(err), "expected validation error, got %v", err)
}

func TestLinkRejectsNonAdjacent(t *testing.T) {
	_, svc, snapshot := linkingFixture(
		makeBooking(1, 0),
		makeBooking(2, 1),
		makeBooking(3, 2),
	)

	err := svc.Link(context.Background(), snapshot, 3, 1)
	require.True(t, domain.IsValidation(err))
}

func TestLinkAdjacencyCoversGroupSpan(t *testing.T) {
	// anchor's group occupies positions 0-1; position 2 is adjacent to the
	// span even though it is not adjacent to the anchor row itself
	store, svc, snapshot := linkingFixture(
		makeBooking(1, 0, withGroup("g1")),
		makeBooking(2, 1, withGroup("g1")),
		makeBooking(3, 2),
	)

	require.NoError(t, svc.Link(context.Background(), snapshot, 3, 1))
	b, _ := store.Booking(3)
	require.Equal(t, "g1", b.GroupKey())
}

func TestUnlinkCollapsesGroupOfTwo(t *testing.T) {
	store, svc, _ := linkingFixture(
		makeBooking(1, 0, withGroup("g1")),
		makeBooking(2, 1, withGroup("g1")),
	)

	require.NoError(t, svc.Unlink(context.Background(), 1))

	a, _ := store.Booking(1)
	b, _ := store.Booking(2)
	require.False(t, a.InGroup())
	require.False(t, b.InGroup(), "remaining singleton must be collapsed")
}

func TestSetTagCascadesOverGroup(t *testing.T) {
	store, svc, snapshot := linkingFixture(
		makeBooking(1, 0, withGroup("g1")),
		makeBooking(2, 1, withGroup("g1")),
		makeBooking(3, 2, withGroup("g1")),
		makeBooking(4, 3),
	)

	require.NoError(t, svc.SetTag(context.Background(), snapshot, 2, strPtr("#2196f3")))

	for _, id := range []int64{1, 2, 3} {
		b, _ := store.Booking(id)
		require.NotNil(t, b.TagColor)
		require.Equal(t, "#2196f3", *b.TagColor)
	}
	outsider, _ := store.Booking(4)
	require.Nil(t, outsider.TagColor)
}

func TestSetTagClearsWholeGroup(t *testing.T) {
	store, svc, snapshot := linkingFixture(
		makeBooking(1, 0, withGroup("g1"), withTag("#f44336")),
		makeBooking(2, 1, withGroup("g1"), withTag("#f44336")),
	)

	require.NoError(t, svc.SetTag(context.Background(), snapshot, 1, nil))

	for _, id := range []int64{1, 2} {
		b, _ := store.Booking(id)
		require.Nil(t, b.TagColor)
	}
}

func TestSetTagRejectsColorOutsidePalette(t *testing.T) {
	_, svc, snapshot := linkingFixture(makeBooking(1, 0))

	err := svc.SetTag(context.Background(), snapshot, 1, strPtr("#bada55"))
	require.True(t, domain.IsValidation(err))
}

func TestSetTagRollsBackOnMemberFailure(t *testing.T) {
	store, svc, snapshot := linkingFixture(
		makeBooking(1, 0, withGroup("g1"), withTag("#f44336")),
		makeBooking(2, 1, withGroup("g1"), withTag("#f44336")),
		makeBooking(3, 2, withGroup("g1"), withTag("#f44336")),
	)
	store.FailIDs[3] = true

	err := svc.SetTag(context.Background(), snapshot, 1, strPtr("#4caf50"))
	require.Error(t, err)

	// no member may end up half-tagged
	for _, id := range []int64{1, 2, 3} {
		b, _ := store.Booking(id)
		require.NotNil(t, b.TagColor)
		require.Equal(t, "#f44336", *b.TagColor, "booking %d", id)
	}
}
