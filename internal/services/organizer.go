package services

import (
	"context"
	"strings"
	"sync"

	"backoffice/internal/domain"
	"backoffice/internal/repositories"
)

// Organizer is the facade the manifest screens talk to. It keeps, per trip,
// the last known-good snapshot of the booking store plus a hierarchy cache
// keyed on (revision, mode, cityGroupBy).
//
// Concurrency model: mutations against the same trip are serialized in the
// order they arrive; different trips do not serialize against each other.
// A duplicate submission of an operation already in flight for the trip is
// rejected with a conflict. Mutations that fail leave the last known-good
// snapshot untouched, so the caller always has a consistent tree to show.
type Organizer struct {
	Store      repositories.BookingStore
	TagPalette []string

	mu    sync.Mutex
	trips map[int64]*tripState
}

type viewKey struct {
	revision uint64
	mode     domain.OrgMode
	groupBy  domain.CityGroupBy
}

type tripState struct {
	mu       sync.Mutex // serializes same-trip operations
	snapshot []domain.Booking
	revision uint64
	cache    map[viewKey][]*domain.HierarchyNode

	opMu     sync.Mutex
	inFlight map[string]bool
}

func NewOrganizer(store repositories.BookingStore, tagPalette []string) *Organizer {
	return &Organizer{
		Store:      store,
		TagPalette: tagPalette,
		trips:      map[int64]*tripState{},
	}
}

func (o *Organizer) trip(tripID int64) *tripState {
	o.mu.Lock()
	defer o.mu.Unlock()
	ts, ok := o.trips[tripID]
	if !ok {
		ts = &tripState{
			cache:    map[viewKey][]*domain.HierarchyNode{},
			inFlight: map[string]bool{},
		}
		o.trips[tripID] = ts
	}
	return ts
}

// begin marks op in flight for the trip; a second submission of the same
// operation before the first finishes is refused.
func (ts *tripState) begin(op string) error {
	ts.opMu.Lock()
	defer ts.opMu.Unlock()
	if ts.inFlight[op] {
		return domain.ConflictError{Resource: "trip", Msg: op + " already in flight"}
	}
	ts.inFlight[op] = true
	return nil
}

func (ts *tripState) end(op string) {
	ts.opMu.Lock()
	defer ts.opMu.Unlock()
	delete(ts.inFlight, op)
}

// refreshLocked reloads the snapshot from the store and enriches each
// booking with its luggage summary. Caller holds ts.mu.
func (o *Organizer) refreshLocked(ctx context.Context, tripID int64, ts *tripState) error {
	bookings, err := o.Store.ListBookings(ctx, tripID)
	if err != nil {
		return err
	}
	for i := range bookings {
		items, err := o.Store.ListLuggage(ctx, bookings[i].ID)
		if err != nil {
			// luggage is display enrichment only; a failed read must not
			// take down the whole manifest
			continue
		}
		bookings[i].LuggageCount = len(items)
		bookings[i].LuggageSummary = luggageSummary(items)
	}
	ts.snapshot = bookings
	ts.revision++
	ts.cache = map[viewKey][]*domain.HierarchyNode{}
	return nil
}

func luggageSummary(items []repositories.LuggageItem) string {
	descs := []string{}
	for _, it := range items {
		if d := strings.TrimSpace(it.Description); d != "" {
			descs = append(descs, d)
		}
	}
	return strings.Join(descs, ", ")
}

// Manifest returns the hierarchy for the trip in the given mode. Every call
// starts from a fresh store snapshot; the per-revision cache only serves
// repeated builds of the same view between mutations.
func (o *Organizer) Manifest(ctx context.Context, tripID int64, mode domain.OrgMode, groupBy domain.CityGroupBy) ([]*domain.HierarchyNode, error) {
	ts := o.trip(tripID)
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if err := o.refreshLocked(ctx, tripID, ts); err != nil {
		if ts.snapshot == nil {
			return nil, err
		}
		// stale but consistent beats empty: serve the last known-good tree
		return o.buildLocked(ts, mode, groupBy), err
	}
	return o.buildLocked(ts, mode, groupBy), nil
}

// CachedManifest rebuilds the view from the last known-good snapshot without
// touching the store: this is the mode switch path, and the rollback target
// after a failed mutation.
func (o *Organizer) CachedManifest(ctx context.Context, tripID int64, mode domain.OrgMode, groupBy domain.CityGroupBy) ([]*domain.HierarchyNode, error) {
	ts := o.trip(tripID)
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.snapshot == nil {
		if err := o.refreshLocked(ctx, tripID, ts); err != nil {
			return nil, err
		}
	}
	return o.buildLocked(ts, mode, groupBy), nil
}

func (o *Organizer) buildLocked(ts *tripState, mode domain.OrgMode, groupBy domain.CityGroupBy) []*domain.HierarchyNode {
	key := viewKey{revision: ts.revision, mode: mode, groupBy: groupBy}
	if tree, ok := ts.cache[key]; ok {
		return tree
	}
	tree := BuildHierarchy(ts.snapshot, mode, groupBy)
	ts.cache[key] = tree
	return tree
}

// Snapshot returns a copy of the trip's last known-good bookings, loading
// them when the trip has not been seen yet.
func (o *Organizer) Snapshot(ctx context.Context, tripID int64) ([]domain.Booking, error) {
	ts := o.trip(tripID)
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.snapshot == nil {
		if err := o.refreshLocked(ctx, tripID, ts); err != nil {
			return nil, err
		}
	}
	return append([]domain.Booking(nil), ts.snapshot...), nil
}

// mutate runs fn against the current snapshot under the trip lock and, on
// success, refreshes the snapshot from the store. On failure the previous
// snapshot stays as the known-good state.
func (o *Organizer) mutate(ctx context.Context, tripID int64, op string, fn func(snapshot []domain.Booking) error) error {
	ts := o.trip(tripID)
	if err := ts.begin(op); err != nil {
		return err
	}
	defer ts.end(op)

	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.snapshot == nil {
		if err := o.refreshLocked(ctx, tripID, ts); err != nil {
			return err
		}
	}
	if err := fn(ts.snapshot); err != nil {
		return err
	}
	// write-back succeeded; a refresh failure here is not a mutation
	// failure, the next read will retry
	_ = o.refreshLocked(ctx, tripID, ts)
	return nil
}

func (o *Organizer) Reorder(ctx context.Context, tripID int64, orderedIDs []int64, mode domain.OrgMode, requestID string) error {
	svc := OrderingService{Store: o.Store, RequestID: requestID}
	return o.mutate(ctx, tripID, "reorder", func(snapshot []domain.Booking) error {
		return svc.ApplyReorder(ctx, snapshot, tripID, orderedIDs, mode)
	})
}

func (o *Organizer) MoveBefore(ctx context.Context, tripID, bookingID, targetID int64, mode domain.OrgMode, groupBy domain.CityGroupBy, requestID string) error {
	svc := OrderingService{Store: o.Store, RequestID: requestID}
	return o.mutate(ctx, tripID, "reorder", func(snapshot []domain.Booking) error {
		return svc.MoveBefore(ctx, snapshot, tripID, bookingID, targetID, mode, groupBy)
	})
}

func (o *Organizer) SyncCityOrder(ctx context.Context, tripID int64, groupBy domain.CityGroupBy, requestID string) error {
	svc := OrderingService{Store: o.Store, RequestID: requestID}
	return o.mutate(ctx, tripID, "syncOrder", func(snapshot []domain.Booking) error {
		return svc.SyncCityToDefault(ctx, snapshot, tripID, groupBy)
	})
}

func (o *Organizer) Link(ctx context.Context, tripID, bookingID, anchorID int64, requestID string) error {
	svc := LinkingService{Store: o.Store, TagPalette: o.TagPalette, RequestID: requestID}
	return o.mutate(ctx, tripID, "link", func(snapshot []domain.Booking) error {
		return svc.Link(ctx, snapshot, bookingID, anchorID)
	})
}

func (o *Organizer) Unlink(ctx context.Context, tripID, bookingID int64, requestID string) error {
	svc := LinkingService{Store: o.Store, TagPalette: o.TagPalette, RequestID: requestID}
	return o.mutate(ctx, tripID, "unlink", func([]domain.Booking) error {
		return svc.Unlink(ctx, bookingID)
	})
}

func (o *Organizer) SetTag(ctx context.Context, tripID, bookingID int64, color *string, requestID string) error {
	svc := LinkingService{Store: o.Store, TagPalette: o.TagPalette, RequestID: requestID}
	return o.mutate(ctx, tripID, "setTag", func(snapshot []domain.Booking) error {
		return svc.SetTag(ctx, snapshot, bookingID, color)
	})
}

func (o *Organizer) BindSeat(ctx context.Context, tripID, bookingID, vehicleID int64, seat, requestID string) error {
	svc := SeatingService{Store: o.Store, RequestID: requestID}
	return o.mutate(ctx, tripID, "bindSeat", func(snapshot []domain.Booking) error {
		return svc.Bind(ctx, snapshot, bookingID, vehicleID, seat)
	})
}

func (o *Organizer) UnbindSeat(ctx context.Context, tripID, bookingID int64, requestID string) error {
	svc := SeatingService{Store: o.Store, RequestID: requestID}
	return o.mutate(ctx, tripID, "unbindSeat", func([]domain.Booking) error {
		return svc.Unbind(ctx, bookingID)
	})
}

func (o *Organizer) SeatMap(ctx context.Context, tripID, vehicleID int64, requestID string) (SeatMap, error) {
	snapshot, err := o.Snapshot(ctx, tripID)
	if err != nil {
		return SeatMap{}, err
	}
	svc := SeatingService{Store: o.Store, RequestID: requestID}
	return svc.BuildSeatMap(ctx, snapshot, vehicleID)
}

// BulkAssign expands the selection, applies the driver to the chosen leg and
// refreshes the hierarchy. Partial failure is reported in the result, not as
// an error; successes stay committed.
func (o *Organizer) BulkAssign(ctx context.Context, tripID int64, selection []int64, driverID *int64, leg domain.Leg, requestID string) (BulkResult, error) {
	svc := DispatchService{Store: o.Store, RequestID: requestID}
	var result BulkResult
	err := o.mutate(ctx, tripID, "bulkAssign", func(snapshot []domain.Booking) error {
		var berr error
		result, berr = svc.BulkAssign(ctx, snapshot, selection, driverID, leg)
		return berr
	})
	return result, err
}
