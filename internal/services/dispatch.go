package services

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"backoffice/internal/domain"
	"backoffice/internal/repositories"
	"backoffice/internal/utils"

	"golang.org/x/sync/errgroup"
)

// DispatchService applies one driver assignment (or removal) to an arbitrary
// multi-selection of bookings, passengers and parcels mixed.
type DispatchService struct {
	Store     repositories.BookingStore
	RequestID string
}

// BulkFailure reports one booking whose driver write failed.
type BulkFailure struct {
	BookingID int64  `json:"bookingId"`
	Error     string `json:"error"`
}

// BulkResult lists what was committed and what failed. There is no global
// rollback: each booking update is independent and successes stay committed.
type BulkResult struct {
	Applied []int64       `json:"applied"`
	Failed  []BulkFailure `json:"failed"`
}

// ExpandSelection applies the linked-group rule: selecting any passenger of
// a multi-member group selects every member. Parcels never auto-expand since
// parcels do not participate in family groups.
func ExpandSelection(snapshot []domain.Booking, ids []int64) []int64 {
	selected := map[int64]bool{}
	groups := map[string]bool{}

	for _, id := range ids {
		b, ok := findBooking(snapshot, id)
		if !ok {
			continue
		}
		selected[b.ID] = true
		if b.IsPassenger() && b.InGroup() {
			groups[b.GroupKey()] = true
		}
	}
	for _, b := range snapshot {
		if b.IsPassenger() && b.InGroup() && groups[b.GroupKey()] {
			selected[b.ID] = true
		}
	}

	out := make([]int64, 0, len(selected))
	for id := range selected {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ToggleSelection adds or removes one booking from the selection, expanding
// or contracting its whole linked group symmetrically.
func ToggleSelection(snapshot []domain.Booking, current []int64, bookingID int64) []int64 {
	unit := ExpandSelection(snapshot, []int64{bookingID})
	inUnit := map[int64]bool{}
	for _, id := range unit {
		inUnit[id] = true
	}

	already := false
	for _, id := range current {
		if id == bookingID {
			already = true
			break
		}
	}

	if already {
		out := []int64{}
		for _, id := range current {
			if !inUnit[id] {
				out = append(out, id)
			}
		}
		return out
	}
	return ExpandSelection(snapshot, append(append([]int64{}, current...), bookingID))
}

// BulkAssign sets (or clears, driverID nil) the driver on the chosen leg for
// every selected booking. The selection is expanded first, writes fan out
// independently, and the result names the ids that failed.
func (s DispatchService) BulkAssign(ctx context.Context, snapshot []domain.Booking, selection []int64, driverID *int64, leg domain.Leg) (BulkResult, error) {
	if leg != domain.LegPickup && leg != domain.LegDelivery {
		return BulkResult{}, domain.ValidationError{Field: "leg", Msg: "leg must be pickup or delivery"}
	}
	expanded := ExpandSelection(snapshot, selection)
	if len(expanded) == 0 {
		return BulkResult{}, domain.ValidationError{Field: "selection", Msg: "selection is empty"}
	}

	var (
		mu     sync.Mutex
		result = BulkResult{Applied: []int64{}, Failed: []BulkFailure{}}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, id := range expanded {
		id := id
		g.Go(func() error {
			err := s.Store.AssignDriver(gctx, id, driverID, leg)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed = append(result.Failed, BulkFailure{BookingID: id, Error: err.Error()})
				return nil // keep going, updates are independent
			}
			result.Applied = append(result.Applied, id)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(result.Applied, func(i, j int) bool { return result.Applied[i] < result.Applied[j] })
	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].BookingID < result.Failed[j].BookingID })

	utils.LogEvent(s.RequestID, "dispatch", "bulk_assign",
		"leg="+string(leg)+" applied="+strconv.Itoa(len(result.Applied))+" failed="+strconv.Itoa(len(result.Failed)))
	return result, nil
}
