package services

import (
	"context"
	"strconv"

	"backoffice/internal/domain"
	"backoffice/internal/repositories"
	"backoffice/internal/utils"
)

// OrderingService maps hierarchy reorders back onto the per-trip order
// indices. Default mode rewrites the canonical manual order; city mode only
// touches the view-local city order; driver/broker views are read-only.
type OrderingService struct {
	Store     repositories.BookingStore
	RequestID string
}

// ApplyReorder persists a full new flat order for the trip. orderedIDs must
// be a permutation of the trip's booking ids with every linked group kept
// contiguous: groups move as atomic units, a member cannot be reordered out
// of its group.
func (s OrderingService) ApplyReorder(ctx context.Context, snapshot []domain.Booking, tripID int64, orderedIDs []int64, mode domain.OrgMode) error {
	switch mode {
	case domain.ModeDefault, domain.ModeCity:
	default:
		return domain.ValidationError{Field: "mode", Msg: "reorder is view-only in this mode"}
	}

	if err := validatePermutation(snapshot, orderedIDs); err != nil {
		return err
	}
	// Whole-trip group contiguity only holds in the canonical order. City
	// buckets win over family linkage, so the flattened city view can carry
	// non-adjacent fragments of one group and still be a valid order.
	if mode == domain.ModeDefault {
		if err := validateGroupsContiguous(snapshot, orderedIDs); err != nil {
			return err
		}
	}

	utils.LogEvent(s.RequestID, "ordering", "apply_reorder",
		"trip_id="+strconv.FormatInt(tripID, 10)+" mode="+string(mode)+" count="+strconv.Itoa(len(orderedIDs)))

	if mode == domain.ModeCity {
		return s.Store.UpdateCityOrder(ctx, tripID, orderedIDs)
	}
	return s.Store.UpdateOrder(ctx, tripID, orderedIDs)
}

// MoveBefore moves the group containing bookingID so it sits immediately
// before the group containing targetID (targetID 0 moves it to the end),
// then persists the resulting flat order. The same engine serves drag-drop,
// tests, or any other input device.
func (s OrderingService) MoveBefore(ctx context.Context, snapshot []domain.Booking, tripID, bookingID, targetID int64, mode domain.OrgMode, cityGroupBy domain.CityGroupBy) error {
	tree := BuildHierarchy(snapshot, mode, cityGroupBy)
	units := groupUnits(tree)

	from := unitIndexOf(units, bookingID)
	if from < 0 {
		return domain.NotFoundError{Resource: "booking"}
	}

	moved := units[from]
	rest := append(append([][]int64{}, units[:from]...), units[from+1:]...)

	var reordered [][]int64
	if targetID == 0 {
		reordered = append(rest, moved)
	} else {
		to := unitIndexOf(rest, targetID)
		if to < 0 {
			return domain.NotFoundError{Resource: "target booking"}
		}
		reordered = append(reordered, rest[:to]...)
		reordered = append(reordered, moved)
		reordered = append(reordered, rest[to:]...)
	}

	flat := []int64{}
	for _, unit := range reordered {
		flat = append(flat, unit...)
	}
	return s.ApplyReorder(ctx, snapshot, tripID, flat, mode)
}

// SyncCityToDefault copies the current city-mode visual order into the
// canonical manual order. Explicit user action only, never automatic.
func (s OrderingService) SyncCityToDefault(ctx context.Context, snapshot []domain.Booking, tripID int64, cityGroupBy domain.CityGroupBy) error {
	tree := BuildHierarchy(snapshot, domain.ModeCity, cityGroupBy)
	flat := domain.FlattenIDs(tree)

	utils.LogEvent(s.RequestID, "ordering", "sync_city_order",
		"trip_id="+strconv.FormatInt(tripID, 10)+" count="+strconv.Itoa(len(flat)))
	return s.Store.UpdateOrder(ctx, tripID, flat)
}

func validatePermutation(snapshot []domain.Booking, orderedIDs []int64) error {
	if len(orderedIDs) != len(snapshot) {
		return domain.ValidationError{Field: "order", Msg: "order must cover every booking of the trip"}
	}
	known := map[int64]bool{}
	for _, b := range snapshot {
		known[b.ID] = true
	}
	seen := map[int64]bool{}
	for _, id := range orderedIDs {
		if !known[id] {
			return domain.ValidationError{Field: "order", Msg: "unknown booking id " + strconv.FormatInt(id, 10)}
		}
		if seen[id] {
			return domain.ValidationError{Field: "order", Msg: "duplicate booking id " + strconv.FormatInt(id, 10)}
		}
		seen[id] = true
	}
	return nil
}

func validateGroupsContiguous(snapshot []domain.Booking, orderedIDs []int64) error {
	groupOf := map[int64]string{}
	for _, b := range snapshot {
		if gid := b.GroupKey(); gid != "" {
			groupOf[b.ID] = gid
		}
	}

	closed := map[string]bool{}
	current := ""
	for _, id := range orderedIDs {
		gid := groupOf[id]
		if gid == current {
			continue
		}
		if current != "" {
			closed[current] = true
		}
		if gid != "" && closed[gid] {
			return domain.ValidationError{Field: "order", Msg: "linked group split by reorder"}
		}
		current = gid
	}
	return nil
}

// groupUnits flattens the tree into atomic reorder units: one id slice per
// group node, in display order.
func groupUnits(nodes []*domain.HierarchyNode) [][]int64 {
	out := [][]int64{}
	var walk func(ns []*domain.HierarchyNode)
	walk = func(ns []*domain.HierarchyNode) {
		for _, n := range ns {
			if n.Kind == domain.NodeGroup {
				out = append(out, domain.FlattenIDs([]*domain.HierarchyNode{n}))
				continue
			}
			walk(n.Children)
		}
	}
	walk(nodes)
	return out
}

func unitIndexOf(units [][]int64, bookingID int64) int {
	for i, unit := range units {
		for _, id := range unit {
			if id == bookingID {
				return i
			}
		}
	}
	return -1
}
