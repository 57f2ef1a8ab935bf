package services

import (
	"context"
	"strconv"
	"strings"

	"backoffice/internal/domain"
	"backoffice/internal/repositories"
	"backoffice/internal/utils"
)

// LinkingService merges and splits linked (family) groups and cascades tag
// colors over whole groups. Validation runs against the caller's snapshot;
// persistence goes through the booking store.
type LinkingService struct {
	Store      repositories.BookingStore
	TagPalette []string
	RequestID  string
}

// Link puts target into anchor's group. The target must be immediately
// adjacent (in manual order) to the anchor's group span, and must not belong
// to a different group already; merging two groups requires unlinking first.
// Re-linking an existing member is a no-op.
func (s LinkingService) Link(ctx context.Context, snapshot []domain.Booking, targetID, anchorID int64) error {
	if targetID == anchorID {
		return domain.ValidationError{Field: "bookingId", Msg: "cannot link a booking to itself"}
	}

	target, ok := findBooking(snapshot, targetID)
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	anchor, ok := findBooking(snapshot, anchorID)
	if !ok {
		return domain.NotFoundError{Resource: "anchor booking"}
	}

	anchorGroup := anchor.GroupKey()
	if tg := target.GroupKey(); tg != "" {
		if anchorGroup != "" && tg == anchorGroup {
			return nil // already linked, idempotent
		}
		return domain.ValidationError{Field: "bookingId", Msg: "booking already belongs to another group, unlink first"}
	}

	lo, hi := groupSpan(snapshot, anchor)
	if target.OrderIndex != lo-1 && target.OrderIndex != hi+1 {
		return domain.ValidationError{Field: "bookingId", Msg: "booking is not adjacent to the group"}
	}

	utils.LogEvent(s.RequestID, "linking", "link",
		"booking_id="+strconv.FormatInt(targetID, 10)+" anchor_id="+strconv.FormatInt(anchorID, 10))
	return s.Store.Link(ctx, targetID, anchorID)
}

// Unlink removes the booking from its group. The store collapses a group
// left with a single member (groups of one do not exist).
func (s LinkingService) Unlink(ctx context.Context, bookingID int64) error {
	utils.LogEvent(s.RequestID, "linking", "unlink", "booking_id="+strconv.FormatInt(bookingID, 10))
	return s.Store.Unlink(ctx, bookingID)
}

// SetTag sets (or clears, color nil) the tag color of the booking and every
// member of its group. The cascade is atomic towards the caller: if any
// member write fails, already-written members are restored to their previous
// colors and the error is returned.
func (s LinkingService) SetTag(ctx context.Context, snapshot []domain.Booking, bookingID int64, color *string) error {
	if color != nil && !s.paletteAllows(*color) {
		return domain.ValidationError{Field: "color", Msg: "color not in the configured palette"}
	}

	booking, ok := findBooking(snapshot, bookingID)
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}

	members := []domain.Booking{booking}
	if gid := booking.GroupKey(); gid != "" {
		members = members[:0]
		for _, b := range snapshot {
			if b.GroupKey() == gid {
				members = append(members, b)
			}
		}
	}

	done := []domain.Booking{}
	for _, m := range members {
		if err := s.Store.SetTag(ctx, m.ID, color); err != nil {
			// roll the cascade back so the group never ends up half-tagged
			for _, prev := range done {
				_ = s.Store.SetTag(ctx, prev.ID, prev.TagColor)
			}
			utils.LogEventErr(s.RequestID, "linking", "set_tag", err)
			return err
		}
		done = append(done, m)
	}

	utils.LogEvent(s.RequestID, "linking", "set_tag",
		"booking_id="+strconv.FormatInt(bookingID, 10)+" members="+strconv.Itoa(len(members)))
	return nil
}

func (s LinkingService) paletteAllows(color string) bool {
	color = strings.TrimSpace(color)
	if color == "" {
		return false
	}
	for _, c := range s.TagPalette {
		if strings.EqualFold(c, color) {
			return true
		}
	}
	return false
}

func findBooking(snapshot []domain.Booking, id int64) (domain.Booking, bool) {
	for _, b := range snapshot {
		if b.ID == id {
			return b, true
		}
	}
	return domain.Booking{}, false
}

// groupSpan returns the lowest and highest manual order index covered by the
// booking's group; for an ungrouped booking the span is the booking itself.
func groupSpan(snapshot []domain.Booking, b domain.Booking) (lo, hi int) {
	lo, hi = b.OrderIndex, b.OrderIndex
	gid := b.GroupKey()
	if gid == "" {
		return lo, hi
	}
	for _, other := range snapshot {
		if other.GroupKey() != gid {
			continue
		}
		if other.OrderIndex < lo {
			lo = other.OrderIndex
		}
		if other.OrderIndex > hi {
			hi = other.OrderIndex
		}
	}
	return lo, hi
}
