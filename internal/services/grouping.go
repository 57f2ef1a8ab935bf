package services

import (
	"sort"
	"strconv"

	"backoffice/internal/domain"
	"backoffice/internal/utils"
)

// Bucket labels for records missing the dimension being grouped on.
// Hierarchy construction never fails; malformed data degrades here.
const (
	LabelAll      = "ALL"
	LabelGeneral  = "GENERAL"
	LabelNoCity   = "NO CITY"
	LabelNoDriver = "NO DRIVER"
	LabelNoBroker = "NO BROKER"
)

// BuildHierarchy converts the flat booking list into the manifest tree for
// the given organization mode. Pure: no side effects, no hidden cache; the
// organizer memoizes on (bookings revision, mode, cityGroupBy).
//
// Linked groups are kept contiguous as one node only where the grouping
// dimension allows it: in every mode except default, bucket membership wins
// over family linkage, so a group spread across two cities shows up split.
func BuildHierarchy(bookings []domain.Booking, mode domain.OrgMode, cityGroupBy domain.CityGroupBy) []*domain.HierarchyNode {
	switch mode {
	case domain.ModeCity:
		return buildCityHierarchy(bookings, cityGroupBy)
	case domain.ModeDriver:
		return buildNamedHierarchy(bookings, LabelNoDriver, func(b domain.Booking) string {
			return b.CollectorDriver
		})
	case domain.ModeBroker:
		return buildNamedHierarchy(bookings, LabelNoBroker, func(b domain.Booking) string {
			return b.Broker
		})
	default:
		return buildDefaultHierarchy(bookings)
	}
}

func buildDefaultHierarchy(bookings []domain.Booking) []*domain.HierarchyNode {
	root := &domain.HierarchyNode{Kind: domain.NodeBucket, Key: LabelAll, Label: LabelAll}
	root.Children = groupNodes(bookings, byManualOrder)
	return []*domain.HierarchyNode{root}
}

func buildCityHierarchy(bookings []domain.Booking, groupBy domain.CityGroupBy) []*domain.HierarchyNode {
	leg := domain.LegPickup
	if groupBy == domain.GroupByDelivery {
		leg = domain.LegDelivery
	}

	type subKey struct{ city, hood string }
	cities := map[string]*domain.HierarchyNode{}
	subs := map[subKey]*domain.HierarchyNode{}
	membership := map[subKey][]domain.Booking{}

	for _, b := range bookings {
		city, hood := LabelNoCity, LabelGeneral
		if addr := b.AddressFor(leg); addr != nil {
			if k := utils.FoldKey(addr.City); k != "" {
				city = k
			}
			if k := utils.FoldKey(addr.Neighborhood); k != "" && k != LabelGeneral {
				hood = k
			}
		}

		if _, ok := cities[city]; !ok {
			cities[city] = &domain.HierarchyNode{Kind: domain.NodeBucket, Key: city, Label: city}
		}
		sk := subKey{city, hood}
		if _, ok := subs[sk]; !ok {
			subs[sk] = &domain.HierarchyNode{Kind: domain.NodeSubBucket, Key: hood, Label: hood}
		}
		membership[sk] = append(membership[sk], b)
	}

	for sk, node := range subs {
		node.Children = groupNodes(membership[sk], byCityOrder)
		cities[sk.city].Children = append(cities[sk.city].Children, node)
	}

	out := make([]*domain.HierarchyNode, 0, len(cities))
	for _, node := range cities {
		sortBuckets(node.Children, LabelGeneral)
		out = append(out, node)
	}
	sortBuckets(out, LabelNoCity)
	return out
}

func buildNamedHierarchy(bookings []domain.Booking, missingLabel string, nameOf func(domain.Booking) string) []*domain.HierarchyNode {
	buckets := map[string]*domain.HierarchyNode{}
	membership := map[string][]domain.Booking{}

	for _, b := range bookings {
		key := utils.FoldKey(nameOf(b))
		if key == "" {
			key = missingLabel
		}
		if _, ok := buckets[key]; !ok {
			label := utils.NormalizeSpace(nameOf(b))
			if label == "" {
				label = missingLabel
			}
			buckets[key] = &domain.HierarchyNode{Kind: domain.NodeBucket, Key: key, Label: label}
		}
		membership[key] = append(membership[key], b)
	}

	out := make([]*domain.HierarchyNode, 0, len(buckets))
	for key, node := range buckets {
		node.Children = groupNodes(membership[key], byManualOrder)
		out = append(out, node)
	}
	sortBuckets(out, missingLabel)
	return out
}

// orderKey ranks a group by its first member under the active ordering.
type orderKey struct {
	primary   int
	secondary int
	id        int64
}

func byManualOrder(b domain.Booking) orderKey {
	return orderKey{primary: b.OrderIndex, secondary: b.OrderIndex, id: b.ID}
}

// byCityOrder sorts by the city-local index and falls back to the canonical
// order for ties (the city index starts out all-zero).
func byCityOrder(b domain.Booking) orderKey {
	return orderKey{primary: b.CityOrderIndex, secondary: b.OrderIndex, id: b.ID}
}

func (k orderKey) less(o orderKey) bool {
	if k.primary != o.primary {
		return k.primary < o.primary
	}
	if k.secondary != o.secondary {
		return k.secondary < o.secondary
	}
	return k.id < o.id
}

// groupNodes clusters bookings into linked-group nodes (singleton group per
// ungrouped booking), members contiguous, groups ordered by first member.
func groupNodes(bookings []domain.Booking, keyOf func(domain.Booking) orderKey) []*domain.HierarchyNode {
	sorted := append([]domain.Booking(nil), bookings...)
	sort.Slice(sorted, func(i, j int) bool { return keyOf(sorted[i]).less(keyOf(sorted[j])) })

	order := []string{}
	members := map[string][]domain.Booking{}
	for _, b := range sorted {
		gid := b.GroupKey()
		key := gid
		if key == "" {
			// singleton groups keyed by booking id, never merged
			key = "solo:" + itoa64(b.ID)
		}
		if _, ok := members[key]; !ok {
			order = append(order, key)
		}
		members[key] = append(members[key], b)
	}

	out := make([]*domain.HierarchyNode, 0, len(order))
	for _, key := range order {
		group := &domain.HierarchyNode{Kind: domain.NodeGroup, Key: key}
		if len(members[key]) > 0 && members[key][0].InGroup() {
			group.GroupID = members[key][0].GroupKey()
		}
		for i := range members[key] {
			b := members[key][i]
			group.Children = append(group.Children, &domain.HierarchyNode{
				Kind:    domain.NodeItem,
				Key:     itoa64(b.ID),
				Label:   b.Person.Name,
				Booking: &b,
			})
		}
		out = append(out, group)
	}
	return out
}

// sortBuckets orders sibling buckets alphabetically by collation key, with
// the degrade bucket (GENERAL / NO CITY / NO DRIVER / NO BROKER) last.
func sortBuckets(nodes []*domain.HierarchyNode, lastKey string) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Key == lastKey {
			return false
		}
		if nodes[j].Key == lastKey {
			return true
		}
		return nodes[i].Key < nodes[j].Key
	})
}

func itoa64(n int64) string {
	return strconv.FormatInt(n, 10)
}
