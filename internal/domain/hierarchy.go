package domain

// NodeKind identifies a level of the manifest hierarchy.
type NodeKind string

const (
	NodeBucket    NodeKind = "bucket"    // city / driver / broker / default root
	NodeSubBucket NodeKind = "subBucket" // neighborhood within a city
	NodeGroup     NodeKind = "group"     // linked group (singleton for ungrouped)
	NodeItem      NodeKind = "item"      // one booking
)

// HierarchyNode is a derived view node. It is rebuilt from bookings on every
// mode change and never persisted; order state lives on the bookings.
type HierarchyNode struct {
	Kind     NodeKind         `json:"kind"`
	Key      string           `json:"key"`   // collation key, stable across accents/case
	Label    string           `json:"label"` // display label
	GroupID  string           `json:"groupId,omitempty"`
	Booking  *Booking         `json:"booking,omitempty"`
	Children []*HierarchyNode `json:"children,omitempty"`
}

// FlattenIDs walks the tree in display order and returns booking ids.
func FlattenIDs(nodes []*HierarchyNode) []int64 {
	out := []int64{}
	var walk func(ns []*HierarchyNode)
	walk = func(ns []*HierarchyNode) {
		for _, n := range ns {
			if n.Kind == NodeItem && n.Booking != nil {
				out = append(out, n.Booking.ID)
				continue
			}
			walk(n.Children)
		}
	}
	walk(nodes)
	return out
}
