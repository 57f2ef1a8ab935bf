package services

import (
	"bytes"
	"fmt"
	"strings"

	"backoffice/internal/domain"
	"backoffice/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// ManifestPDFService renders the printable manifest sheet for one trip from
// an already-built hierarchy tree.
type ManifestPDFService struct {
	RequestID string
}

func (s ManifestPDFService) Generate(tripID int64, mode domain.OrgMode, tree []*domain.HierarchyNode) ([]byte, string, error) {
	utils.LogEvent(s.RequestID, "manifest", "generate_pdf", fmt.Sprintf("trip_id=%d mode=%s", tripID, mode))

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Trip Manifest", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 9, fmt.Sprintf("TRIP MANIFEST #%d", tripID))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Organization: %s", mode))
	pdf.Ln(9)

	for _, bucket := range tree {
		s.renderBucket(pdf, bucket, 0)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("manifest-trip-%d-%s.pdf", tripID, mode)
	return buf.Bytes(), filename, nil
}

func (s ManifestPDFService) renderBucket(pdf *gofpdf.Fpdf, node *domain.HierarchyNode, depth int) {
	indent := float64(depth * 5)

	switch node.Kind {
	case domain.NodeBucket:
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetX(pdf.GetX() + indent)
		pdf.Cell(0, 8, safe(node.Label, "-"))
		pdf.Ln(8)
	case domain.NodeSubBucket:
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetX(pdf.GetX() + indent)
		pdf.Cell(0, 7, safe(node.Label, "-"))
		pdf.Ln(7)
	case domain.NodeGroup:
		// groups render as their items; multi-member groups get a marker
	case domain.NodeItem:
		s.renderItem(pdf, node, indent)
		return
	}

	grouped := node.Kind == domain.NodeGroup && len(node.Children) > 1
	for i, child := range node.Children {
		childDepth := depth
		if node.Kind != domain.NodeGroup {
			childDepth++
		}
		if grouped && child.Kind == domain.NodeItem {
			child = markGrouped(child, i == 0)
		}
		s.renderBucket(pdf, child, childDepth)
	}
	if node.Kind == domain.NodeBucket {
		pdf.Ln(2)
	}
}

func (s ManifestPDFService) renderItem(pdf *gofpdf.Fpdf, node *domain.HierarchyNode, indent float64) {
	b := node.Booking
	if b == nil {
		return
	}

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetX(pdf.GetX() + indent)

	kind := "PAX"
	if b.IsParcel() {
		kind = "PCL"
	}
	seat := "-"
	if b.Seated() {
		seat = fmt.Sprintf("%s / veh %d", *b.SeatNumber, *b.VehicleID)
	}
	luggage := "-"
	if b.LuggageCount > 0 {
		luggage = fmt.Sprintf("%d", b.LuggageCount)
	}

	line := fmt.Sprintf("%-4s %-28s seat: %-14s coleta: %-14s entrega: %-14s lug: %s",
		kind,
		safe(truncate(b.Person.Name, 28), "-"),
		seat,
		safe(truncate(b.CollectorDriver, 14), "-"),
		safe(truncate(b.DelivererDriver, 14), "-"),
		luggage,
	)
	if marker := groupMarker(node); marker != "" {
		line = marker + " " + strings.TrimSpace(line)
	}
	pdf.Cell(0, 5, line)
	pdf.Ln(5)
}

func markGrouped(item *domain.HierarchyNode, first bool) *domain.HierarchyNode {
	clone := *item
	if first {
		clone.Key = "group-first:" + clone.Key
	} else {
		clone.Key = "group-member:" + clone.Key
	}
	return &clone
}

func groupMarker(node *domain.HierarchyNode) string {
	switch {
	case strings.HasPrefix(node.Key, "group-first:"):
		return "+"
	case strings.HasPrefix(node.Key, "group-member:"):
		return "|"
	}
	return ""
}

func safe(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "."
}
