package services

import (
	"testing"

	"backoffice/internal/domain"
)

func TestManifestPDFGenerate(t *testing.T) {
	bookings := []domain.Booking{
		makeBooking(1, 0, withGroup("fam"), withSeat(10, "01"), withCollector(5, "Carlos")),
		makeBooking(2, 1, withGroup("fam")),
		makeBooking(3, 2, asParcel()),
	}
	tree := BuildHierarchy(bookings, domain.ModeDefault, domain.GroupByPickup)

	svc := ManifestPDFService{}
	pdf, filename, err := svc.Generate(1, domain.ModeDefault, tree)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatalf("Generate returned empty data")
	}
	if filename != "manifest-trip-1-default.pdf" {
		t.Fatalf("unexpected filename %q", filename)
	}
}

func TestManifestPDFHandlesEmptyTree(t *testing.T) {
	svc := ManifestPDFService{}
	pdf, _, err := svc.Generate(2, domain.ModeCity, nil)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatalf("empty trip must still produce a header-only sheet")
	}
}
