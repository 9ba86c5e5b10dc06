package recs

import (
	"testing"

	"marketrec/internal/catalog"
)

func scoredForVendor(id, vendorID string, score float64) ScoredProduct {
	return ScoredProduct{
		Product: catalog.Product{ID: id, VendorID: vendorID},
		Score:   score,
	}
}

func ids(items []ScoredProduct) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestDiversifyCapsVendors(t *testing.T) {
	in := []ScoredProduct{
		scoredForVendor("p1", "v1", 5),
		scoredForVendor("p2", "v1", 4),
		scoredForVendor("p3", "v1", 3),
		scoredForVendor("p4", "v2", 2),
		scoredForVendor("p5", "v1", 1),
	}

	out := diversify(in, 2)

	counts := map[string]int{}
	for _, item := range out {
		counts[item.VendorID]++
	}
	for vendor, n := range counts {
		if n > 2 {
			t.Errorf("vendor %s contributes %d items, cap is 2", vendor, n)
		}
	}

	// Retained items keep their input order; v1's third and fourth items
	// are dropped, not deferred behind v2.
	got := ids(out)
	want := []string{"p1", "p2", "p4"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDiversifyCanUnderfill(t *testing.T) {
	// A single dominant vendor leaves only maxPerVendor results; there
	// is no backfill.
	in := []ScoredProduct{
		scoredForVendor("p1", "v1", 5),
		scoredForVendor("p2", "v1", 4),
		scoredForVendor("p3", "v1", 3),
		scoredForVendor("p4", "v1", 2),
	}
	out := diversify(in, 2)
	if len(out) != 2 {
		t.Fatalf("expected 2 items from a single-vendor list, got %d", len(out))
	}
}

func TestDiversifyNoCap(t *testing.T) {
	in := []ScoredProduct{
		scoredForVendor("p1", "v1", 5),
		scoredForVendor("p2", "v1", 4),
	}
	if got := diversify(in, 0); len(got) != 2 {
		t.Fatalf("cap <= 0 should pass everything through, got %d items", len(got))
	}
}

func TestDiversifyEmpty(t *testing.T) {
	if got := diversify(nil, 2); len(got) != 0 {
		t.Fatalf("expected empty output, got %d items", len(got))
	}
}
