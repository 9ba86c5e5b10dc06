package recs

// diversify caps how many items a single vendor may contribute to a ranked
// list. It is a single streaming pass over the score-sorted input: items keep
// their relative order, and once a vendor hits the cap its lower-ranked items
// are dropped, not deferred. No backfill happens, so the output can end up
// shorter than the caller's limit when few vendors dominate the top ranks.
func diversify(items []ScoredProduct, maxPerVendor int) []ScoredProduct {
	if maxPerVendor <= 0 {
		return items
	}
	perVendor := make(map[string]int, 16)
	out := make([]ScoredProduct, 0, len(items))
	for _, item := range items {
		perVendor[item.VendorID]++
		if perVendor[item.VendorID] <= maxPerVendor {
			out = append(out, item)
		}
	}
	return out
}
