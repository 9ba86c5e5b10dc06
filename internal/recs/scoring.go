package recs

import "strings"

// Weights of the content score components. Tags dominate because they carry
// the discriminating attributes (color, sizes); category is coarse.
const (
	tagWeight      = 0.7
	categoryWeight = 0.3
)

// TagSimilarity is the Jaccard similarity |A∩B| / |A∪B| of two tag sets,
// in [0,1]. Either set being empty yields 0, including empty-vs-empty:
// no tags is no evidence of similarity.
func TagSimilarity(a, b TagSet) float64 {
	if a.Len() == 0 || b.Len() == 0 {
		return 0
	}
	intersection := a.Overlap(b)
	union := a.Len() + b.Len() - intersection
	return float64(intersection) / float64(union)
}

// CategorySimilarity is 1 when both categories are present and equal
// ignoring case, else 0.
func CategorySimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if strings.EqualFold(a, b) {
		return 1
	}
	return 0
}

// ContentScore is the weighted content similarity of two products:
// 0.7 × tag similarity + 0.3 × category similarity.
func ContentScore(aTags TagSet, aCategory string, bTags TagSet, bCategory string) float64 {
	return tagWeight*TagSimilarity(aTags, bTags) + categoryWeight*CategorySimilarity(aCategory, bCategory)
}

// VendorReliability maps a vendor's average rating to a score multiplier.
// High-rated vendors are boosted, low performers penalized, and unrated or
// invalid-rated vendors default to the low midpoint rather than being
// excluded.
func VendorReliability(avgRating float64) float64 {
	switch {
	case avgRating <= 0:
		return 0.5
	case avgRating >= 4.5:
		return 1.5
	case avgRating >= 4.0:
		return 1.2
	case avgRating >= 3.5:
		return 1.0
	case avgRating >= 3.0:
		return 0.8
	default:
		return 0.5
	}
}
