// Package recs implements the hybrid content + vendor-performance
// recommendation engine: related, trending and personalized product
// rankings over a read-only catalog, memoized in a TTL cache.
package recs

import "marketrec/internal/catalog"

// TagSet is an ordered, de-duplicated set of a product's content tags:
// its category, color and size labels, with empty values excluded. Tags are
// the unit of content similarity between products.
type TagSet struct {
	tags []string
	set  map[string]bool
}

// NewTagSet builds a TagSet from raw values, dropping empties and
// duplicates while preserving first-seen order.
func NewTagSet(values ...string) TagSet {
	ts := TagSet{set: make(map[string]bool, len(values))}
	for _, v := range values {
		if v == "" || ts.set[v] {
			continue
		}
		ts.set[v] = true
		ts.tags = append(ts.tags, v)
	}
	return ts
}

// ProductTags extracts the tag set of a product: {category, color, sizes...}.
func ProductTags(p *catalog.Product) TagSet {
	values := make([]string, 0, len(p.Sizes)+2)
	values = append(values, p.Category, p.Color)
	values = append(values, p.Sizes...)
	return NewTagSet(values...)
}

// Len returns the number of distinct tags.
func (ts TagSet) Len() int {
	return len(ts.tags)
}

// Contains reports whether tag is in the set.
func (ts TagSet) Contains(tag string) bool {
	return ts.set[tag]
}

// Tags returns the tags in insertion order. The returned slice must not be
// mutated.
func (ts TagSet) Tags() []string {
	return ts.tags
}

// Overlap counts how many of ts's tags are present in other.
func (ts TagSet) Overlap(other TagSet) int {
	n := 0
	for _, tag := range ts.tags {
		if other.Contains(tag) {
			n++
		}
	}
	return n
}
