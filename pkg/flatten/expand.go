// Package flatten turns raw bulk records into destination rows: the
// submissions-by-products cross-join for registration data and the shaped,
// truncated row for label data.
package flatten

import "github.com/quriousri/foxglove/pkg/models"

// Entry is one (submission, product) pairing produced by Expand.
type Entry struct {
	Submission models.Submission
	Product    models.Product
}

// Expand enumerates the full cross product of a record's submissions and
// products: submissions outer, products inner, both in source order. The
// enumeration is deterministic. A record with no submissions or no products
// yields an empty slice.
//
// The expansion is deliberate: one regulatory filing can cover several
// product variants across several procedural submissions, and the destination
// schema models each pairing as one independent auditable fact.
func Expand(record models.DrugRecord) []Entry {
	if len(record.Submissions) == 0 || len(record.Products) == 0 {
		return nil
	}
	entries := make([]Entry, 0, len(record.Submissions)*len(record.Products))
	for _, sub := range record.Submissions {
		for _, prod := range record.Products {
			entries = append(entries, Entry{Submission: sub, Product: prod})
		}
	}
	return entries
}

// TotalEntries is the audit count: the sum over records of
// len(submissions) x len(products), independent of load outcomes.
func TotalEntries(records []models.DrugRecord) int {
	total := 0
	for _, r := range records {
		total += len(r.Submissions) * len(r.Products)
	}
	return total
}
