// Package search provides candidate retrieval for sponsor name lookups
// using Bleve. The index narrows the full register down to a small set
// of plausible names; exact ranking happens outside on trigram overlap.
package search

// SponsorDocument is the document structure for the Bleve index.
// One document per normalized name, not per registration: the store
// holds the per-registration detail, the index only has to find names.
type SponsorDocument struct {
	// ID is the normalized name itself, which keeps re-indexing
	// the same name idempotent.
	ID           string `json:"id"`
	Name         string `json:"name"`          // normalized form, the match target
	NameOriginal string `json:"name_original"` // display form
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *SponsorDocument) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"id":            d.ID,
		"name":          d.Name,
		"name_original": d.NameOriginal,
	}
}
