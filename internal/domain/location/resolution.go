package location

// Resolution is the result of resolving a postal code to a catalog partition.
// It is immutable once produced and cached by input code for the lifetime of
// the process.
//
// CanonicalCode may differ from InputCode: the upstream location matcher is
// unreliable for some valid codes within a region, so each covered region has
// a known-good representative code that is substituted when driving the
// catalog page. Stock numbers are keyed to whichever code the site last
// accepted, which makes the substitution load-bearing, not cosmetic.
type Resolution struct {
	InputCode     string
	CanonicalCode string
	PartitionID   string
	PartitionName string
	City          string
	Region        string
}

// CodeForCatalog returns the code that should drive the catalog page for this
// resolution: the canonical code when one is known, the raw input otherwise.
func (r *Resolution) CodeForCatalog() string {
	if r.CanonicalCode != "" {
		return r.CanonicalCode
	}
	return r.InputCode
}
