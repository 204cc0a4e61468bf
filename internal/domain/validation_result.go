package domain

// BlockedEntry is a rejected file together with the reason shown to the user.
type BlockedEntry struct {
	File   MediaFile
	Reason string
}

// ValidationResult partitions an admission batch.
// Every input file is in exactly one of Allowed and Blocked, and both keep
// the input order.
type ValidationResult struct {
	Allowed []MediaFile
	Blocked []BlockedEntry
}

// Len returns the total number of files in the result.
func (r ValidationResult) Len() int {
	return len(r.Allowed) + len(r.Blocked)
}
