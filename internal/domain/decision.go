package domain

// Decision is the admission outcome for a single file.
type Decision struct {
	File    MediaFile
	Allowed bool
	Reason  string // empty when allowed
}

// Allow returns an admitting decision for file.
func Allow(file MediaFile) Decision {
	return Decision{File: file, Allowed: true} //nolint:exhaustruct
}

// Block returns a rejecting decision for file with the given reason.
func Block(file MediaFile, reason string) Decision {
	return Decision{File: file, Allowed: false, Reason: reason}
}

// Partition splits decisions into a ValidationResult, keeping their order.
func Partition(decisions []Decision) ValidationResult {
	result := ValidationResult{
		Allowed: make([]MediaFile, 0, len(decisions)),
		Blocked: make([]BlockedEntry, 0),
	}

	for _, decision := range decisions {
		if decision.Allowed {
			result.Allowed = append(result.Allowed, decision.File)

			continue
		}

		result.Blocked = append(result.Blocked, BlockedEntry{
			File:   decision.File,
			Reason: decision.Reason,
		})
	}

	return result
}

// CountDecisions returns the number of allowed and blocked decisions.
func CountDecisions(decisions []Decision) (allowed int, blocked int) {
	return countAllowed(decisions, func(d Decision) bool { return d.Allowed })
}

func countAllowed[T any](items []T, isAllowed func(T) bool) (allowed int, blocked int) {
	for _, item := range items {
		if isAllowed(item) {
			allowed++
		} else {
			blocked++
		}
	}

	return allowed, blocked
}
