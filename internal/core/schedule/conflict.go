package schedule

// Outcome is the result of comparing a caller's base version with the stored one.
type Outcome int

const (
	// Match means the caller saw the current version and may write.
	Match Outcome = iota
	// Stale means the task changed since the caller read it.
	Stale
)

func (o Outcome) String() string {
	switch o {
	case Match:
		return "match"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// Classify compares versions only. Field values are never inspected, so a
// stale base is rejected even when the edit would merge cleanly.
func Classify(stored, base int64) Outcome {
	if stored == base {
		return Match
	}
	return Stale
}

// CheckVersion returns a *ConflictError carrying current when base is stale.
func CheckVersion(current Task, base int64) error {
	if Classify(current.Version, base) == Stale {
		return &ConflictError{Current: current, BaseVersion: base}
	}
	return nil
}
