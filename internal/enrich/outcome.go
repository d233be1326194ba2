package enrich

// Outcome is the terminal state of one item update.
type Outcome int

const (
	// OutcomeSkipped means nothing was written.
	OutcomeSkipped Outcome = iota
	// OutcomeUpdated means changed ratings were saved.
	OutcomeUpdated
	// OutcomeRateLimited asks the caller to stop the batch after this item.
	OutcomeRateLimited
	// OutcomeFailed means no payload was available or the save failed.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeUpdated:
		return "updated"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StopsBatch reports whether a batch should halt after this outcome.
func (o Outcome) StopsBatch() bool {
	return o == OutcomeRateLimited
}

// Payload origins reported in Result.PayloadSource.
const (
	SourceNone       = "none"
	SourceFreshCache = "fresh_cache"
	SourceStaleCache = "stale_cache"
	SourceProvider   = "provider"
)
