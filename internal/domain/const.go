package domain

const (
	MintChannel       = "craftnft:mints"
	InflightKeyPrefix = "craftnft:inflight:"
	LedgerCachePrefix = "craftnft:tx:"
)

// PurchaseState is a step of the purchase workflow.
type PurchaseState int

const (
	StateReceived PurchaseState = iota
	StateValidating
	StateRejected
	StateValidated
	StateGenerating
	StateGenerationFailed
	StateGenerated
	StatePersisting
	StateConflict
	StatePersisted
	StateNotifying
	StateCompleted
)

func (s PurchaseState) String() string {
	switch s {
	case StateReceived:
		return "Received"
	case StateValidating:
		return "Validating"
	case StateRejected:
		return "Rejected"
	case StateValidated:
		return "Validated"
	case StateGenerating:
		return "Generating"
	case StateGenerationFailed:
		return "GenerationFailed"
	case StateGenerated:
		return "Generated"
	case StatePersisting:
		return "Persisting"
	case StateConflict:
		return "Conflict"
	case StatePersisted:
		return "Persisted"
	case StateNotifying:
		return "Notifying"
	case StateCompleted:
		return "Completed"
	default:
		return "Error"
	}
}

// Terminal reports whether no further step follows s.
func (s PurchaseState) Terminal() bool {
	switch s {
	case StateRejected, StateGenerationFailed, StateConflict, StateCompleted:
		return true
	}
	return false
}
