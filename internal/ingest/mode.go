package ingest

import "fmt"

// Mode selects how a run treats the destination tree.
type Mode string

const (
	// ModeFresh assumes the destination is empty or disposable; nothing is
	// pre-indexed and the database is compacted at the end.
	ModeFresh Mode = "fresh"
	// ModeMerge fingerprints existing destination content first so
	// previously organized files count as duplicates.
	ModeMerge Mode = "merge"
)

// ParseMode validates a user-supplied mode string.
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case ModeFresh, ModeMerge:
		return Mode(value), nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected fresh or merge)", value)
	}
}

// State tracks a run's phase for observers.
type State int32

const (
	StateIdle State = iota
	StatePreIndexing
	StateScanning
	StateProcessing
	StateFinalizing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreIndexing:
		return "pre-indexing"
	case StateScanning:
		return "scanning"
	case StateProcessing:
		return "processing"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}
