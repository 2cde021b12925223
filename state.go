package parkcache

import "github.com/unkn0wn-root/parkcache/record"

// Phase is how fresh a subscription's data is.
//
//	Empty -> Cached (optional) -> Live
//	Empty|Cached -> Error (keeps the last data)
//
// Live and Error are terminal for one invocation; Update or Refresh starts
// a new one at Empty.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseCached
	PhaseLive
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseCached:
		return "cached"
	case PhaseLive:
		return "live"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// State is what a subscriber sees. Data is never nil and must be treated
// as read-only.
type State struct {
	Data    []record.Record
	Loading bool
	Err     error
	Phase   Phase
}

func emptyState() State {
	return State{Data: []record.Record{}}
}
