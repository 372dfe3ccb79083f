package discovery

// State is the orchestrator's position in a scan pass.
type State int32

const (
	Idle State = iota
	Scanning
	Merging
	Categorizing
	Persisting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case Merging:
		return "merging"
	case Categorizing:
		return "categorizing"
	case Persisting:
		return "persisting"
	default:
		return "unknown"
	}
}
