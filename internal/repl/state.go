package repl

// State is the lifecycle state of a Loop.
type State int32

// Loop states.
const (
	Idle State = iota
	Running
	Cancelling
	Stopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Cancelling:
		return "cancelling"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}
