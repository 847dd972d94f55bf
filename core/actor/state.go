package actor

// State is the lifecycle phase of a Service. It only moves forward:
// Created, Registered, Running, Terminating, Unregistered. A service whose
// setup fails goes from Registered straight to Unregistered.
type State int32

const (
	StateCreated State = iota
	StateRegistered
	StateRunning
	StateTerminating
	StateUnregistered
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRegistered:
		return "registered"
	case StateRunning:
		return "running"
	case StateTerminating:
		return "terminating"
	case StateUnregistered:
		return "unregistered"
	default:
		return "unknown"
	}
}
