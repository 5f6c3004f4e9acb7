package session

// State is the lifecycle state of a Session.
//
//	idle -> connecting -> open -> closing -> idle
//	                           -> closed -> reconnecting -> connecting ... -> exhausted
//
// destroyed is reachable from any state through Disconnect(true).
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
	StateReconnecting
	StateExhausted
	StateDestroyed
)

var stateNames = [...]string{
	StateIdle:         "idle",
	StateConnecting:   "connecting",
	StateOpen:         "open",
	StateClosing:      "closing",
	StateClosed:       "closed",
	StateReconnecting: "reconnecting",
	StateExhausted:    "exhausted",
	StateDestroyed:    "destroyed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further connection attempt will be made.
func (s State) Terminal() bool {
	return s == StateExhausted || s == StateDestroyed
}
