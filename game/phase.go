package game

// Phase is the lifecycle stage of a traversal session.
type Phase uint8

const (
	Waiting Phase = iota // Waiting for an attempt to start.
	Playing              // Playing while the countdown runs.
	Won                  // Won by reaching the goal cell.
	Lost                 // Lost because the countdown ran out.
)

var phaseNames = map[Phase]string{
	Waiting: "waiting",
	Playing: "playing",
	Won:     "won",
	Lost:    "lost",
}

// transitions lists the phases reachable from each phase, reset excluded.
var transitions = map[Phase][]Phase{
	Waiting: {Playing},
	Playing: {Won, Lost},
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal reports whether the phase ends an attempt.
func (p Phase) IsTerminal() bool {
	return p == Won || p == Lost
}

// CanTransitionTo checks if a transition from p to target is allowed.
// Reset to Waiting is always allowed and is not listed here.
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, next := range transitions[p] {
		if next == target {
			return true
		}
	}
	return false
}
