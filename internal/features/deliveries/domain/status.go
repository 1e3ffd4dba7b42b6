package domain

// ParcelStatus represents the fine-grained lifecycle state of a parcel as
// operators see it. It is a closed set; transitions outside the table below
// are rejected.
type ParcelStatus string

const (
	// StatusRegistered is the initial state after intake at a station.
	StatusRegistered ParcelStatus = "registered"
	// StatusContacted indicates the recipient has been reached by the call center.
	StatusContacted ParcelStatus = "contacted"
	// StatusReadyForDelivery indicates the parcel is shelved and dispatchable.
	StatusReadyForDelivery ParcelStatus = "ready-for-delivery"
	// StatusAssigned indicates a courier has been given the parcel.
	StatusAssigned ParcelStatus = "assigned"
	// StatusPickedUp indicates the courier has collected the parcel from the station.
	StatusPickedUp ParcelStatus = "picked-up"
	// StatusOutForDelivery indicates the courier is en route to the recipient.
	StatusOutForDelivery ParcelStatus = "out-for-delivery"
	// StatusDelivered is terminal: the parcel reached the recipient.
	StatusDelivered ParcelStatus = "delivered"
	// StatusDeliveryFailed indicates the attempt failed; the parcel can be re-dispatched.
	StatusDeliveryFailed ParcelStatus = "delivery-failed"
	// StatusCollected is terminal: the recipient picked the parcel up at the station.
	StatusCollected ParcelStatus = "collected"
)

// AssignmentStatus is the coarser wire-level status the station hub uses for
// a courier assignment. Several ParcelStatus values collapse onto one
// AssignmentStatus; the two enumerations are deliberately kept separate and
// joined only by MapAssignmentStatus.
type AssignmentStatus string

const (
	AssignmentAssigned  AssignmentStatus = "ASSIGNED"
	AssignmentAccepted  AssignmentStatus = "ACCEPTED"
	AssignmentPickedUp  AssignmentStatus = "PICKED_UP"
	AssignmentDelivered AssignmentStatus = "DELIVERED"
	AssignmentCancelled AssignmentStatus = "CANCELLED"
	AssignmentReturned  AssignmentStatus = "RETURNED"
)

// transitions is the single source of truth for legal ParcelStatus moves.
// out-for-delivery has the only branching exit; delivery-failed may re-enter
// the dispatch pipeline.
var transitions = map[ParcelStatus][]ParcelStatus{
	StatusRegistered:       {StatusContacted},
	StatusContacted:        {StatusReadyForDelivery},
	StatusReadyForDelivery: {StatusAssigned, StatusCollected},
	StatusAssigned:         {StatusPickedUp},
	StatusPickedUp:         {StatusOutForDelivery},
	StatusOutForDelivery:   {StatusDelivered, StatusDeliveryFailed},
	StatusDeliveryFailed:   {StatusAssigned, StatusReadyForDelivery},
	StatusDelivered:        {},
	StatusCollected:        {},
}

// NextAllowed returns the set of statuses reachable from s in one step.
// Unknown statuses have no exits.
func NextAllowed(s ParcelStatus) []ParcelStatus {
	next, ok := transitions[s]
	if !ok {
		return nil
	}
	out := make([]ParcelStatus, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether s admits no further transitions.
func IsTerminal(s ParcelStatus) bool {
	return s == StatusDelivered || s == StatusCollected
}

// IsValidTransition reports whether moving from one status to another is
// allowed by the transition table.
func IsValidTransition(from, to ParcelStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// MapAssignmentStatus converts a wire-level AssignmentStatus into the
// ParcelStatus it corresponds to. The function is total: any unrecognized
// input degrades to StatusAssigned, the least-progressed courier-side state,
// and never fails. The reverse direction is lossy and intentionally not
// provided.
func MapAssignmentStatus(s AssignmentStatus) ParcelStatus {
	switch s {
	case AssignmentAssigned, AssignmentAccepted:
		return StatusAssigned
	case AssignmentPickedUp:
		return StatusPickedUp
	case AssignmentDelivered:
		return StatusDelivered
	case AssignmentCancelled, AssignmentReturned:
		return StatusDeliveryFailed
	default:
		return StatusAssigned
	}
}
