package push

// Outcome classifies a single delivery attempt.
type Outcome int

const (
	// OutcomeUnknown is the zero value; it never counts as a delivery.
	OutcomeUnknown Outcome = iota
	Delivered
	// SubscriptionGone means the push service no longer knows the endpoint (404/410).
	SubscriptionGone
	// TransientFailure covers every other error: network, timeout, 5xx, bad payload.
	TransientFailure
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case SubscriptionGone:
		return "subscription_gone"
	case TransientFailure:
		return "transient_failure"
	default:
		return "unknown"
	}
}
