package rest

// State is a step of the request lifecycle:
//
//	Built -> Sent -> Completed | TransportFailed
//	Completed -> DecodedOK | DecodeFailed (on the first Body call)
type State int32

const (
	StateBuilt State = iota
	StateSent
	StateCompleted
	StateTransportFailed
	StateDecodedOK
	StateDecodeFailed
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateSent:
		return "sent"
	case StateCompleted:
		return "completed"
	case StateTransportFailed:
		return "transport_failed"
	case StateDecodedOK:
		return "decoded_ok"
	case StateDecodeFailed:
		return "decode_failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen. Completed is
// terminal for callers that never decode, so it is not reported here.
func (s State) Terminal() bool {
	switch s {
	case StateTransportFailed, StateDecodedOK, StateDecodeFailed:
		return true
	}
	return false
}
