package msg

type (
	// Broadcast is a message delivered to every current subscriber of its type.
	Broadcast interface {
		isBroadcast()
	}

	// AnyRequest is a [Request] with its reply type erased.
	AnyRequest interface {
		isRequest()
	}

	// Request is a message routed to exactly one subscriber that eventually
	// completes it with a result of type T.
	Request[T any] interface {
		AnyRequest
		replyOf(T)
	}

	// BroadcastMsg marks the embedding struct as a [Broadcast].
	BroadcastMsg struct{}

	// RequestMsg marks a pointer to the embedding struct as a [Request]
	// expecting a reply of type T.
	//
	// The embedding struct needs at least one field of non-zero size. The bus
	// correlates completions by pointer, and pointers to distinct zero-size
	// values may be equal, so requests of such types are rejected when sent.
	RequestMsg[T any] struct{}

	// Completion correlates a finished request with its result. It is only
	// ever placed in the mailbox of the actor that sent Request.
	Completion struct {
		Request AnyRequest
		Result  any
	}
)

func (BroadcastMsg) isBroadcast() {}

func (*RequestMsg[T]) isRequest() {}
func (*RequestMsg[T]) replyOf(T)  {}

// Kind classifies a message.
type Kind int

const (
	KindUnknown Kind = iota
	KindBroadcast
	KindRequest
	KindCompletion
)

func (k Kind) String() string {
	switch k {
	case KindBroadcast:
		return "broadcast"
	case KindRequest:
		return "request"
	case KindCompletion:
		return "completion"
	default:
		return "unknown"
	}
}

// KindOf reports which kind m belongs to.
func KindOf(m any) Kind {
	switch m.(type) {
	case Completion, *Completion:
		return KindCompletion
	case Broadcast:
		return KindBroadcast
	case AnyRequest:
		return KindRequest
	default:
		return KindUnknown
	}
}
