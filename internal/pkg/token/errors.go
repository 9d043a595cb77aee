package token

// Kind identifies why token verification failed. The (Code, Message) pair of
// each kind is stable and safe to surface to clients.
type Kind int

const (
	// KindInvalid covers signature mismatch and any other verification
	// defect without a more specific kind.
	KindInvalid Kind = iota
	KindExpired
	KindMalformed
	KindUnsupported
)

func (k Kind) Code() string {
	switch k {
	case KindExpired:
		return "TOKEN_EXPIRED"
	case KindMalformed:
		return "TOKEN_MALFORMED"
	case KindUnsupported:
		return "TOKEN_UNSUPPORTED"
	default:
		return "TOKEN_INVALID"
	}
}

func (k Kind) Message() string {
	switch k {
	case KindExpired:
		return "Token has expired"
	case KindMalformed:
		return "Malformed token"
	case KindUnsupported:
		return "Unsupported token"
	default:
		return "Invalid token"
	}
}

// VerifyError is the typed failure returned by Codec verification. The
// middleware pattern-matches on Kind instead of inspecting library errors.
type VerifyError struct {
	Kind  Kind
	cause error
}

func (e *VerifyError) Error() string {
	if e.cause != nil {
		return e.Kind.Code() + ": " + e.cause.Error()
	}
	return e.Kind.Code()
}

func (e *VerifyError) Unwrap() error { return e.cause }
