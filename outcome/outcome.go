// Package outcome models the result of a remote invocation and turns it into
// the value handed back to the proxy's callers.
package outcome

import "fmt"

// Reason classifies why an invocation failed.
type Reason uint8

const (
	ReasonUnknown Reason = iota
	// the peer method ran and returned an error
	ReasonRemoteFault
	// the peer ran out of the attached budget
	ReasonBudgetExceeded
	// the peer refused the call before running it
	ReasonRejected
	// the call never got a response
	ReasonTransport
	// the response could not be decoded into the declared shape
	ReasonDecode
	// the invocation was never issued
	ReasonDispatch
)

func (r Reason) String() string {
	switch r {
	case ReasonRemoteFault:
		return "remote_fault"
	case ReasonBudgetExceeded:
		return "budget_exceeded"
	case ReasonRejected:
		return "rejected"
	case ReasonTransport:
		return "transport"
	case ReasonDecode:
		return "decode"
	case ReasonDispatch:
		return "dispatch"
	default:
		return "unknown"
	}
}

// Failure is the failed side of an Outcome.
type Failure struct {
	Reason Reason
	Detail string
}

func (f Failure) Error() string {
	if f.Detail == "" {
		return f.Reason.String()
	}
	return fmt.Sprintf("%s: %s", f.Reason, f.Detail)
}

// Raw is what the transport hands to a continuation: either the decoded reply
// or a failure. Reply is the pointer the invocation asked to decode into.
type Raw struct {
	Reply   any
	Failure *Failure
}

func RawSuccess(reply any) Raw {
	return Raw{Reply: reply}
}

func RawFailure(reason Reason, detail string) Raw {
	return Raw{Failure: &Failure{Reason: reason, Detail: detail}}
}

// Outcome is Success(value) or Failure(reason). The zero value is a failure
// with ReasonUnknown.
type Outcome[T any] struct {
	value   T
	ok      bool
	failure Failure
}

func Success[T any](v T) Outcome[T] {
	return Outcome[T]{value: v, ok: true}
}

func Fail[T any](reason Reason, detail string) Outcome[T] {
	return Outcome[T]{failure: Failure{Reason: reason, Detail: detail}}
}

func (o Outcome[T]) IsSuccess() bool {
	return o.ok
}

func (o Outcome[T]) Value() (T, bool) {
	return o.value, o.ok
}

func (o Outcome[T]) Failure() (Failure, bool) {
	return o.failure, !o.ok
}

// Resolve types a Raw outcome. extract maps the decoded reply of type R to the
// value the operation promises; a reply of any other type is a decode failure.
func Resolve[R any, T any](raw Raw, extract func(R) T) Outcome[T] {
	if raw.Failure != nil {
		return Fail[T](raw.Failure.Reason, raw.Failure.Detail)
	}
	reply, ok := raw.Reply.(R)
	if !ok {
		return Fail[T](ReasonDecode, fmt.Sprintf("unexpected reply %T", raw.Reply))
	}
	return Success(extract(reply))
}
