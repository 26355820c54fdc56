package outcome

import "github.com/rs/zerolog"

// Normalizer turns the Outcome of one operation into its public value. A
// failure never escapes: it becomes Fallback plus one diagnostic record.
type Normalizer[T any] struct {
	// operation name, attached to every record
	Op string
	// returned on failure
	Fallback T
	// message of the failure record
	FailureMsg string
	// message of an info record on success, none when empty
	SuccessMsg string
}

func (n Normalizer[T]) Normalize(logger zerolog.Logger, o Outcome[T]) T {
	if v, ok := o.Value(); ok {
		if n.SuccessMsg != "" {
			logger.Info().Str("op", n.Op).Msg(n.SuccessMsg)
		}
		return v
	}
	f, _ := o.Failure()
	logger.Warn().
		Str("op", n.Op).
		Stringer("reason", f.Reason).
		Str("detail", f.Detail).
		Msg(n.FailureMsg)
	return n.Fallback
}

// Text is the normalizer of operations returning text: "" on failure.
func Text(op, failureMsg string) Normalizer[string] {
	return Normalizer[string]{Op: op, FailureMsg: failureMsg}
}

// Status is the normalizer of operations reporting success as a flag: false
// on failure.
func Status(op, successMsg, failureMsg string) Normalizer[bool] {
	return Normalizer[bool]{Op: op, FailureMsg: failureMsg, SuccessMsg: successMsg}
}
