package errs

import (
	"errors"
	"fmt"
)

var (
	ServiceTypError     = errors.New("xccproxy: service type must be a first level pointer to struct")
	ServiceNilError     = errors.New("xccproxy: service must not be nil")
	ReadLenDataError    = errors.New("xccproxy: could not read the length data")
	ReadRespFailError   = errors.New("xccproxy: unable to read response")
	InvalidServiceName  = errors.New("xccproxy: invalid service name")
	ClientNotAllWritten = errors.New("xccproxy: request was not fully written")
	ErrMalformedFrame   = errors.New("message: malformed frame")
	ErrFrameTooLarge    = errors.New("xccproxy: frame exceeds the size limit")
)

var (
	ProtoSerializeTypError   = errors.New("serialize: serialization must be proto.Message type")
	ProtoDeserializeTypError = errors.New("serialize: deserialization must be proto.Message type")
	UnknownSerializer        = errors.New("serialize: unknown serializer code")
	UnknownCompressor        = errors.New("compress: unknown compressor code")
)

var (
	ErrAlreadyInitialized = errors.New("xccproxy: already initialized")
	ErrNotInitialized     = errors.New("xccproxy: proxy is not initialized")
	ErrUnauthorizedInit   = errors.New("xccproxy: only the proxy account may initialize it")
	ErrEmptyPeer          = errors.New("xccproxy: peer address must not be empty")
	ErrEmptyAccount       = errors.New("xccproxy: proxy account must not be empty")
	ErrKeyExists          = errors.New("state: key already exists")
	ErrKeyNotFound        = errors.New("state: key not found")
)

var (
	ErrInvalidBudget            = errors.New("dispatch: budget must be positive")
	ErrBudgetExceeded           = errors.New("budget: exceeded the prepaid gas")
	ErrUnauthorizedContinuation = errors.New("continuation: caller is not the proxy itself")
	ErrContinuationNotFound     = errors.New("continuation: no pending call with this id")
	ErrEmptyGreeting            = errors.New("greeter: greeting must not be empty")
)

func NotFoundServiceMethod(method string) error {
	return fmt.Errorf("xccproxy: method %s not found", method)
}

func ClientConnDead(err error) error {
	return fmt.Errorf("xccproxy: unable to get a connection: %w", err)
}

func BudgetExceeded(used, limit uint64) error {
	return fmt.Errorf("%w: used %d of %d", ErrBudgetExceeded, used, limit)
}

func ShortFrame(size int) error {
	return fmt.Errorf("%w: %d bytes is shorter than the fixed head", ErrMalformedFrame, size)
}

func InvalidFrameLength(head, body uint64, size int) error {
	return fmt.Errorf("%w: head %d and body %d do not add up to %d bytes", ErrMalformedFrame, head, body, size)
}

func MalformedHead(field string) error {
	return fmt.Errorf("%w: %s is not terminated", ErrMalformedFrame, field)
}

func InvalidHeadField(field string) error {
	return fmt.Errorf("message: %s must not contain a line break or carriage return", field)
}
