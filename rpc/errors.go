package rpc

import (
	"fmt"

	"xccproxy/rpc/message"
)

// RemoteError is returned by bound service funcs when the call reached the
// remote side but did not end with StatusOK.
type RemoteError struct {
	Status  message.Status
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("xccproxy: remote %s: %s", e.Status, e.Message)
}
