package message

import "xccproxy/internal/errs"

// checkLength verifies that head and body lengths describe exactly size bytes.
func checkLength(head, body uint32, fixedHead, size int) error {
	if int64(head) < int64(fixedHead) || int64(head) > int64(size) {
		return errs.InvalidFrameLength(uint64(head), uint64(body), size)
	}
	if uint64(head)+uint64(body) != uint64(size) {
		return errs.InvalidFrameLength(uint64(head), uint64(body), size)
	}
	return nil
}
