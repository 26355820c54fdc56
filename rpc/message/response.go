package message

import (
	"encoding/binary"

	"xccproxy/internal/errs"
)

// Status tells the caller how the remote execution ended. It separates
// failures of the remote logic from failures of the call itself.
type Status uint8

const (
	StatusOK Status = iota
	// the remote method ran and returned an error
	StatusRemoteFault
	// the remote side ran out of the prepaid budget
	StatusBudgetExceeded
	// the remote side refused the call: unknown service or method, bad payload, throttled
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusRemoteFault:
		return "remote_fault"
	case StatusBudgetExceeded:
		return "budget_exceeded"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

const respFixedHeadLength = 16

// Response is the outcome of one invocation on the wire.
type Response struct {
	HeadLength uint32
	BodyLength uint32
	MessageId  uint32
	Version    uint8
	Compresser uint8
	Serializer uint8
	Status     Status
	// error text, only set when Status is not StatusOK
	Error []byte
	// body
	Data []byte
}

func EncodeResp(resp *Response) []byte {
	bs := make([]byte, resp.HeadLength+resp.BodyLength)
	binary.BigEndian.PutUint32(bs[:4], resp.HeadLength)
	binary.BigEndian.PutUint32(bs[4:8], resp.BodyLength)
	binary.BigEndian.PutUint32(bs[8:12], resp.MessageId)

	bs[12] = resp.Version
	bs[13] = resp.Compresser
	bs[14] = resp.Serializer
	bs[15] = byte(resp.Status)

	// the head length marks where the error ends, so no splitter is needed
	cur := bs[respFixedHeadLength:]
	copy(cur, resp.Error)
	cur = cur[len(resp.Error):]

	copy(cur, resp.Data)
	return bs
}

// DecodeResp rejects frames whose declared lengths do not match bs.
func DecodeResp(bs []byte) (*Response, error) {
	if len(bs) < respFixedHeadLength {
		return nil, errs.ShortFrame(len(bs))
	}
	resp := &Response{}
	resp.HeadLength = binary.BigEndian.Uint32(bs[:4])
	resp.BodyLength = binary.BigEndian.Uint32(bs[4:8])
	if err := checkLength(resp.HeadLength, resp.BodyLength, respFixedHeadLength, len(bs)); err != nil {
		return nil, err
	}
	resp.MessageId = binary.BigEndian.Uint32(bs[8:12])

	resp.Version = bs[12]
	resp.Compresser = bs[13]
	resp.Serializer = bs[14]
	resp.Status = Status(bs[15])

	if resp.HeadLength > respFixedHeadLength {
		resp.Error = bs[respFixedHeadLength:resp.HeadLength]
	}
	if resp.BodyLength > 0 {
		resp.Data = bs[resp.HeadLength:]
	}
	return resp, nil
}

func (resp *Response) CalculateHeaderLength() {
	resp.HeadLength = respFixedHeadLength + uint32(len(resp.Error))
}

func (resp *Response) CalculateBodyLength() {
	resp.BodyLength = uint32(len(resp.Data))
}
