package message

import (
	"bytes"
	"encoding/binary"
	"strings"

	"xccproxy/internal/errs"
)

const (
	splitter     = '\n'
	pairSplitter = '\r'
)

// fixed part of the request head: three uint32 and three single bytes
const reqFixedHeadLength = 15

// Request is one invocation on the wire.
type Request struct {
	// head
	HeadLength uint32
	BodyLength uint32
	MessageId  uint32
	Version    uint8
	Compresser uint8
	Serializer uint8

	ServiceName string
	MethodName  string

	// extension fields: budget, deposit, caller identities, trace context
	Meta map[string]string

	// body
	Data []byte
}

func EncodeReq(req *Request) []byte {
	bs := make([]byte, req.HeadLength+req.BodyLength)
	binary.BigEndian.PutUint32(bs[:4], req.HeadLength)
	binary.BigEndian.PutUint32(bs[4:8], req.BodyLength)
	binary.BigEndian.PutUint32(bs[8:12], req.MessageId)

	bs[12] = req.Version
	bs[13] = req.Compresser
	bs[14] = req.Serializer

	cur := bs[reqFixedHeadLength:]
	copy(cur, req.ServiceName)
	cur = cur[len(req.ServiceName):]
	cur[0] = splitter
	cur = cur[1:]
	copy(cur, req.MethodName)
	cur = cur[len(req.MethodName):]
	cur[0] = splitter
	cur = cur[1:]

	for key, value := range req.Meta {
		copy(cur, key)
		cur = cur[len(key):]
		cur[0] = pairSplitter
		cur = cur[1:]
		copy(cur, value)
		cur = cur[len(value):]
		cur[0] = splitter
		cur = cur[1:]
	}
	copy(cur, req.Data)
	return bs
}

// DecodeReq rejects frames whose declared lengths do not match bs and heads
// missing a splitter.
func DecodeReq(bs []byte) (*Request, error) {
	if len(bs) < reqFixedHeadLength {
		return nil, errs.ShortFrame(len(bs))
	}
	req := &Request{}
	req.HeadLength = binary.BigEndian.Uint32(bs[:4])
	req.BodyLength = binary.BigEndian.Uint32(bs[4:8])
	if err := checkLength(req.HeadLength, req.BodyLength, reqFixedHeadLength, len(bs)); err != nil {
		return nil, err
	}
	req.MessageId = binary.BigEndian.Uint32(bs[8:12])
	req.Version = bs[12]
	req.Compresser = bs[13]
	req.Serializer = bs[14]

	header := bs[reqFixedHeadLength:req.HeadLength]
	index := bytes.IndexByte(header, splitter)
	if index == -1 {
		return nil, errs.MalformedHead("service name")
	}
	req.ServiceName = string(header[:index])
	// +1 skips the splitter
	header = header[index+1:]

	index = bytes.IndexByte(header, splitter)
	if index == -1 {
		return nil, errs.MalformedHead("method name")
	}
	req.MethodName = string(header[:index])
	header = header[index+1:]

	index = bytes.IndexByte(header, splitter)
	if index != -1 {
		meta := make(map[string]string, 4)
		for index != -1 {
			pair := header[:index]
			pairIndex := bytes.IndexByte(pair, pairSplitter)
			if pairIndex == -1 {
				return nil, errs.MalformedHead("meta pair")
			}
			meta[string(pair[:pairIndex])] = string(pair[pairIndex+1:])
			header = header[index+1:]
			index = bytes.IndexByte(header, splitter)
		}
		req.Meta = meta
	}
	// trailing bytes that are not a whole pair
	if len(header) > 0 {
		return nil, errs.MalformedHead("meta pair")
	}
	if req.BodyLength != 0 {
		req.Data = bs[req.HeadLength:]
	}
	return req, nil
}

// Validate reports names and meta that EncodeReq cannot frame, those
// containing the splitters.
func (req *Request) Validate() error {
	if strings.ContainsRune(req.ServiceName, splitter) || strings.ContainsRune(req.MethodName, splitter) {
		return errs.InvalidHeadField("name")
	}
	for key, value := range req.Meta {
		if strings.ContainsAny(key, "\n\r") || strings.ContainsAny(value, "\n\r") {
			return errs.InvalidHeadField(key)
		}
	}
	return nil
}

func (req *Request) CalculateHeaderLength() {
	// do not forget the splitters
	headLength := reqFixedHeadLength + len(req.ServiceName) + 1 + len(req.MethodName) + 1
	for key, value := range req.Meta {
		headLength += len(key)
		// between key and value
		headLength++
		headLength += len(value)
		// before the next pair
		headLength++
	}
	req.HeadLength = uint32(headLength)
}

func (req *Request) CalculateBodyLength() {
	req.BodyLength = uint32(len(req.Data))
}

// SetMeta lazily allocates Meta.
func (req *Request) SetMeta(key, value string) {
	if req.Meta == nil {
		req.Meta = make(map[string]string, 4)
	}
	req.Meta[key] = value
}
