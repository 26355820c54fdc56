package rpc

import (
	"encoding/binary"
	"io"
	"net"

	"xccproxy/internal/errs"
)

// both Request and Response start with the head length and the body length
const numOfLengthBytes = 8

// MaxFrameLength caps a single frame, head and body together.
const MaxFrameLength = 16 << 20

// ReadMsg reads one whole Request or Response frame from conn.
func ReadMsg(conn net.Conn) ([]byte, error) {
	lenBs := make([]byte, numOfLengthBytes)
	_, err := io.ReadFull(conn, lenBs)
	if err == io.EOF {
		return nil, err
	}
	if err != nil {
		return nil, errs.ReadLenDataError
	}
	headLength := binary.BigEndian.Uint32(lenBs[:4])
	bodyLength := binary.BigEndian.Uint32(lenBs[4:])
	length := uint64(headLength) + uint64(bodyLength)
	if length < numOfLengthBytes {
		return nil, errs.ReadLenDataError
	}
	if length > MaxFrameLength {
		return nil, errs.ErrFrameTooLarge
	}
	data := make([]byte, length)
	copy(data, lenBs)
	_, err = io.ReadFull(conn, data[numOfLengthBytes:])
	return data, err
}
