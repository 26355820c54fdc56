package message

import (
	"encoding/binary"
	"errors"
	"testing"

	"xccproxy/internal/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeReq(t *testing.T) {
	testCases := []struct {
		name string
		req  *Request
	}{
		{
			name: "with meta",
			req: &Request{
				MessageId:   123,
				Version:     1,
				Compresser:  3,
				Serializer:  1,
				ServiceName: "greeter",
				MethodName:  "SetGreeting",
				Meta: map[string]string{
					"budget":      "9000000000000",
					"deposit":     "0",
					"predecessor": "proxy.test",
				},
				Data: []byte(`{"message":"hi"}`),
			},
		},
		{
			name: "no meta",
			req: &Request{
				MessageId:   1,
				ServiceName: "greeter",
				MethodName:  "GetGreeting",
				Data:        []byte(`{}`),
			},
		},
		{
			name: "no data",
			req: &Request{
				MessageId:   2,
				ServiceName: "greeter",
				MethodName:  "GetGreeting",
				Meta:        map[string]string{"signer": "alice.test"},
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.CalculateHeaderLength()
			tc.req.CalculateBodyLength()
			bs := EncodeReq(tc.req)
			req, err := DecodeReq(bs)
			require.NoError(t, err)
			assert.Equal(t, tc.req, req)
		})
	}
}

func TestEncodeDecodeResp(t *testing.T) {
	testCases := []struct {
		name string
		resp *Response
	}{
		{
			name: "ok",
			resp: &Response{
				MessageId:  123,
				Version:    1,
				Compresser: 2,
				Serializer: 1,
				Status:     StatusOK,
				Data:       []byte(`{"greeting":"hello"}`),
			},
		},
		{
			name: "budget exceeded",
			resp: &Response{
				MessageId: 7,
				Status:    StatusBudgetExceeded,
				Error:     []byte("budget: exceeded the prepaid gas"),
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.resp.CalculateHeaderLength()
			tc.resp.CalculateBodyLength()
			bs := EncodeResp(tc.resp)
			resp, err := DecodeResp(bs)
			require.NoError(t, err)
			assert.Equal(t, tc.resp, resp)
		})
	}
}

// frame builds a raw frame declaring head and body lengths over payload.
func frame(head, body uint32, payload []byte) []byte {
	bs := make([]byte, 8, 8+len(payload))
	binary.BigEndian.PutUint32(bs[:4], head)
	binary.BigEndian.PutUint32(bs[4:8], body)
	return append(bs, payload...)
}

func TestDecodeReq_Malformed(t *testing.T) {
	fixed := make([]byte, reqFixedHeadLength-8)
	testCases := []struct {
		name string
		bs   []byte
	}{
		{
			name: "lengths only",
			bs:   frame(8, 0, nil),
		},
		{
			name: "head past the end",
			bs:   frame(64, 0, append(fixed, "greeter\nGet\n"...)),
		},
		{
			name: "head shorter than the fixed part",
			bs:   frame(4, 23, append(fixed, "greeter\nGet\n"...)),
		},
		{
			name: "lengths do not add up",
			bs:   frame(reqFixedHeadLength+12, 5, append(fixed, "greeter\nGet\n"...)),
		},
		{
			name: "no service splitter",
			bs:   frame(reqFixedHeadLength+7, 0, append(fixed, "greeter"...)),
		},
		{
			name: "no method splitter",
			bs:   frame(reqFixedHeadLength+11, 0, append(fixed, "greeter\nGet"...)),
		},
		{
			name: "meta pair without separator",
			bs:   frame(reqFixedHeadLength+18, 0, append(fixed, "greeter\nGet\nalice\n"...)),
		},
		{
			name: "unterminated meta pair",
			bs:   frame(reqFixedHeadLength+17, 0, append(fixed, "greeter\nGet\na\rbob"...)),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := DecodeReq(tc.bs)
			assert.True(t, errors.Is(err, errs.ErrMalformedFrame), "%v", err)
			assert.Nil(t, req)
		})
	}
}

func TestDecodeResp_Malformed(t *testing.T) {
	fixed := make([]byte, respFixedHeadLength-8)
	testCases := []struct {
		name string
		bs   []byte
	}{
		{
			name: "lengths only",
			bs:   frame(8, 0, nil),
		},
		{
			name: "head past the end",
			bs:   frame(respFixedHeadLength+10, 0, fixed),
		},
		{
			name: "body past the end",
			bs:   frame(respFixedHeadLength, 10, fixed),
		},
		{
			name: "head shorter than the fixed part",
			bs:   frame(8, 8, fixed),
		},
		{
			name: "lengths wrap around",
			bs:   frame(respFixedHeadLength, ^uint32(0)-respFixedHeadLength+1, fixed),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := DecodeResp(tc.bs)
			assert.True(t, errors.Is(err, errs.ErrMalformedFrame), "%v", err)
			assert.Nil(t, resp)
		})
	}
}

func TestRequest_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		req     *Request
		wantErr bool
	}{
		{
			name: "plain",
			req: &Request{
				ServiceName: "greeter",
				MethodName:  "GetGreeting",
				Meta:        map[string]string{"signer": "alice.test"},
			},
		},
		{
			name: "line break in value",
			req: &Request{
				ServiceName: "greeter",
				MethodName:  "GetGreeting",
				Meta:        map[string]string{"signer": "alice\nbob"},
			},
			wantErr: true,
		},
		{
			name: "carriage return in key",
			req: &Request{
				ServiceName: "greeter",
				MethodName:  "GetGreeting",
				Meta:        map[string]string{"sig\rner": "alice.test"},
			},
			wantErr: true,
		},
		{
			name: "line break in method",
			req: &Request{
				ServiceName: "greeter",
				MethodName:  "Get\nGreeting",
			},
			wantErr: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			assert.Equal(t, tc.wantErr, err != nil)
		})
	}
}

func TestRequest_SetMeta(t *testing.T) {
	req := &Request{}
	req.SetMeta("signer", "alice.test")
	req.SetMeta("signer", "bob.test")
	assert.Equal(t, map[string]string{"signer": "bob.test"}, req.Meta)
}
