package rpc

import (
	"context"
	"net"
	"reflect"
	"strconv"
	"sync/atomic"
	"time"

	"xccproxy/internal/errs"
	"xccproxy/rpc/compress"
	"xccproxy/rpc/message"
	"xccproxy/rpc/serialize"
	"xccproxy/rpc/serialize/json"

	"github.com/gotomicro/ekit/bean/option"
	"github.com/silenceper/pool"
)

var _ Proxy = (*Client)(nil)

// messageId
var messageId uint32 = 0

// Client -> tcp conn client
type Client struct {
	address    string
	connPool   pool.Pool
	serializer serialize.Serializer
	compressor compress.Compressor
	mdls       []Middleware
	// invoke wrapped by mdls
	proxy Proxy
}

// ClientWithSerializer -> option
func ClientWithSerializer(s serialize.Serializer) option.Option[Client] {
	return func(client *Client) {
		client.serializer = s
	}
}

// ClientWithCompressor -> option
func ClientWithCompressor(c compress.Compressor) option.Option[Client] {
	return func(client *Client) {
		client.compressor = c
	}
}

// ClientWithMiddlewares -> option, the first middleware sees the request first
func ClientWithMiddlewares(mdls ...Middleware) option.Option[Client] {
	return func(client *Client) {
		client.mdls = append(client.mdls, mdls...)
	}
}

// NewClient -> create Client. Connections are dialed lazily.
func NewClient(address string, opts ...option.Option[Client]) (*Client, error) {
	poolConfig := &pool.Config{
		InitialCap: 0,
		MaxIdle:    20,
		MaxCap:     30,
		Factory: func() (interface{}, error) {
			return net.Dial("tcp", address)
		},
		Close: func(i interface{}) error {
			return i.(net.Conn).Close()
		},
		IdleTimeout: time.Minute,
	}
	connPool, err := pool.NewChannelPool(poolConfig)
	if err != nil {
		return nil, err
	}
	client := &Client{
		address:    address,
		connPool:   connPool,
		serializer: json.Serializer{},
		// avoid nil checks
		compressor: compress.DoNothingCompressor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	client.proxy = Chain(ProxyFunc(client.invoke), client.mdls...)
	return client, nil
}

// InitClientProxy -> create a client for address and bind srv to it
func InitClientProxy(address string, srv Service, opts ...option.Option[Client]) (*Client, error) {
	client, err := NewClient(address, opts...)
	if err != nil {
		return nil, err
	}
	if err = client.InitService(srv); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// InitService fills the func fields of srv with calls through c
func (c *Client) InitService(srv Service) error {
	return setFuncField(c.serializer, c.compressor, srv, c)
}

func (c *Client) Address() string {
	return c.address
}

func (c *Client) Serializer() serialize.Serializer {
	return c.serializer
}

func (c *Client) Compressor() compress.Compressor {
	return c.compressor
}

// setFuncField binds every func field of service, shaped
// func(ctx context.Context, req *Req) (*Resp, error), to a remote call.
func setFuncField(serializer serialize.Serializer,
	compressor compress.Compressor, service Service, proxy Proxy) error {
	if service == nil {
		return errs.ServiceNilError
	}
	srvVal := reflect.ValueOf(service)
	if srvVal.Kind() != reflect.Pointer {
		return errs.ServiceTypError
	}
	if srvVal.IsNil() {
		return errs.ServiceNilError
	}
	srvValElem := srvVal.Elem()
	srvTypElem := srvValElem.Type()
	if srvTypElem.Kind() != reflect.Struct {
		return errs.ServiceTypError
	}
	errTyp := reflect.TypeOf(new(error)).Elem()
	numField := srvTypElem.NumField()
	for i := 0; i < numField; i++ {
		structField := srvTypElem.Field(i)
		fieldVal := srvValElem.Field(i)
		if !fieldVal.CanSet() || structField.Type.Kind() != reflect.Func {
			continue
		}
		fn := func(args []reflect.Value) (results []reflect.Value) {
			out := reflect.New(structField.Type.Out(0).Elem())
			in := args[1].Interface()
			reqData, err := serializer.Encode(in)
			if err != nil {
				return []reflect.Value{out, reflect.ValueOf(err)}
			}
			reqData, err = compressor.Compress(reqData)
			if err != nil {
				return []reflect.Value{out, reflect.ValueOf(err)}
			}
			ctx := args[0].Interface().(context.Context)
			meta := make(map[string]string, 4)
			for k, v := range MetaFromContext(ctx) {
				meta[k] = v
			}
			if deadline, ok := ctx.Deadline(); ok {
				meta["deadline"] = strconv.FormatInt(deadline.UnixMilli(), 10)
			}
			req := &message.Request{
				Meta:        meta,
				Compresser:  compressor.Code(),
				Serializer:  serializer.Code(),
				ServiceName: service.Name(),
				MethodName:  structField.Name,
				Data:        reqData,
			}
			resp, err := proxy.Invoke(ctx, req)
			if err != nil {
				return []reflect.Value{out, reflect.ValueOf(err)}
			}
			if resp.Status != message.StatusOK {
				return []reflect.Value{out, reflect.ValueOf(&RemoteError{
					Status:  resp.Status,
					Message: string(resp.Error),
				})}
			}
			if len(resp.Data) > 0 {
				data, err := compressor.Uncompress(resp.Data)
				if err != nil {
					return []reflect.Value{out, reflect.ValueOf(err)}
				}
				if err = serializer.Decode(data, out.Interface()); err != nil {
					return []reflect.Value{out, reflect.ValueOf(err)}
				}
			}
			// a typed zero is required here, reflect.Value{} is not a valid result
			return []reflect.Value{out, reflect.Zero(errTyp)}
		}
		fieldVal.Set(reflect.MakeFunc(structField.Type, fn))
	}
	return nil
}

// Invoke -> invoke rpc service through the middlewares
func (c *Client) Invoke(ctx context.Context, req *message.Request) (*message.Response, error) {
	return c.proxy.Invoke(ctx, req)
}

func (c *Client) invoke(ctx context.Context, req *message.Request) (*message.Response, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.MessageId == 0 {
		req.MessageId = atomic.AddUint32(&messageId, 1)
	}
	// middlewares may have touched meta and data, so lengths are computed last
	req.CalculateHeaderLength()
	req.CalculateBodyLength()
	var (
		resp *message.Response
		err  error
	)
	ch := make(chan struct{})
	go func() {
		resp, err = c.doInvoke(message.EncodeReq(req))
		close(ch)
	}()
	select {
	case <-ch:
		return resp, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) doInvoke(encode []byte) (*message.Response, error) {
	val, err := c.connPool.Get()
	if err != nil {
		return nil, errs.ClientConnDead(err)
	}
	conn := val.(net.Conn)
	l, err := conn.Write(encode)
	if err != nil {
		_ = c.connPool.Close(val)
		return nil, err
	}
	if l != len(encode) {
		_ = c.connPool.Close(val)
		return nil, errs.ClientNotAllWritten
	}
	data, err := ReadMsg(conn)
	if err != nil {
		// the stream is out of sync, the connection cannot be reused
		_ = c.connPool.Close(val)
		return nil, errs.ReadRespFailError
	}
	resp, err := message.DecodeResp(data)
	if err != nil {
		_ = c.connPool.Close(val)
		return nil, err
	}
	_ = c.connPool.Put(val)
	return resp, nil
}

// Close releases every pooled connection
func (c *Client) Close() error {
	c.connPool.Release()
	return nil
}
