package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"reflect"
	"strconv"
	"sync"
	"time"

	"xccproxy/budget"
	"xccproxy/identity"
	"xccproxy/internal/errs"
	"xccproxy/rpc/compress"
	"xccproxy/rpc/message"
	"xccproxy/rpc/serialize"
	"xccproxy/rpc/serialize/json"

	"github.com/gotomicro/ekit/bean/option"
	"github.com/rs/zerolog"
)

// Server -> tcp conn Server
type Server struct {
	account     identity.AccountID
	baseCost    budget.Gas
	services    map[string]*reflectionStub
	serializers []serialize.Serializer
	compressors []compress.Compressor
	mdls        []HandlerMiddleware
	logger      zerolog.Logger

	mutex    sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
}

// ServerWithAccount -> the account handlers see as the current one
func ServerWithAccount(account identity.AccountID) option.Option[Server] {
	return func(server *Server) {
		server.account = account
	}
}

// ServerWithBaseCost -> gas burnt by every metered call before the method runs
func ServerWithBaseCost(cost budget.Gas) option.Option[Server] {
	return func(server *Server) {
		server.baseCost = cost
	}
}

func ServerWithMiddlewares(mdls ...HandlerMiddleware) option.Option[Server] {
	return func(server *Server) {
		server.mdls = append(server.mdls, mdls...)
	}
}

func ServerWithLogger(logger zerolog.Logger) option.Option[Server] {
	return func(server *Server) {
		server.logger = logger
	}
}

// NewServer instance
func NewServer(opts ...option.Option[Server]) *Server {
	res := &Server{
		baseCost: budget.GGas,
		services: make(map[string]*reflectionStub, 8),
		// one byte codes, at most 256 implementations
		serializers: make([]serialize.Serializer, 256),
		compressors: make([]compress.Compressor, 256),
		logger:      zerolog.Nop(),
		conns:       make(map[net.Conn]struct{}, 8),
	}
	for _, opt := range opts {
		opt(res)
	}
	// the most basic protocols are always there
	res.RegisterSerializer(json.Serializer{})
	res.RegisterCompressor(compress.DoNothingCompressor{})
	return res
}

// Start listens on address and serves until Close
func (s *Server) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve accepts connections on listener until Close
func (s *Server) Serve(listener net.Listener) error {
	s.mutex.Lock()
	s.listener = listener
	s.mutex.Unlock()
	handler := s.handler()
	for {
		conn, err := listener.Accept()
		if errors.Is(err, net.ErrClosed) {
			return nil
		}
		if err != nil {
			s.logger.Warn().Err(err).Msg("server: accept connection failed")
			continue
		}
		s.mutex.Lock()
		s.conns[conn] = struct{}{}
		s.mutex.Unlock()
		go s.handleConn(conn, handler)
	}
}

// Addr is the bound address, nil before Serve
func (s *Server) Addr() net.Addr {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close -> close net.Listener and every open connection
func (s *Server) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func (s *Server) handler() Handler {
	h := Handler(s.Invoke)
	for i := len(s.mdls) - 1; i >= 0; i-- {
		h = s.mdls[i](h)
	}
	return h
}

func (s *Server) handleConn(conn net.Conn, handler Handler) {
	defer func() {
		s.mutex.Lock()
		delete(s.conns, conn)
		s.mutex.Unlock()
		_ = conn.Close()
	}()
	for {
		bs, err := ReadMsg(conn)
		if err == io.EOF || errors.Is(err, net.ErrClosed) {
			return
		}
		if err != nil {
			s.logger.Debug().Err(err).Msg("server: read request failed")
			return
		}
		req, err := message.DecodeReq(bs)
		if err != nil {
			s.logger.Warn().Err(err).Msg("server: malformed request, closing the connection")
			return
		}
		ctx := context.Background()
		cancel := func() {}
		if deadline, er := strconv.ParseInt(req.Meta["deadline"], 10, 64); er == nil {
			ctx, cancel = context.WithDeadline(ctx, time.UnixMilli(deadline))
		}
		resp := handler(ctx, req)
		cancel()
		resp.CalculateHeaderLength()
		resp.CalculateBodyLength()
		if _, err = conn.Write(message.EncodeResp(resp)); err != nil {
			s.logger.Warn().Err(err).Msg("server: sending response failed")
			return
		}
	}
}

// Invoke -> dispatch req to the registered stub. The execution identity and
// the gas meter are installed in ctx before the method runs.
func (s *Server) Invoke(ctx context.Context, req *message.Request) *message.Response {
	stub, ok := s.services[req.ServiceName]
	if !ok {
		return &message.Response{
			Version:    req.Version,
			Compresser: req.Compresser,
			Serializer: req.Serializer,
			MessageId:  req.MessageId,
			Status:     message.StatusRejected,
			Error:      []byte(errs.InvalidServiceName.Error()),
		}
	}
	ctx = identity.With(ctx, identity.FromMeta(req.Meta, s.account))
	if raw, ok := req.Meta[budget.MetaBudget]; ok {
		limit, err := budget.Parse(raw)
		if err != nil {
			return &message.Response{
				Version:    req.Version,
				Compresser: req.Compresser,
				Serializer: req.Serializer,
				MessageId:  req.MessageId,
				Status:     message.StatusRejected,
				Error:      []byte(fmt.Sprintf("xccproxy: invalid budget %q", raw)),
			}
		}
		ctx = budget.WithMeter(ctx, budget.NewMeter(limit))
	}
	return stub.invoke(ctx, req, s.baseCost)
}

// RegisterService -> Service stub. Only methods shaped
// func(ctx context.Context, req *Req) (*Resp, error) are exposed.
func (s *Server) RegisterService(service Service) error {
	if service == nil {
		return errs.ServiceNilError
	}
	val := reflect.ValueOf(service)
	typ := val.Type()
	ctxTyp := reflect.TypeOf((*context.Context)(nil)).Elem()
	errTyp := reflect.TypeOf((*error)(nil)).Elem()
	methods := make(map[string]reflect.Value, val.NumMethod())
	for i := 0; i < val.NumMethod(); i++ {
		methodTyp := typ.Method(i)
		mt := methodTyp.Type
		// receiver included
		if mt.NumIn() != 3 || mt.NumOut() != 2 {
			continue
		}
		if mt.In(1) != ctxTyp || mt.In(2).Kind() != reflect.Pointer || mt.Out(1) != errTyp {
			continue
		}
		methods[methodTyp.Name] = val.Method(i)
	}
	s.services[service.Name()] = &reflectionStub{
		s:           service,
		methods:     methods,
		serializers: s.serializers,
		compressors: s.compressors,
	}
	return nil
}

func (s *Server) MustRegister(service Service) {
	if err := s.RegisterService(service); err != nil {
		panic(err)
	}
}

// RegisterSerializer -> register serializer
func (s *Server) RegisterSerializer(serializer serialize.Serializer) {
	s.serializers[serializer.Code()] = serializer
}

// RegisterCompressor -> register compressor
func (s *Server) RegisterCompressor(compressor compress.Compressor) {
	s.compressors[compressor.Code()] = compressor
}

// reflectionStub -> service stub
type reflectionStub struct {
	s           Service
	serializers []serialize.Serializer
	compressors []compress.Compressor
	methods     map[string]reflect.Value
}

// invoke -> stub execute method by reflect
func (s *reflectionStub) invoke(ctx context.Context, req *message.Request, baseCost budget.Gas) (response *message.Response) {
	response = &message.Response{
		Version:    req.Version,
		Compresser: req.Compresser,
		Serializer: req.Serializer,
		MessageId:  req.MessageId,
	}
	fail := func(status message.Status, err error) *message.Response {
		response.Status = status
		response.Error = []byte(err.Error())
		response.Data = nil
		return response
	}
	method, ok := s.methods[req.MethodName]
	if !ok {
		return fail(message.StatusRejected, errs.NotFoundServiceMethod(req.MethodName))
	}
	compressor := s.compressors[req.Compresser]
	if compressor == nil {
		return fail(message.StatusRejected, errs.UnknownCompressor)
	}
	serializer := s.serializers[req.Serializer]
	if serializer == nil {
		return fail(message.StatusRejected, errs.UnknownSerializer)
	}
	reqData, err := compressor.Uncompress(req.Data)
	if err != nil {
		return fail(message.StatusRejected, err)
	}
	in := reflect.New(method.Type().In(1).Elem())
	if len(reqData) > 0 {
		if err = serializer.Decode(reqData, in.Interface()); err != nil {
			return fail(message.StatusRejected, err)
		}
	}
	if err = budget.Charge(ctx, baseCost); err != nil {
		return fail(message.StatusBudgetExceeded, err)
	}
	defer func() {
		if r := recover(); r != nil {
			response = fail(message.StatusRemoteFault, fmt.Errorf("xccproxy: method %s panicked: %v", req.MethodName, r))
		}
	}()
	res := method.Call([]reflect.Value{reflect.ValueOf(ctx), in})
	if callErr, _ := res[1].Interface().(error); callErr != nil {
		if errors.Is(callErr, errs.ErrBudgetExceeded) {
			return fail(message.StatusBudgetExceeded, callErr)
		}
		return fail(message.StatusRemoteFault, callErr)
	}
	// the method may have ignored a failed charge
	if m, ok := budget.MeterFromContext(ctx); ok && m.Used() > m.Limit() {
		return fail(message.StatusBudgetExceeded, errs.BudgetExceeded(uint64(m.Used()), uint64(m.Limit())))
	}
	respData, err := serializer.Encode(res[0].Interface())
	if err != nil {
		return fail(message.StatusRemoteFault, err)
	}
	respData, err = compressor.Compress(respData)
	if err != nil {
		return fail(message.StatusRemoteFault, err)
	}
	response.Data = respData
	return response
}
