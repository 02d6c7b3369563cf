// grpc.go wires an optional network front end onto the in-process
// plugin ABI of host.go: the same four lifecycle operations
// (Init/SetInput/Tick/GetOutput), exposed as unary RPCs over
// RuleEngineService.
//
// Grounded on github.com/funvibe/funxy/internal/evaluator's
// builtins_grpc.go virtual package: protoparse parses the service's
// .proto SOURCE TEXT at runtime (no protoc-generated Go stubs), and a
// hand-built grpc.ServiceDesc/grpc.MethodDesc pair registers a dynamic
// handler per method, exactly the shape builtinGrpcRegister/
// FunxyGrpcHandler.HandleUnary construct for a user-supplied service
// implementation — here the "implementation" is fixed to this
// package's Server instead of an interpreted rule-set object.
package host

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/funvibe/rulejitc/internal/config"
	"github.com/funvibe/rulejitc/internal/rlog"
)

// ruleEngineProto is RuleEngineService's schema, parsed at process
// start the same way builtinGrpcLoadProto parses a user-supplied .proto
// file — except the source lives in this binary rather than on disk.
const ruleEngineProto = `
syntax = "proto3";

package rulejitc.host;

message InitRequest {
  bytes document_xml = 1;
  bool division_by_zero_fails = 2;
  bool verbose = 3;
}

message InitReply {
  bool ok = 1;
  string error = 2;
  string engine_id = 3;
}

message SetInputRequest {
  string engine_id = 1;
  string values_json = 2;
}

message SetInputReply {
  bool ok = 1;
  string error = 2;
}

message TickRequest {
  string engine_id = 1;
  double dt = 2;
}

message TickReply {
  bool ok = 1;
  string error = 2;
  string state = 3;
}

message GetOutputRequest {
  string engine_id = 1;
}

message GetOutputReply {
  string values_json = 1;
  string state = 2;
}

service RuleEngineService {
  rpc Init(InitRequest) returns (InitReply);
  rpc SetInput(SetInputRequest) returns (SetInputReply);
  rpc Tick(TickRequest) returns (TickReply);
  rpc GetOutput(GetOutputRequest) returns (GetOutputReply);
}
`

const ruleEngineServiceName = "rulejitc.host.RuleEngineService"

// loadRuleEngineDescriptor parses ruleEngineProto in-memory via
// protoparse's FileContentsFromMap accessor, the jhump/protoreflect
// equivalent of the teacher's on-disk ParseFiles call.
func loadRuleEngineDescriptor() (*desc.ServiceDescriptor, error) {
	const fname = "ruleengine.proto"
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{fname: ruleEngineProto}),
	}
	fds, err := parser.ParseFiles(fname)
	if err != nil {
		return nil, fmt.Errorf("host: parsing embedded service descriptor: %w", err)
	}
	for _, fd := range fds {
		sd := fd.FindService(ruleEngineServiceName)
		if sd == nil {
			continue
		}
		if err := validateWireShape(sd); err != nil {
			return nil, fmt.Errorf("host: embedded descriptor drifted from its field accessors: %w", err)
		}
		return sd, nil
	}
	return nil, fmt.Errorf("host: %s not found in embedded descriptor", ruleEngineServiceName)
}

// wireKind names the descriptorpb field kind each getXxx/setXxx helper
// in this file assumes; validateWireShape checks the parsed descriptor
// against it once at load time so an edit to ruleEngineProto that
// changes a field's type fails fast at startup instead of producing a
// wrong-typed panic deep inside a live RPC, the same class of check the
// teacher's convertToProtoSingleValue/convertFromProtoSingleValue type
// switches perform per-value on every call.
var wireKind = map[string]descriptorpb.FieldDescriptorProto_Type{
	"document_xml": descriptorpb.FieldDescriptorProto_TYPE_BYTES,
	"engine_id":    descriptorpb.FieldDescriptorProto_TYPE_STRING,
	"values_json":  descriptorpb.FieldDescriptorProto_TYPE_STRING,
	"error":        descriptorpb.FieldDescriptorProto_TYPE_STRING,
	"state":        descriptorpb.FieldDescriptorProto_TYPE_STRING,
	"ok":           descriptorpb.FieldDescriptorProto_TYPE_BOOL,
	"dt":           descriptorpb.FieldDescriptorProto_TYPE_DOUBLE,
}

func validateWireShape(sd *desc.ServiceDescriptor) error {
	for _, m := range sd.GetMethods() {
		for _, msgType := range []*desc.MessageDescriptor{m.GetInputType(), m.GetOutputType()} {
			for _, fd := range msgType.GetFields() {
				want, ok := wireKind[fd.GetName()]
				if !ok {
					continue
				}
				if fd.GetType() != want {
					return fmt.Errorf("field %s.%s: expected %s, got %s",
						msgType.GetName(), fd.GetName(), want, fd.GetType())
				}
			}
		}
	}
	return nil
}

// Server is RuleEngineService's fixed implementation: a registry of
// EngineHandles keyed by the UUID Init hands back, the network-facing
// sibling of the in-process CreateModelObject/registry pair.
type Server struct {
	mu      sync.Mutex
	handles map[string]*EngineHandle
	Log     *rlog.Logger
}

// NewServer builds an empty Server; handles are created lazily, one per
// Init call, mirroring CreateModelObject+Init's in-process sequence.
func NewServer(log *rlog.Logger) *Server {
	return &Server{handles: map[string]*EngineHandle{}, Log: log}
}

func (s *Server) handle(id string) (*EngineHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[id]
	return h, ok
}

// Init allocates a fresh EngineHandle, initializes it from req's
// document bytes, and returns its generated identity.
func (s *Server) Init(req InitRequestArgs) InitReplyArgs {
	h := CreateModelObject()
	cfg := config.Default()
	cfg.DivisionByZeroFails = req.DivisionByZeroFails
	cfg.Verbose = req.Verbose
	ok := h.Init(InitConfig{DocumentXML: req.DocumentXML, Config: cfg, Log: s.Log})
	if !ok {
		errMsg := ""
		if d := h.LastError(); d != nil {
			errMsg = d.Error()
		}
		return InitReplyArgs{Ok: false, Error: errMsg}
	}
	s.mu.Lock()
	s.handles[h.ID.String()] = h
	s.mu.Unlock()
	return InitReplyArgs{Ok: true, EngineID: h.ID.String()}
}

// SetInput decodes req's JSON-encoded value map and stages it on the
// named handle's next Tick.
func (s *Server) SetInput(req SetInputRequestArgs) SetInputReplyArgs {
	h, ok := s.handle(req.EngineID)
	if !ok {
		return SetInputReplyArgs{Ok: false, Error: "unknown engine_id"}
	}
	var values ValueMap
	if err := json.Unmarshal([]byte(req.ValuesJSON), &values); err != nil {
		return SetInputReplyArgs{Ok: false, Error: err.Error()}
	}
	if err := h.SetInput(values); err != nil {
		return SetInputReplyArgs{Ok: false, Error: err.Error()}
	}
	return SetInputReplyArgs{Ok: true}
}

// Tick runs one evaluation cycle on the named handle.
func (s *Server) Tick(req TickRequestArgs) TickReplyArgs {
	h, ok := s.handle(req.EngineID)
	if !ok {
		return TickReplyArgs{Ok: false, Error: "unknown engine_id"}
	}
	if err := h.Tick(req.Dt); err != nil {
		return TickReplyArgs{Ok: false, Error: err.Error(), State: h.State.String()}
	}
	return TickReplyArgs{Ok: true, State: h.State.String()}
}

// GetOutput serializes the named handle's outputs as JSON.
func (s *Server) GetOutput(req GetOutputRequestArgs) GetOutputReplyArgs {
	h, ok := s.handle(req.EngineID)
	if !ok {
		return GetOutputReplyArgs{ValuesJSON: "{}", State: Unspecified.String()}
	}
	out := h.GetOutput()
	b, err := json.Marshal(out)
	if err != nil {
		return GetOutputReplyArgs{ValuesJSON: "{}", State: h.State.String()}
	}
	return GetOutputReplyArgs{ValuesJSON: string(b), State: h.State.String()}
}

// InitRequestArgs etc. are the plain-Go mirrors of the dynamic
// messages' fields, decoded/encoded by the dynamicMessage<->Args
// helpers below rather than generated accessor methods, since these
// messages never get a protoc-compiled Go type.
type (
	InitRequestArgs struct {
		DocumentXML         []byte
		DivisionByZeroFails bool
		Verbose             bool
	}
	InitReplyArgs struct {
		Ok       bool
		Error    string
		EngineID string
	}
	SetInputRequestArgs struct {
		EngineID   string
		ValuesJSON string
	}
	SetInputReplyArgs struct {
		Ok    bool
		Error string
	}
	TickRequestArgs struct {
		EngineID string
		Dt       float64
	}
	TickReplyArgs struct {
		Ok    bool
		Error string
		State string
	}
	GetOutputRequestArgs struct {
		EngineID string
	}
	GetOutputReplyArgs struct {
		ValuesJSON string
		State      string
	}
)

// Serve parses the embedded descriptor, builds RuleEngineService's
// ServiceDesc by hand (grpc.ServiceDesc{ServiceName, HandlerType,
// Methods, Streams, Metadata}, the same shape
// builtinGrpcRegister constructs for a loaded .proto), and blocks
// serving addr.
func Serve(addr string, srv *Server) error {
	sd, err := loadRuleEngineDescriptor()
	if err != nil {
		return err
	}
	gs := grpc.NewServer()
	gs.RegisterService(buildServiceDesc(sd), srv)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return gs.Serve(lis)
}

func buildServiceDesc(sd *desc.ServiceDescriptor) *grpc.ServiceDesc {
	svcDesc := &grpc.ServiceDesc{
		ServiceName: ruleEngineServiceName,
		HandlerType: (*interface{})(nil),
		Metadata:    sd.GetFile().GetName(),
	}
	for _, m := range sd.GetMethods() {
		md := m
		svcDesc.Methods = append(svcDesc.Methods, grpc.MethodDesc{
			MethodName: md.GetName(),
			Handler:    methodHandler(md),
		})
	}
	return svcDesc
}

// methodHandler returns the grpc.MethodHandler for one RuleEngineService
// RPC, dispatching by method name to the matching Server method; this
// mirrors FunxyGrpcHandler.HandleUnary's decode -> dispatch -> encode
// shape but against this package's fixed four methods instead of a
// dynamically looked-up rule-set function.
func methodHandler(md *desc.MethodDescriptor) grpc.MethodHandler {
	return func(srvIface interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
		srv := srvIface.(*Server)
		in := dynamic.NewMessage(md.GetInputType())
		if err := dec(in); err != nil {
			return nil, err
		}
		out := dynamic.NewMessage(md.GetOutputType())

		switch md.GetName() {
		case "Init":
			req := InitRequestArgs{
				DocumentXML:         getBytes(in, "document_xml"),
				DivisionByZeroFails: getBool(in, "division_by_zero_fails"),
				Verbose:             getBool(in, "verbose"),
			}
			reply := srv.Init(req)
			setBool(out, "ok", reply.Ok)
			setString(out, "error", reply.Error)
			setString(out, "engine_id", reply.EngineID)
		case "SetInput":
			req := SetInputRequestArgs{
				EngineID:   getString(in, "engine_id"),
				ValuesJSON: getString(in, "values_json"),
			}
			reply := srv.SetInput(req)
			setBool(out, "ok", reply.Ok)
			setString(out, "error", reply.Error)
		case "Tick":
			req := TickRequestArgs{
				EngineID: getString(in, "engine_id"),
				Dt:       getDouble(in, "dt"),
			}
			reply := srv.Tick(req)
			setBool(out, "ok", reply.Ok)
			setString(out, "error", reply.Error)
			setString(out, "state", reply.State)
		case "GetOutput":
			req := GetOutputRequestArgs{EngineID: getString(in, "engine_id")}
			reply := srv.GetOutput(req)
			setString(out, "values_json", reply.ValuesJSON)
			setString(out, "state", reply.State)
		default:
			return nil, fmt.Errorf("host: unknown method %s", md.GetName())
		}
		return out, nil
	}
}

func getString(m *dynamic.Message, field string) string {
	v, _ := m.TryGetFieldByName(field)
	s, _ := v.(string)
	return s
}

func getBytes(m *dynamic.Message, field string) []byte {
	v, _ := m.TryGetFieldByName(field)
	b, _ := v.([]byte)
	return b
}

func getBool(m *dynamic.Message, field string) bool {
	v, _ := m.TryGetFieldByName(field)
	b, _ := v.(bool)
	return b
}

func getDouble(m *dynamic.Message, field string) float64 {
	v, _ := m.TryGetFieldByName(field)
	f, _ := v.(float64)
	return f
}

func setString(m *dynamic.Message, field, v string) { _ = m.TrySetFieldByName(field, v) }
func setBool(m *dynamic.Message, field string, v bool) { _ = m.TrySetFieldByName(field, v) }
