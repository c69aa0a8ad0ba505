package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "teleops.v1.Correlator"

// Method names served by the correlator.
const (
	MethodCorrelate     = "Correlate"
	MethodHypothesize   = "Hypothesize"
	MethodMatch         = "Match"
	MethodGetLatestRCA  = "GetLatestRCA"
	MethodEvaluate      = "Evaluate"
	MethodOverview      = "Overview"
	MethodListAlerts    = "ListAlerts"
	MethodListIncidents = "ListIncidents"
)

// CorrelatorServer is the server API for the correlator service. Payloads are
// google.protobuf.Struct documents; see the request types in this package.
type CorrelatorServer interface {
	Correlate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Hypothesize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Match(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetLatestRCA(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Overview(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListAlerts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListIncidents(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(CorrelatorServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CorrelatorServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(CorrelatorServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// CorrelatorServiceDesc describes the correlator service for grpc.Server
// registration. Every method exchanges google.protobuf.Struct, so there is no
// service-specific .proto file; reflection lists the service by name only.
var CorrelatorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CorrelatorServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(MethodCorrelate, CorrelatorServer.Correlate),
		unaryHandler(MethodHypothesize, CorrelatorServer.Hypothesize),
		unaryHandler(MethodMatch, CorrelatorServer.Match),
		unaryHandler(MethodGetLatestRCA, CorrelatorServer.GetLatestRCA),
		unaryHandler(MethodEvaluate, CorrelatorServer.Evaluate),
		unaryHandler(MethodOverview, CorrelatorServer.Overview),
		unaryHandler(MethodListAlerts, CorrelatorServer.ListAlerts),
		unaryHandler(MethodListIncidents, CorrelatorServer.ListIncidents),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterCorrelatorServer registers srv on s.
func RegisterCorrelatorServer(s grpc.ServiceRegistrar, srv CorrelatorServer) {
	s.RegisterService(&CorrelatorServiceDesc, srv)
}

// CorrelatorClient calls correlator methods over a client connection.
type CorrelatorClient struct {
	cc grpc.ClientConnInterface
}

// NewCorrelatorClient wraps cc.
func NewCorrelatorClient(cc grpc.ClientConnInterface) *CorrelatorClient {
	return &CorrelatorClient{cc: cc}
}

// Call invokes method with in. A nil in sends an empty document.
func (c *CorrelatorClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
