// Package grpc exposes the lookup API as a gRPC service built from protobuf
// well-known types, alongside the standard gRPC health service.
package grpc

import (
	"context"

	ggrpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "proxylookup.v1.LookupService"

// LookupServer is the server API of the lookup service.
type LookupServer interface {
	Lookup(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Batch(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// ServiceDesc describes the lookup service for registration.
var ServiceDesc = ggrpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LookupServer)(nil),
	Methods: []ggrpc.MethodDesc{
		{
			MethodName: "Lookup",
			Handler: unary("Lookup", func(s LookupServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
				return s.Lookup(ctx, in)
			}),
		},
		{
			MethodName: "Batch",
			Handler: unary("Batch", func(s LookupServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
				return s.Batch(ctx, in)
			}),
		},
		{
			MethodName: "Status",
			Handler: unary("Status", func(s LookupServer, ctx context.Context, in *emptypb.Empty) (any, error) {
				return s.Status(ctx, in)
			}),
		},
	},
	Streams:  []ggrpc.StreamDesc{},
	Metadata: "proxylookup/v1/lookup.proto",
}

// RegisterLookupServer registers srv on s.
func RegisterLookupServer(s ggrpc.ServiceRegistrar, srv LookupServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// FullMethod returns the full method path used on the wire.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unary[Req any](method string, call func(LookupServer, context.Context, *Req) (any, error)) func(any, context.Context, func(any) error, ggrpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor ggrpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LookupServer), ctx, in)
		}
		info := &ggrpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LookupServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
