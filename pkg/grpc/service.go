package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// The service carries google.protobuf.Struct both ways, so no generated stubs are needed:
//
//	service AnchorService {
//	  rpc UploadToChain(google.protobuf.Struct) returns (google.protobuf.Struct);
//	  rpc ConfirmTransaction(google.protobuf.Struct) returns (google.protobuf.Struct);
//	  rpc GetUploadStats(google.protobuf.Struct) returns (google.protobuf.Struct);
//	}
const (
	ServiceName = "anchor.v1.AnchorService"

	UploadToChainFullMethod      = "/" + ServiceName + "/UploadToChain"
	ConfirmTransactionFullMethod = "/" + ServiceName + "/ConfirmTransaction"
	GetUploadStatsFullMethod     = "/" + ServiceName + "/GetUploadStats"
)

type AnchorServiceServer interface {
	UploadToChain(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ConfirmTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetUploadStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structMethod func(srv AnchorServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structMethod) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AnchorServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AnchorServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var AnchorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnchorServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "UploadToChain",
			Handler:    unaryHandler(UploadToChainFullMethod, AnchorServiceServer.UploadToChain),
		},
		{
			MethodName: "ConfirmTransaction",
			Handler:    unaryHandler(ConfirmTransactionFullMethod, AnchorServiceServer.ConfirmTransaction),
		},
		{
			MethodName: "GetUploadStats",
			Handler:    unaryHandler(GetUploadStatsFullMethod, AnchorServiceServer.GetUploadStats),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "anchor/v1/anchor.proto",
}

func RegisterAnchorServiceServer(s grpc.ServiceRegistrar, srv AnchorServiceServer) {
	s.RegisterService(&AnchorServiceDesc, srv)
}

type AnchorServiceClient interface {
	UploadToChain(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ConfirmTransaction(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetUploadStats(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type anchorServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAnchorServiceClient(cc grpc.ClientConnInterface) AnchorServiceClient {
	return &anchorServiceClient{cc: cc}
}

func (c *anchorServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *anchorServiceClient) UploadToChain(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, UploadToChainFullMethod, in, opts...)
}

func (c *anchorServiceClient) ConfirmTransaction(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ConfirmTransactionFullMethod, in, opts...)
}

func (c *anchorServiceClient) GetUploadStats(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GetUploadStatsFullMethod, in, opts...)
}
