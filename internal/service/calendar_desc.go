package service

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const CalendarServiceName = "availability.v1.CalendarService"

// CalendarServer: RPC календаря. Сообщения имеют тип google.protobuf.Struct,
// поля описаны у каждого метода реализации.
type CalendarServer interface {
	ListFreeSlots(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CheckBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CreateBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CancelBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(srv CalendarServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CalendarServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CalendarServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// FullMethod: "ListFreeSlots" -> "/availability.v1.CalendarService/ListFreeSlots".
func FullMethod(method string) string {
	return "/" + CalendarServiceName + "/" + method
}

var CalendarServiceDesc = grpc.ServiceDesc{
	ServiceName: CalendarServiceName,
	HandlerType: (*CalendarServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListFreeSlots",
			Handler: unaryHandler("ListFreeSlots", func(s CalendarServer, ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
				return s.ListFreeSlots(ctx, r)
			}),
		},
		{
			MethodName: "CheckBooking",
			Handler: unaryHandler("CheckBooking", func(s CalendarServer, ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
				return s.CheckBooking(ctx, r)
			}),
		},
		{
			MethodName: "CreateBooking",
			Handler: unaryHandler("CreateBooking", func(s CalendarServer, ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
				return s.CreateBooking(ctx, r)
			}),
		},
		{
			MethodName: "CancelBooking",
			Handler: unaryHandler("CancelBooking", func(s CalendarServer, ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
				return s.CancelBooking(ctx, r)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "availability/v1/calendar.proto",
}

func RegisterCalendarServer(s grpc.ServiceRegistrar, srv CalendarServer) {
	s.RegisterService(&CalendarServiceDesc, srv)
}
