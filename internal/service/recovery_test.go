package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestRecoveryInterceptor(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	intercept := RecoveryInterceptor(zap.New(core))
	info := &grpc.UnaryServerInfo{FullMethod: FullMethod("ListFreeSlots")}

	resp, err := intercept(context.Background(), nil, info, func(context.Context, any) (any, error) {
		var items []int
		return items[3], nil
	})
	assert.Nil(t, resp)
	assert.Equal(t, codes.Internal, status.Code(err))
	if assert.Equal(t, 1, logs.Len()) {
		assert.Equal(t, "grpc.panic", logs.All()[0].Message)
		assert.Equal(t, info.FullMethod, logs.All()[0].ContextMap()["method"])
	}

	resp, err = intercept(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "ok", resp)
}
