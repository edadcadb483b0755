package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// hangingServer повторяет поведение grpc.Server: GracefulStop ждёт,
// пока не завершатся RPC или не будет вызван Stop.
type hangingServer struct {
	stopped chan struct{}
	hard    atomic.Bool
}

func (s *hangingServer) GracefulStop() { <-s.stopped }

func (s *hangingServer) Stop() {
	s.hard.Store(true)
	close(s.stopped)
}

type quickServer struct{ hard atomic.Bool }

func (s *quickServer) GracefulStop() {}
func (s *quickServer) Stop()         { s.hard.Store(true) }

func TestStopGRPC_ForcesStopAfterDeadline(t *testing.T) {
	srv := &hangingServer{stopped: make(chan struct{})}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		stopGRPC(ctx, srv, zap.NewNop())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stopGRPC did not return after the deadline")
	}
	assert.True(t, srv.hard.Load())
}

func TestStopGRPC_GracefulWithinDeadline(t *testing.T) {
	srv := &quickServer{}
	stopGRPC(context.Background(), srv, zap.NewNop())
	assert.False(t, srv.hard.Load())
}
