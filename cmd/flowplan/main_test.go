package main

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/flowplan/internal/logging"
)

type fakeServer struct {
	startErr    error
	shutdownErr error
	stopped     chan struct{}
	shutdowns   int
}

func newFakeServer() *fakeServer { return &fakeServer{stopped: make(chan struct{})} }

func (f *fakeServer) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdowns++
	close(f.stopped)
	return f.shutdownErr
}

func TestServe_GracefulShutdown(t *testing.T) {
	logger := logging.NewTestLogger()
	srv := newFakeServer()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, time.Second, logger.Logger) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down in time")
	}
	assert.Equal(t, 1, srv.shutdowns)
	logger.AssertLogged(t, zapcore.InfoLevel, "shutdown complete")
}

func TestServe_StartFailure(t *testing.T) {
	srv := newFakeServer()
	srv.startErr = errors.New("address already in use")

	err := serve(context.Background(), srv, time.Second, logging.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address already in use")
	assert.Zero(t, srv.shutdowns)
}

func TestServe_ShutdownFailure(t *testing.T) {
	srv := newFakeServer()
	srv.shutdownErr = errors.New("connections still open")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := serve(ctx, srv, time.Second, logging.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown")
}
