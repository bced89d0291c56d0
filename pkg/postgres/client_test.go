package postgres

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/wellness-engine/pkg/config"
)

func testPool() *Pool {
	return NewClient(config.NewConfig(), slog.New(slog.NewTextHandler(io.Discard, nil))).(*Pool)
}

func TestPool_NotConnected(t *testing.T) {
	p := testPool()
	ctx := context.Background()

	_, err := p.Exec(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = p.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrNotConnected)

	called := false
	err = p.Transaction(ctx, func(*sql.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.False(t, called)

	status, err := p.HealthCheck(ctx)
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.Equal(t, "wellness", status.Database)
	assert.Equal(t, ErrNotConnected.Error(), status.Error)
}

func TestPool_DisconnectIsIdempotent(t *testing.T) {
	p := testPool()
	assert.NoError(t, p.Disconnect())
	assert.NoError(t, p.Disconnect())
}

func TestPool_ConnectStopsOnCancelledContext(t *testing.T) {
	p := testPool()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Connect(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = p.Exec(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrNotConnected)
}
