package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climatica/climatica/internal/database"
)

type fakePinger struct {
	err   error
	calls int
}

func (f *fakePinger) Ping(_ context.Context) error {
	f.calls++
	return f.err
}

func TestHealthChecker_Healthy(t *testing.T) {
	p := &fakePinger{}
	hc := database.NewHealthChecker(p, database.HealthConfig{})

	require.NoError(t, hc.Check(context.Background()))
	assert.Equal(t, gobreaker.StateClosed, hc.State())
	assert.Equal(t, 1, p.calls)
}

func TestHealthChecker_OpensAfterConsecutiveFailures(t *testing.T) {
	p := &fakePinger{err: errors.New("connection refused")}
	hc := database.NewHealthChecker(p, database.HealthConfig{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := hc.Check(ctx)
		require.Error(t, err)
		assert.NotErrorIs(t, err, database.ErrCircuitOpen)
	}

	assert.Equal(t, gobreaker.StateOpen, hc.State())

	err := hc.Check(ctx)
	assert.ErrorIs(t, err, database.ErrCircuitOpen)
	assert.Equal(t, 3, p.calls, "open breaker must not ping")
}

func TestIsUniqueViolation_NonPgError(t *testing.T) {
	assert.False(t, database.IsUniqueViolation(errors.New("boom"), ""))
	assert.False(t, database.IsUniqueViolation(nil, "accounts_email_key"))
}

func TestConnect_RejectsBadDSN(t *testing.T) {
	log := zerolog.Nop()

	_, err := database.ConnectWithRetry(context.Background(), database.Config{}, log)
	assert.ErrorIs(t, err, database.ErrEmptyDSN)

	_, err = database.ConnectWithRetry(context.Background(), database.Config{
		DSN:            "postgres://climatica@localhost:notaport/climatica",
		ConnectTimeout: time.Minute,
	}, log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse connection string")
}
