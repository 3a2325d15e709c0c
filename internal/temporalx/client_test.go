package temporalx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

func TestClampBackoff(t *testing.T) {
	assert.Equal(t, 250*time.Millisecond, clampBackoff(0, time.Second, 1))
	assert.Equal(t, 400*time.Millisecond, clampBackoff(100*time.Millisecond, time.Second, 3))
	assert.Equal(t, time.Second, clampBackoff(100*time.Millisecond, time.Second, 10))
}

func TestIsRetryableRPC(t *testing.T) {
	assert.True(t, isRetryableRPC(status.Error(codes.Unavailable, "down")))
	assert.False(t, isRetryableRPC(status.Error(codes.PermissionDenied, "no")))
	assert.True(t, isRetryableRPC(context.DeadlineExceeded))
	assert.False(t, isRetryableRPC(errors.New("x")))
	assert.False(t, isRetryableRPC(nil))
}

func TestNewClientDisabledWithoutAddress(t *testing.T) {
	c, err := NewClient(Config{}, logger.Nop())
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("TEMPORAL_ADDRESS", "")
	t.Setenv("TEMPORAL_NAMESPACE", "")
	t.Setenv("TEMPORAL_TASK_QUEUE", "custom")
	cfg := LoadConfig()
	assert.Equal(t, "easydiet", cfg.Namespace)
	assert.Equal(t, "custom", cfg.TaskQueue)
	assert.False(t, cfg.tlsEnabled())
}

func TestLoadTLSConfigRequiresPair(t *testing.T) {
	_, err := loadTLSConfig(Config{ClientCAPath: "/tmp/ca.pem"})
	require.Error(t, err)
}
