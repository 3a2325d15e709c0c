package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luisquicidev/easydiet-backend/internal/platform/ctxutil"
)

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(&StatusError{StatusCode: 429}))
	assert.True(t, IsRetryableError(fmt.Errorf("wrapped: %w", &StatusError{StatusCode: 503})))
	assert.False(t, IsRetryableError(&StatusError{StatusCode: 401}))
	assert.True(t, IsRetryableError(context.DeadlineExceeded))
	assert.False(t, IsRetryableError(context.Canceled))
	assert.False(t, IsRetryableError(errors.New("boom")))
	assert.False(t, IsRetryableError(nil))
}

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Key") != "k" {
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"slow down"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	raw, err := PostJSON(context.Background(), srv.Client(), "test", srv.URL, map[string]string{"X-Key": "k"}, map[string]any{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))

	_, err = PostJSON(context.Background(), srv.Client(), "test", srv.URL, nil, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, 3*time.Second, se.RetryAfter)
}

func TestPostJSONForwardsRequestID(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(HeaderRequestID)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx := ctxutil.WithTraceData(context.Background(), &ctxutil.TraceData{RequestID: "req-42"})
	_, err := PostJSON(ctx, srv.Client(), "test", srv.URL, nil, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "req-42", got)
}

func TestJitterSleepBounds(t *testing.T) {
	assert.Zero(t, JitterSleep(0))
	for i := 0; i < 50; i++ {
		d := JitterSleep(time.Second)
		assert.GreaterOrEqual(t, d, 800*time.Millisecond)
		assert.LessOrEqual(t, d, 1200*time.Millisecond)
	}
}
