package envutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("EASYDIET_TEST_INT", "abc")
	assert.Equal(t, 7, Int("EASYDIET_TEST_INT", 7))
	t.Setenv("EASYDIET_TEST_INT", " 12 ")
	assert.Equal(t, 12, Int("EASYDIET_TEST_INT", 7))
}

func TestDurationAcceptsSeconds(t *testing.T) {
	t.Setenv("EASYDIET_TEST_DUR", "30")
	assert.Equal(t, 30*time.Second, Duration("EASYDIET_TEST_DUR", time.Second))
	t.Setenv("EASYDIET_TEST_DUR", "1500ms")
	assert.Equal(t, 1500*time.Millisecond, Duration("EASYDIET_TEST_DUR", time.Second))
}

func TestBoolAndList(t *testing.T) {
	t.Setenv("EASYDIET_TEST_BOOL", "off")
	assert.False(t, Bool("EASYDIET_TEST_BOOL", true))
	t.Setenv("EASYDIET_TEST_LIST", "a, ,b")
	assert.Equal(t, []string{"a", "b"}, List("EASYDIET_TEST_LIST", nil))
}
