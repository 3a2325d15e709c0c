package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfUnwrapsChains(t *testing.T) {
	base := E(NotFound, "jobs.Get", errors.New("job missing"))
	wrapped := fmt.Errorf("service: %w", base)
	assert.Equal(t, NotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, NotFound))
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
	assert.Equal(t, "jobs.Get: job missing", base.Error())
}

func TestKindStatusAndRetry(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, InvalidInput.Status())
	assert.Equal(t, http.StatusBadGateway, MalformedAIResponse.Status())
	assert.False(t, NotFound.Retryable())
	assert.True(t, PersistenceFailure.Retryable())
	assert.True(t, ValidationFailure.Retryable())
}
