package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryDelayPerAttempt(t *testing.T) {
	assert.Equal(t, 1*time.Minute, RetryDelay(0))
	assert.Equal(t, 1*time.Minute, RetryDelay(1))
	assert.Equal(t, 5*time.Minute, RetryDelay(2))
	assert.Equal(t, 15*time.Minute, RetryDelay(3))
	assert.Equal(t, 1*time.Hour, RetryDelay(4))
}

func TestRetryDelayClampsOutOfRange(t *testing.T) {
	assert.Equal(t, 1*time.Minute, RetryDelay(-3))
	assert.Equal(t, 1*time.Hour, RetryDelay(99))
}
