package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilLimiterAllows(t *testing.T) {
	var l *Limiter
	assert.True(t, l.Allow(context.Background(), "key", 1, time.Second))
	assert.Nil(t, NewLimiter(nil))
}
