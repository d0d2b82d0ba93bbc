package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedClock(t *testing.T) {
	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewFixedClock(start)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start, c.Now(), "reads do not advance the clock")

	c.Advance(48 * time.Hour)
	assert.Equal(t, start.Add(48*time.Hour), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}
