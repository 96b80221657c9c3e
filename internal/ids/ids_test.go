package ids

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtIsMonotonicWithinMillisecond(t *testing.T) {
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	got := make([]string, 100)
	for i := range got {
		got[i] = At(at)
	}
	assert.True(t, sort.StringsAreSorted(got))
	for i := 1; i < len(got); i++ {
		require.NotEqual(t, got[i-1], got[i])
	}
}

func TestAtOrdersByTime(t *testing.T) {
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	later := At(at.Add(time.Millisecond))
	earlier := At(at)
	assert.Less(t, earlier, later)
	assert.Len(t, New(), 26)
}
