package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		age  time.Duration
		want string
	}{
		{"zero", 0, "Just now"},
		{"thirty seconds", 30 * time.Second, "Just now"},
		{"just under a minute", 59 * time.Second, "Just now"},
		{"one minute", time.Minute, "1m ago"},
		{"truncates minutes", 7*time.Minute + 59*time.Second, "7m ago"},
		{"fifty-nine minutes", 59 * time.Minute, "59m ago"},
		{"ninety minutes", 90 * time.Minute, "1h ago"},
		{"twenty-three hours", 23*time.Hour + 59*time.Minute, "23h ago"},
		{"one day", 24 * time.Hour, "1d ago"},
		{"three days", 3 * 24 * time.Hour, "3d ago"},
		{"forty days", 40 * 24 * time.Hour, "40d ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeTime(now, now.Add(-tt.age)))
		})
	}
}

func TestBadgeCount(t *testing.T) {
	assert.Equal(t, "", BadgeCount(0))
	assert.Equal(t, "1", BadgeCount(1))
	assert.Equal(t, "9", BadgeCount(9))
	assert.Equal(t, "9+", BadgeCount(10))
	assert.Equal(t, "9+", BadgeCount(250))
}
