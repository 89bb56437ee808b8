package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatAge(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "never", FormatAge(time.Time{}, now))
	assert.Equal(t, "just now", FormatAge(now, now))
	assert.Equal(t, "42s ago", FormatAge(now.Add(-42*time.Second), now))
	assert.Equal(t, "5m ago", FormatAge(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", FormatAge(now.Add(-3*time.Hour), now))
	assert.Equal(t, "Oct 17 12:00", FormatAge(now.Add(-48*time.Hour), now))
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "—", FormatCell("  "))
	assert.Equal(t, "a b", FormatCell("a\nb"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "hello", TruncateString("hello", 5))
	assert.Equal(t, "he...", TruncateString("hello world", 5))
	assert.Equal(t, "hé", TruncateString("héllo", 2))
	assert.Equal(t, "", TruncateString("hello", 0))
	assert.Equal(t, "日本...", TruncateString("日本語テキスト", 7))
	assert.Equal(t, "日本語", TruncateString("日本語", 6))
}
