package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeChannelURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"handle", "@bbc", "https://www.youtube.com/@bbc/videos"},
		{"handle with spaces", "  @france24 ", "https://www.youtube.com/@france24/videos"},
		{"full url without videos", "https://www.youtube.com/@bbc", "https://www.youtube.com/@bbc/videos"},
		{"full url trailing slash", "https://www.youtube.com/@bbc/", "https://www.youtube.com/@bbc/videos"},
		{"already normalized", "https://www.youtube.com/@LeFatShow/videos", "https://www.youtube.com/@LeFatShow/videos"},
		{"channel id url", "https://www.youtube.com/channel/UC123", "https://www.youtube.com/channel/UC123/videos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeChannelURL(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeChannelURL_Empty(t *testing.T) {
	_, err := NormalizeChannelURL("   ")
	assert.ErrorIs(t, err, ErrEmptyChannel)
}

func TestParseChannelRef(t *testing.T) {
	tests := []struct {
		input string
		want  ChannelRef
	}{
		{"https://www.youtube.com/@bbc/videos", ChannelRef{Handle: "@bbc"}},
		{"https://www.youtube.com/channel/UCabc/videos", ChannelRef{ID: "UCabc"}},
		{"https://www.youtube.com/c/SomeName/videos", ChannelRef{Name: "SomeName"}},
		{"https://www.youtube.com/user/legacy/videos", ChannelRef{Name: "legacy"}},
		{"https://www.youtube.com/bare/videos", ChannelRef{Name: "bare"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseChannelRef(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseChannelRef("https://www.youtube.com/")
	assert.ErrorIs(t, err, ErrEmptyChannel)
}

func TestNewVideoTasks(t *testing.T) {
	tasks := NewVideoTasks([]string{"a", "b", "c"})

	require.Len(t, tasks, 3)
	for i, task := range tasks {
		assert.Equal(t, i, task.Order)
	}
	assert.Equal(t, "c", tasks[2].ID)
}

func TestWatchURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", WatchURL("dQw4w9WgXcQ"))
}
