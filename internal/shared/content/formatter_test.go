package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTags(t *testing.T) {
	f := NewFormatter()

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "single tag",
			content: "hello #world",
			want:    []string{"world"},
		},
		{
			name:    "tag at start",
			content: "#first post",
			want:    []string{"first"},
		},
		{
			name:    "lowercased and deduplicated",
			content: "#Go and #go and #GO",
			want:    []string{"go"},
		},
		{
			name:    "multiple tags sorted",
			content: "#zebra then #alpha",
			want:    []string{"alpha", "zebra"},
		},
		{
			name:    "glued tags are not tags",
			content: "#testtag#this",
			want:    []string{},
		},
		{
			name:    "trailing underscore disqualifies",
			content: "#tag_name",
			want:    []string{},
		},
		{
			name:    "digits are not part of tags",
			content: "#tag2",
			want:    []string{},
		},
		{
			name:    "punctuation terminates a tag",
			content: "ends with #done.",
			want:    []string{"done"},
		},
		{
			name:    "no tags",
			content: "plain text without anything",
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.ExtractTags(tt.content))
		})
	}
}

func TestExtractMentions(t *testing.T) {
	f := NewFormatter()

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "single mention",
			content: "hi @alice",
			want:    []string{"alice"},
		},
		{
			name:    "mention with digits",
			content: "ping @user42",
			want:    []string{"user42"},
		},
		{
			name:    "casing preserved",
			content: "hello @Alice",
			want:    []string{"Alice"},
		},
		{
			name:    "underscore disqualifies",
			content: "@not_a_mention",
			want:    []string{},
		},
		{
			name:    "deduplicated",
			content: "@bob and @bob again",
			want:    []string{"bob"},
		},
		{
			name:    "mention at start",
			content: "@carol hello",
			want:    []string{"carol"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.ExtractMentions(tt.content))
		})
	}
}

func TestFormat(t *testing.T) {
	f := NewFormatter()

	t.Run("tag becomes link with lowercase href", func(t *testing.T) {
		out, err := f.Format("check #GoLang")
		require.NoError(t, err)
		assert.Contains(t, out, `<a href="/entries/tag/golang">#GoLang</a>`)
	})

	t.Run("mention becomes profile link", func(t *testing.T) {
		out, err := f.Format("thanks @alice")
		require.NoError(t, err)
		assert.Contains(t, out, `<a href="/users/alice">@alice</a>`)
	})

	t.Run("markdown is rendered", func(t *testing.T) {
		out, err := f.Format("some **bold** text")
		require.NoError(t, err)
		assert.Contains(t, out, "<strong>bold</strong>")
	})

	t.Run("script tags are stripped", func(t *testing.T) {
		out, err := f.Format(`hello <script>alert("x")</script> world`)
		require.NoError(t, err)
		assert.NotContains(t, out, "<script>")
	})

	t.Run("disallowed attributes are stripped", func(t *testing.T) {
		out, err := f.Format(`<p onclick="evil()">text</p>`)
		require.NoError(t, err)
		assert.NotContains(t, out, "onclick")
		assert.Contains(t, out, "text")
	})
}

func TestSanitize(t *testing.T) {
	f := NewFormatter()

	t.Run("keeps allowed elements", func(t *testing.T) {
		assert.Equal(t, "<em>deleted</em>", f.Sanitize("<em>deleted</em>"))
	})

	t.Run("strips event handlers", func(t *testing.T) {
		out := f.Sanitize(`<a href="/x" onmouseover="evil()">link</a>`)
		assert.NotContains(t, out, "onmouseover")
	})

	t.Run("idempotent on clean content", func(t *testing.T) {
		clean := f.Sanitize("<p>plain <b>bold</b></p>")
		assert.Equal(t, clean, f.Sanitize(clean))
	})
}
