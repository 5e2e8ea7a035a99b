package content

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Tag and mention tokens are matched at word boundaries. A token
// immediately followed by '_', '#' or another letter is not a token,
// so "#testtag#this" yields no tags at all.
var (
	tagPattern     = regexp2.MustCompile(`(\W|^)(#)([a-zA-Z]+\b)(?![a-zA-Z_#])`, regexp2.None)
	mentionPattern = regexp2.MustCompile(`(\W|^)(@)([a-zA-Z0-9]+\b)(?![a-zA-Z0-9_#])`, regexp2.None)
)

// Formatter renders user-submitted entry content into safe HTML. Tags
// and mentions become links, the result goes through markdown and is
// sanitized against an allow-list.
type Formatter struct {
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
	strict   *bluemonday.Policy
}

func NewFormatter() *Formatter {
	policy := bluemonday.NewPolicy()
	policy.AllowElements(
		"h1", "h2", "h3", "h4", "h5", "h6",
		"b", "i", "hr",
		"table", "thead", "tbody", "tr", "th", "td",
		"strong", "em", "tt",
		"p", "pre", "br", "span",
		"blockquote", "code",
		"ul", "ol", "li", "dd", "dt",
	)
	policy.AllowAttrs("href", "alt", "title").OnElements("a")
	policy.AllowAttrs("class").OnElements("code")

	return &Formatter{
		// Raw HTML passes through the renderer so tag and mention
		// links survive; the sanitizer strips anything unsafe after.
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		policy: policy,
		strict: bluemonday.StrictPolicy(),
	}
}

// ExtractTags returns the distinct lowercased tag names found in raw
// content, sorted for deterministic output.
func (f *Formatter) ExtractTags(content string) []string {
	seen := make(map[string]struct{})

	m, _ := tagPattern.FindStringMatch(content)
	for m != nil {
		name := strings.ToLower(m.GroupByNumber(3).String())
		seen[name] = struct{}{}
		m, _ = tagPattern.FindNextMatch(m)
	}

	tags := make([]string, 0, len(seen))
	for name := range seen {
		tags = append(tags, name)
	}
	sort.Strings(tags)
	return tags
}

// ExtractMentions returns the distinct usernames mentioned in raw
// content, in the casing they were written, sorted.
func (f *Formatter) ExtractMentions(content string) []string {
	seen := make(map[string]struct{})

	m, _ := mentionPattern.FindStringMatch(content)
	for m != nil {
		seen[m.GroupByNumber(3).String()] = struct{}{}
		m, _ = mentionPattern.FindNextMatch(m)
	}

	mentions := make([]string, 0, len(seen))
	for name := range seen {
		mentions = append(mentions, name)
	}
	sort.Strings(mentions)
	return mentions
}

// Format renders raw content to sanitized HTML:
// 1. Replace #tags with links to the tag feed.
// 2. Replace @mentions with links to the user profile.
// 3. Render markdown.
// 4. Sanitize the result.
func (f *Formatter) Format(content string) (string, error) {
	linked, err := replaceAll(tagPattern, content, func(m *regexp2.Match) string {
		lead := m.GroupByNumber(1).String()
		name := m.GroupByNumber(3).String()
		return fmt.Sprintf(`%s<a href="/entries/tag/%s">#%s</a>`, lead, strings.ToLower(name), name)
	})
	if err != nil {
		return "", fmt.Errorf("failed to link tags: %w", err)
	}

	linked, err = replaceAll(mentionPattern, linked, func(m *regexp2.Match) string {
		lead := m.GroupByNumber(1).String()
		name := m.GroupByNumber(3).String()
		return fmt.Sprintf(`%s<a href="/users/%s">@%s</a>`, lead, name, name)
	})
	if err != nil {
		return "", fmt.Errorf("failed to link mentions: %w", err)
	}

	var buf bytes.Buffer
	if err := f.markdown.Convert([]byte(linked), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}

	return f.policy.Sanitize(buf.String()), nil
}

// Sanitize strips disallowed HTML from raw content without rendering
// markdown. Used for the stored raw form of an entry.
func (f *Formatter) Sanitize(content string) string {
	return f.policy.Sanitize(content)
}

// StripTags removes every HTML element, leaving plain text. Used for
// content that is never rendered as HTML, like private messages.
func (f *Formatter) StripTags(content string) string {
	return f.strict.Sanitize(content)
}

func replaceAll(re *regexp2.Regexp, input string, repl func(*regexp2.Match) string) (string, error) {
	return re.ReplaceFunc(input, func(m regexp2.Match) string {
		return repl(&m)
	}, -1, -1)
}
