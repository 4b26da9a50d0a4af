// Package changelog narrows a changelog to the section for one version.
//
// The document is parsed with goldmark so that "#" lines inside fenced code
// blocks are never mistaken for headings. The section starts at the first
// top-level heading whose text contains the version as a whole token and
// runs up to the next heading of the same or a higher level.
package changelog

import (
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// heading is a document-level heading with the byte offset of its first line.
type heading struct {
	level int
	start int
	text  string
}

// Trim returns the section of content for version. If no heading mentions
// the version, content is returned unchanged. Trim is idempotent.
func Trim(content, version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		return content
	}

	src := []byte(content)
	headings := headings(src)

	for i, h := range headings {
		if !containsToken(h.text, version) {
			continue
		}
		end := len(src)
		for _, next := range headings[i+1:] {
			if next.level <= h.level {
				end = next.start
				break
			}
		}
		return content[h.start:end]
	}
	return content
}

// Headings lists the document-level heading texts, for diagnostics.
func Headings(content string) []string {
	hs := headings([]byte(content))
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.text
	}
	return out
}

func headings(src []byte) []heading {
	doc := markdown.Parser().Parse(text.NewReader(src))

	var out []heading
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		lines := h.Lines()
		var sb strings.Builder
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			sb.Write(seg.Value(src))
		}
		out = append(out, heading{
			level: h.Level,
			start: lineStart(src, lines.At(0).Start),
			text:  strings.TrimSpace(sb.String()),
		})
	}
	return out
}

func lineStart(src []byte, pos int) int {
	for pos > 0 && src[pos-1] != '\n' {
		pos--
	}
	return pos
}

// containsToken reports whether s contains version delimited on both sides.
// A leading "v" is accepted ("v1.2.0" matches "1.2.0"), but a longer version
// ("1.2.0.1", "11.2.0", "1.2.0-rc.1") is not a match.
func containsToken(s, version string) bool {
	for from := 0; ; {
		i := strings.Index(s[from:], version)
		if i < 0 {
			return false
		}
		i += from
		end := i + len(version)
		if boundaryBefore(s, i) && boundaryAfter(s, end) {
			return true
		}
		from = i + 1
	}
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	c := s[i-1]
	if c == 'v' || c == 'V' {
		return i == 1 || !isWordByte(s[i-2])
	}
	return !isWordByte(c) && c != '.' && c != '-' && c != '+'
}

func boundaryAfter(s string, end int) bool {
	if end == len(s) {
		return true
	}
	c := s[end]
	if isWordByte(c) {
		return false
	}
	if c == '.' || c == '-' || c == '+' {
		return end+1 == len(s) || !isWordByte(s[end+1])
	}
	return true
}

func isWordByte(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

// IsChangelog reports whether a repository path names a changelog.
func IsChangelog(p string) bool {
	base := strings.ToLower(path.Base(p))
	base = strings.TrimSuffix(base, path.Ext(base))
	switch base {
	case "changelog", "changes", "history", "news", "releases", "release-notes", "release_notes":
		return true
	}
	return false
}
