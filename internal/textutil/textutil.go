// Package textutil collects the small string-manipulation helpers shared
// across pipeline stages: UTF-8 safe truncation, line-ending normalization,
// and the kebab-case slug used for section ids.
package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// NormalizeLineEndings rewrites "\r\n" and lone "\r" to "\n". This is the
// first step applied to any source string; no "\r" survives past this
// point.
func NormalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// SafeUTF8Truncate truncates str to at most maxBytes bytes without splitting
// a multi-byte rune.
func SafeUTF8Truncate(str string, maxBytes int) string {
	if len(str) <= maxBytes {
		return str
	}
	for i := maxBytes; i >= 0 && i > maxBytes-4; i-- {
		if utf8.ValidString(str[:i]) {
			return str[:i]
		}
	}
	var b strings.Builder
	for _, r := range str {
		if b.Len()+utf8.RuneLen(r) > maxBytes {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}

// TruncateAtWordBoundary shortens content to about maxBytes, preferring to
// cut at a word boundary rather than mid-word. When fromEnd is true the
// retained portion is the suffix (used when trimming overlap content down to
// the 50% cap) and the cut moves back to the preceding space or newline, so
// the result can be longer than maxBytes; otherwise the retained portion is
// a prefix of at most maxBytes.
func TruncateAtWordBoundary(content string, maxBytes int, fromEnd bool) string {
	if len(content) <= maxBytes || maxBytes <= 0 {
		if maxBytes <= 0 {
			return ""
		}
		return content
	}

	if fromEnd {
		start := len(content) - maxBytes
		start = safeRuneBoundary(content, start, true)
		for start > 0 && start < len(content) {
			if content[start] == ' ' || content[start] == '\n' {
				break
			}
			start--
		}
		return strings.TrimSpace(content[start:])
	}

	end := safeRuneBoundary(content, maxBytes, false)
	if idx := strings.LastIndexAny(content[:end], " \n"); idx > end/2 {
		end = idx
	}
	return strings.TrimSpace(content[:end])
}

// safeRuneBoundary nudges an arbitrary byte index to the nearest rune
// boundary, scanning forward when advancing is true and backward otherwise.
func safeRuneBoundary(s string, idx int, advancing bool) int {
	if idx <= 0 {
		return 0
	}
	if idx >= len(s) {
		return len(s)
	}
	for idx > 0 && idx < len(s) && !utf8.RuneStart(s[idx]) {
		if advancing {
			idx++
		} else {
			idx--
		}
	}
	return idx
}

// SanitizeUTF8 drops invalid byte sequences so downstream JSON encoding
// never chokes on malformed input.
func SanitizeUTF8(str string) string {
	if utf8.ValidString(str) {
		return str
	}
	var buf strings.Builder
	buf.Grow(len(str))
	for len(str) > 0 {
		r, size := utf8.DecodeRuneInString(str)
		if r == utf8.RuneError && size == 1 {
			str = str[1:]
			continue
		}
		buf.WriteRune(r)
		str = str[size:]
	}
	return buf.String()
}

var kebabNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Kebab lowercases s, replaces runs of non-alphanumeric characters with a
// single hyphen, and trims leading/trailing hyphens.
func Kebab(s string) string {
	lower := strings.ToLower(s)
	slug := kebabNonAlnum.ReplaceAllString(lower, "-")
	return strings.Trim(slug, "-")
}

// SentenceBoundary is exported so the chunker's sentence sub-splitters can
// partition a block's exact byte offsets at the same boundaries.
var SentenceBoundary = regexp.MustCompile(`[.!?。！？]+[\"'”’)\]]*\s+`)

// SplitSentences splits text on sentence-ending punctuation, tolerating a
// trailing closing quote/parenthesis before the whitespace, per the
// Unicode-aware trailing-quote handling required of the sentence fallback
// strategy.
func SplitSentences(text string) []string {
	locs := SentenceBoundary.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var out []string
	start := 0
	for _, loc := range locs {
		sentence := strings.TrimSpace(text[start:loc[1]])
		if sentence != "" {
			out = append(out, sentence)
		}
		start = loc[1]
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// IsTrivialLine reports whether a line is too short to count toward line
// recall (length < 20 after whitespace normalization).
func IsTrivialLine(line string) bool {
	normalized := strings.Join(strings.Fields(line), " ")
	return utf8.RuneCountInString(normalized) < 20
}

// NormalizeLine collapses internal whitespace runs for recall comparison.
func NormalizeLine(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

var (
	backtickFenceLine = regexp.MustCompile("^`{3,}")
	tildeFenceLine    = regexp.MustCompile("^~{3,}")
)

// CountFences counts lines that look like a fence delimiter (open or close)
// for the given fence character, for the code-fence-balance invariant.
func CountFences(content string, fenceChar rune) int {
	pattern := backtickFenceLine
	if fenceChar == '~' {
		pattern = tildeFenceLine
	}
	count := 0
	for _, line := range strings.Split(content, "\n") {
		if pattern.MatchString(strings.TrimSpace(line)) {
			count++
		}
	}
	return count
}
