// Package jsonx decodes the loosely structured JSON that language models
// emit. Models wrap payloads in markdown fences, prepend prose, or leave
// trailing commas; each repair here is a pure transform tried in fixed order
// until one yields valid JSON or all fail.
package jsonx

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when no repair strategy produced valid JSON.
var ErrNoJSON = errors.New("jsonx: no decodable JSON found")

// Decode tries to unmarshal raw into v, applying repair layers in order:
// verbatim, fence-stripped, outermost balanced object/array, and finally
// trailing-comma removal on each prior candidate.
func Decode(raw string, v any) error {
	candidates := Candidates(raw)
	for _, c := range candidates {
		if json.Unmarshal([]byte(c), v) == nil {
			return nil
		}
	}
	for _, c := range candidates {
		repaired := StripTrailingCommas(c)
		if repaired != c && json.Unmarshal([]byte(repaired), v) == nil {
			return nil
		}
	}
	return ErrNoJSON
}

// Candidates returns the ordered candidate strings Decode will attempt,
// without the trailing-comma repair pass. Exposed for tests.
func Candidates(raw string) []string {
	raw = strings.TrimSpace(raw)
	out := []string{raw}
	if fenced := StripFences(raw); fenced != raw {
		out = append(out, fenced)
	}
	if balanced := OutermostBalanced(raw); balanced != "" && balanced != raw {
		out = append(out, balanced)
	}
	return out
}

// StripFences removes a surrounding markdown code fence, tolerating a
// language tag after the opening backticks. Input without fences is
// returned unchanged.
func StripFences(s string) string {
	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}
	rest := s[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Drop a language tag like "json" on the fence line.
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine == "" || !strings.ContainsAny(firstLine, "{}[]") {
			rest = rest[nl+1:]
		}
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// OutermostBalanced returns the first balanced top-level JSON object or
// array embedded in s, or "" when none exists. Braces inside string
// literals are ignored.
func OutermostBalanced(s string) string {
	open := strings.IndexAny(s, "{[")
	if open < 0 {
		return ""
	}
	var close byte = '}'
	if s[open] == '[' {
		close = ']'
	}
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
			// skip structural chars inside strings
		case ch == s[open]:
			depth++
		case ch == close:
			depth--
			if depth == 0 {
				return s[open : i+1]
			}
		}
	}
	return ""
}

// StripTrailingCommas removes commas that directly precede a closing brace
// or bracket, a common model output defect. String literals are preserved.
func StripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if escaped {
			b.WriteByte(ch)
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			b.WriteByte(ch)
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			b.WriteByte(ch)
			continue
		}
		if ch == ',' && !inString {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue // drop the comma
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}
