package extractors

import (
	"regexp"
	"strings"
)

// splitPatterns are applied in order. Each one separates what the layout
// engine glued into a single fragment.
var splitPatterns = []*regexp.Regexp{
	// two numbers separated by whitespace
	regexp.MustCompile(`(\d[\d,.]+)\s+(\d[\d,.]+)`),
	// a label directly followed by a number
	regexp.MustCompile(`(\p{L}+[\p{L}\s]+)(\d[\d,.]+)`),
}

// SplitTokens splits a text fragment into independent cells. Every pass
// re-splits all current tokens; captured groups and the text around them
// become tokens, trimmed, with empty ones dropped. Repeated values are kept.
func SplitTokens(text string) []string {
	tokens := []string{text}

	for _, re := range splitPatterns {
		var next []string
		for _, token := range tokens {
			if !re.MatchString(token) {
				next = append(next, token)
				continue
			}
			next = append(next, splitKeepGroups(re, token)...)
		}
		tokens = next
	}

	out := tokens[:0]
	for _, token := range tokens {
		if token = strings.TrimSpace(token); token != "" {
			out = append(out, token)
		}
	}
	return out
}

// splitKeepGroups splits s around every match of re and keeps the captured
// groups in place of the match
func splitKeepGroups(re *regexp.Regexp, s string) []string {
	var parts []string
	last := 0

	for _, m := range re.FindAllStringSubmatchIndex(s, -1) {
		parts = appendTrimmed(parts, s[last:m[0]])
		for g := 2; g+1 < len(m); g += 2 {
			if m[g] >= 0 {
				parts = appendTrimmed(parts, s[m[g]:m[g+1]])
			}
		}
		last = m[1]
	}
	return appendTrimmed(parts, s[last:])
}

func appendTrimmed(parts []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		parts = append(parts, s)
	}
	return parts
}
