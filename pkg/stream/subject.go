package stream

import "strings"

const (
	tokenSeparator = "."
	tokenWildcard  = "*"
	tokenGreedy    = ">"
)

// ValidSubject reports whether s is a well-formed subject: one or more
// non-empty dot-separated tokens, with ">" only in the final position.
func ValidSubject(s string) bool {
	if s == "" {
		return false
	}
	tokens := strings.Split(s, tokenSeparator)
	for i, tok := range tokens {
		if tok == "" {
			return false
		}
		if tok == tokenGreedy && i != len(tokens)-1 {
			return false
		}
		if strings.ContainsAny(tok, " \t\r\n") {
			return false
		}
	}
	return true
}

// MatchSubject reports whether subject matches pattern. Within a pattern,
// "*" matches exactly one token and a trailing ">" matches one or more
// remaining tokens. Literal tokens match themselves. A pattern without
// wildcards matches only the identical subject.
func MatchSubject(pattern, subject string) bool {
	if pattern == subject {
		return true
	}
	pt := strings.Split(pattern, tokenSeparator)
	st := strings.Split(subject, tokenSeparator)

	for i, tok := range pt {
		switch tok {
		case tokenGreedy:
			// ">" must consume at least one token.
			return i < len(st)
		case tokenWildcard:
			if i >= len(st) {
				return false
			}
		default:
			if i >= len(st) || st[i] != tok {
				return false
			}
		}
	}
	return len(pt) == len(st)
}
