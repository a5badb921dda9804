package notification

import (
	"net/mail"
	"strings"
)

// ResolveRecipient returns the first candidate that parses as an address
// with a dotted domain, or "" when none does.
func ResolveRecipient(candidates ...string) string {
	for _, c := range candidates {
		if addr, ok := plausibleAddress(c); ok {
			return addr
		}
	}
	return ""
}

func plausibleAddress(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	parsed, err := mail.ParseAddress(s)
	if err != nil {
		return "", false
	}

	at := strings.LastIndex(parsed.Address, "@")
	if at <= 0 {
		return "", false
	}
	domain := parsed.Address[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", false
	}

	return parsed.Address, true
}
