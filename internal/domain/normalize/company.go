package normalize

import (
	"strings"
	"unicode/utf8"
)

// DefaultCompanyAliases are the short names used across the contest views.
func DefaultCompanyAliases() map[string]string {
	return map[string]string{
		"VANCHINAD FINANCE LTD": "VFL",
		"SML FINANCE LTD":       "SML",
		"SANGEETH NIDHI LTD":    "SNL",
	}
}

// ShortCompanyName abbreviates a company name: an alias when one is known,
// initials for names of more than two words, otherwise the name itself.
// An empty name renders as "N/A".
func ShortCompanyName(name string, aliases map[string]string) string {
	if short, ok := aliases[name]; ok {
		return short
	}
	parts := strings.Fields(name)
	if len(parts) > 2 {
		var b strings.Builder
		for _, p := range parts {
			r, _ := utf8.DecodeRuneInString(p)
			b.WriteRune(r)
		}
		return b.String()
	}
	if name == "" {
		return "N/A"
	}
	return name
}
