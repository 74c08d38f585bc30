package state

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// MaxRecent bounds the recent-search list.
const MaxRecent = 5

// recentKey makes "Café" and "CAFÉ" the same query.
func recentKey(query string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(query)))
}

// pushRecent prepends query, drops any earlier equivalent, and truncates to
// MaxRecent. The input slice is never modified.
func pushRecent(recent []string, query string) []string {
	key := recentKey(query)
	if key == "" {
		return recent
	}
	out := make([]string, 0, MaxRecent)
	out = append(out, strings.TrimSpace(query))
	for _, q := range recent {
		if len(out) == MaxRecent {
			break
		}
		if recentKey(q) == key {
			continue
		}
		out = append(out, q)
	}
	return out
}
