package models

import (
	"strings"

	"golang.org/x/text/cases"
)

// SearchKey folds the given parts into a single lowercase key used for
// case-insensitive lookups, including non-Latin scripts. A Caser must not be
// shared between goroutines, so each call builds its own.
func SearchKey(parts ...string) string {
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		fields = append(fields, strings.Fields(p)...)
	}
	key := cases.Fold().String(strings.Join(fields, " "))
	return strings.ReplaceAll(key, "ё", "е")
}

// ClientSearchKey builds the search key stored for a client.
func ClientSearchKey(fullName string, phone *string) string {
	if phone == nil {
		return SearchKey(fullName)
	}
	return SearchKey(fullName, *phone)
}
