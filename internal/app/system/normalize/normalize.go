// Package normalize trims and case-folds user input before it is stored or
// compared.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Name trims a display name and preserves its case.
func Name(s string) string { return strings.TrimSpace(s) }

// Role lowercases and trims a role name.
func Role(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Status lowercases and trims a status value.
func Status(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Territory trims a district or field key. Keys are compared exactly.
func Territory(s string) string { return strings.TrimSpace(s) }

// QueryParam trims a query-string value.
func QueryParam(s string) string { return strings.TrimSpace(s) }

// ChurchID trims a church filter and maps "all" to "".
func ChurchID(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}
