package model

import "strings"

// IsUKMobile reports whether a phone number looks like a UK mobile: after
// stripping whitespace it starts with 07, or +447 in international form.
func IsUKMobile(phone string) bool {
	p := strings.Join(strings.Fields(phone), "")
	return strings.HasPrefix(p, "07") || strings.HasPrefix(p, "+447")
}
