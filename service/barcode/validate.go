package barcode

import "strings"

// Validate reports whether code is a non-empty run of ASCII digits, the
// format shared by the numeric retail symbologies.
func Validate(code string) bool {
	if strings.TrimSpace(code) == "" {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
