// Package email derives a human-presentable salutation from an address when
// no structured name is available, e.g. for dev-mode send logs.
package email

import (
	"strings"
	"unicode"
)

// DisplayName guesses a display name from the local part of an address:
// "ada.lovelace@example.com" becomes "Ada Lovelace". Addresses with no
// usable local part fall back to "Candidate".
func DisplayName(address string) string {
	local := address
	if at := strings.IndexByte(address, '@'); at >= 0 {
		local = address[:at]
	}

	words := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(words) == 0 {
		return "Candidate"
	}

	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
