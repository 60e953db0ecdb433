package extensions

import "strings"

const studentCodeLength = 7

// Username maps a records-system student code to a platform username:
// zero-padded to seven digits and prefixed with "s". ok is false when the
// code was already longer than seven characters; the username is still
// returned so the caller can try it.
func Username(studentCode string) (username string, ok bool) {
	code := strings.TrimSpace(studentCode)
	if len(code) < studentCodeLength {
		code = strings.Repeat("0", studentCodeLength-len(code)) + code
	}
	return "s" + code, len(code) == studentCodeLength
}
