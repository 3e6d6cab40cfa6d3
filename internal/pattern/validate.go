package pattern

import (
	"strconv"
	"strings"
)

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlnum(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isLocalChar(c byte) bool {
	return isAlnum(c) || strings.IndexByte("._%+-", c) >= 0
}

func isStrictLocalChar(c byte) bool {
	return isAlnum(c) || strings.IndexByte(".!#$%&'*+/=?^_`{|}~-", c) >= 0
}

func before(text string, m Match) (byte, bool) {
	if m.Start == 0 {
		return 0, false
	}
	return text[m.Start-1], true
}

func after(text string, m Match) (byte, bool) {
	if m.End >= len(text) {
		return 0, false
	}
	return text[m.End], true
}

func checkEmail(text string, m Match) (Match, bool) {
	if c, ok := before(text, m); ok && isLocalChar(c) {
		return m, false
	}
	if c, ok := after(text, m); ok && (isAlnum(c) || c == '-' || c == '_') {
		return m, false
	}
	local := text[m.Start:strings.IndexByte(text[m.Start:m.End], '@')+m.Start]
	for i := 0; i < len(local); i++ {
		if isAlnum(local[i]) {
			return m, true
		}
	}
	return m, false
}

// checkEmailStrict applies the RFC 5321 length limits and the dot-atom and
// hostname label rules on top of the shape check.
func checkEmailStrict(text string, m Match) (Match, bool) {
	if c, ok := before(text, m); ok && isStrictLocalChar(c) {
		return m, false
	}
	if c, ok := after(text, m); ok && (isAlnum(c) || c == '-' || c == '_') {
		return m, false
	}
	addr := text[m.Start:m.End]
	at := strings.IndexByte(addr, '@')
	local, domain := addr[:at], addr[at+1:]

	if len(local) > 64 || len(domain) > 253 {
		return m, false
	}
	if local[0] == '.' || local[len(local)-1] == '.' || strings.Contains(local, "..") {
		return m, false
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" || len(label) > 63 {
			return m, false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return m, false
		}
	}
	return m, true
}

const urlTrailing = ".,;:!?)]}"

func checkURL(text string, m Match) (Match, bool) {
	if c, ok := before(text, m); ok && (isAlnum(c) || c == '.' || c == '/') {
		return m, false
	}
	for m.End > m.Start && strings.IndexByte(urlTrailing, text[m.End-1]) >= 0 {
		m.End--
	}
	s := strings.ToLower(text[m.Start:m.End])
	var host string
	switch {
	case strings.HasPrefix(s, "https://"):
		host = s[len("https://"):]
	case strings.HasPrefix(s, "http://"):
		host = s[len("http://"):]
	default:
		host = s[len("www."):]
	}
	if host == "" || !isAlnum(host[0]) {
		return m, false
	}
	return m, true
}

func checkIPv4(text string, m Match) (Match, bool) {
	if c, ok := before(text, m); ok && (isDigit(c) || c == '.') {
		return m, false
	}
	if c, ok := after(text, m); ok {
		if isDigit(c) {
			return m, false
		}
		if c == '.' && m.End+1 < len(text) && isDigit(text[m.End+1]) {
			return m, false
		}
	}
	for _, octet := range strings.Split(text[m.Start:m.End], ".") {
		n, err := strconv.Atoi(octet)
		if err != nil || n > 255 {
			return m, false
		}
	}
	return m, true
}

func checkCard(text string, m Match) (Match, bool) {
	if c, ok := before(text, m); ok && isDigit(c) {
		return m, false
	}
	if c, ok := after(text, m); ok && isDigit(c) {
		return m, false
	}
	return m, Luhn(text[m.Start:m.End])
}

// Luhn reports whether the digits of s pass the Luhn checksum. Non-digit
// bytes are ignored; fewer than two digits never pass.
func Luhn(s string) bool {
	sum, n := 0, 0
	for i := len(s) - 1; i >= 0; i-- {
		if !isDigit(s[i]) {
			continue
		}
		d := int(s[i] - '0')
		if n%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		n++
	}
	return n >= 2 && sum%10 == 0
}
