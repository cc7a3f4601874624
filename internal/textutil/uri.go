// Package textutil holds small string helpers shared across packages.
package textutil

import "strings"

const (
	unreservedMarks = "-_.!~*'()"
	reservedURI     = ";,/?:@&=+$#"
	upperhex        = "0123456789ABCDEF"
)

// EncodeURIComponent percent-encodes s the way browsers encode a URI
// component: everything except ASCII letters, digits and -_.!~*'() is
// escaped as UTF-8 bytes.
func EncodeURIComponent(s string) string {
	return escape(s, unreservedMarks)
}

// EncodeURI percent-encodes a full URI, leaving reserved delimiters intact.
func EncodeURI(s string) string {
	return escape(s, unreservedMarks+reservedURI)
}

func escape(s, keep string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAlnum(c) || (c < 0x80 && strings.IndexByte(keep, c) >= 0) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
	return b.String()
}

func isAlnum(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
