package helpers

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
)

// HashURL returns the md5 hex digest of a URL. Used as the natural key for
// feed records and as the content-addressed artifact cache key.
func HashURL(rawURL string) string {
	sum := md5.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// EscapeURL percent-escapes a URL path while keeping '/' and ':' intact.
// Attachment hrefs on the municipal sites contain unescaped cyrillic file
// names.
func EscapeURL(rawURL string) string {
	var b strings.Builder
	for _, r := range rawURL {
		if r == '/' || r == ':' {
			b.WriteRune(r)
			continue
		}
		esc := url.QueryEscape(string(r))
		if esc == "+" {
			esc = "%20"
		}
		b.WriteString(esc)
	}
	return b.String()
}

// ResolveURL resolves a possibly relative href against a base URL
func ResolveURL(base, href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(href, "/")
}

// GetSplitPart splits target around separate and returns the part at index
func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// CollapseWhitespace normalizes runs of blank lines and doubled spaces in
// extracted address blocks
func CollapseWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\n \n", "\n")
	for strings.Contains(text, "\n\n") {
		text = strings.ReplaceAll(text, "\n\n", "\n")
	}
	for strings.Contains(text, "  ") {
		text = strings.ReplaceAll(text, "  ", " ")
	}
	return strings.TrimSpace(text)
}
