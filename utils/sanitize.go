package utils

import (
	"net/url"
	"strings"
)

// SanitizeHeaderFilename removes characters that can break headers.
func SanitizeHeaderFilename(name string) string {
	clean := strings.TrimSpace(name)
	clean = strings.ReplaceAll(clean, "\r", "")
	clean = strings.ReplaceAll(clean, "\n", "")
	clean = strings.ReplaceAll(clean, "\"", "")
	if clean == "" {
		return "download"
	}
	return clean
}

// AttachmentDisposition builds a Content-Disposition value for name,
// with an RFC 5987 form for non-ASCII names.
func AttachmentDisposition(name string) string {
	clean := SanitizeHeaderFilename(name)
	ascii := strings.Map(func(r rune) rune {
		if r > 0x7e || r < 0x20 {
			return '_'
		}
		return r
	}, clean)
	if ascii == clean {
		return `attachment; filename="` + clean + `"`
	}
	return `attachment; filename="` + ascii + `"; filename*=UTF-8''` + url.PathEscape(clean)
}
