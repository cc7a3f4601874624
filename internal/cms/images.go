package cms

import (
	"strings"

	"github.com/etalage/web/internal/textutil"
)

const (
	uploadsPrefix       = "img/uploads/"
	staticUploadsPrefix = "static/img/uploads/"
)

// NormalizeImagePath maps a CMS upload path onto the URL the site serves it
// from: the leading slash is dropped, "img/uploads/" becomes
// "static/img/uploads/" and the result is URI-encoded. Absolute URLs are
// only encoded.
func NormalizeImagePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if strings.Contains(p, "://") {
		return textutil.EncodeURI(p)
	}
	p = strings.TrimPrefix(p, "/")
	if strings.HasPrefix(p, uploadsPrefix) {
		p = staticUploadsPrefix + strings.TrimPrefix(p, uploadsPrefix)
	}
	return textutil.EncodeURI(p)
}
