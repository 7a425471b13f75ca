package harvest

import (
	"net/url"
	"strings"
)

// BaseURL is the content source origin. Sessions navigate here first to
// establish cookies before hitting the search page, and asset fetches send
// it as the referer.
const BaseURL = "https://www.pinterest.com"

// SearchURL builds the pin-search page URL for a topic query. Spaces are
// encoded as %20 rather than +, matching the site's own link format.
func SearchURL(query string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
	return BaseURL + "/search/pins/?q=" + escaped
}

// OriginalsURL rewrites a thumbnail locator to its full-resolution variant.
// The CDN serves scaled renditions under sized path segments; swapping them
// for "originals" requests the source upload. The rewrite is a plain
// substring replacement, mirroring the CDN's URL scheme.
func OriginalsURL(imageURL string) string {
	out := strings.ReplaceAll(imageURL, "236x", "originals")
	return strings.ReplaceAll(out, "564x", "originals")
}

// AbsolutePinURL resolves a pin href against the source origin. Hrefs
// extracted from the grid are usually relative ("/pin/12345/").
func AbsolutePinURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return BaseURL + href
}

// PinIDFromHref extracts the opaque pin id from a pin link href. Returns ""
// when the href does not reference a pin.
func PinIDFromHref(href string) string {
	const marker = "/pin/"
	idx := strings.Index(href, marker)
	if idx < 0 {
		return ""
	}
	rest := href[idx+len(marker):]
	if end := strings.IndexAny(rest, "/?#"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}
