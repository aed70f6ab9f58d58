package gallery

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// FallbackFunc returns the image attachments of a post, in registry order.
type FallbackFunc func(postID int64) []AssetID

// The tag name must be followed by whitespace, "/" or "]" so that
// [gallery-x], [galleryx] and [/gallery] never match. Groups: 1 is the
// optional escape bracket, 2 the attribute text, 3 the closing escape.
var galleryTagRe = regexp.MustCompile(`\[(\[?)gallery(\s[^\]]*|/)?\](\]?)`)

// Attribute grammar: k="v", k='v', k=v, then positional "v", 'v', v.
var shortcodeAttrRe = regexp.MustCompile(
	`([\w-]+)\s*=\s*"([^"]*)"(?:\s|$)` +
		`|([\w-]+)\s*=\s*'([^']*)'(?:\s|$)` +
		`|([\w-]+)\s*=\s*([^\s'"]+)(?:\s|$)` +
		`|"([^"]*)"(?:\s|$)` +
		`|'([^']*)'(?:\s|$)` +
		`|(\S+)(?:\s|$)`)

var oddSpaceRe = regexp.MustCompile("[\u00a0\u200b]+")

// Extract returns one directive per [gallery] tag in body, in document
// order. Directives without an ids attribute take their IDs from
// fallback, which is called at most once. A nil fallback yields empty
// lists.
func Extract(postID int64, body string, fallback FallbackFunc) []GalleryDirective {
	matches := galleryTagRe.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return nil
	}

	var (
		attached []AssetID
		fetched  bool
	)
	var out []GalleryDirective
	for _, m := range matches {
		escOpen := submatch(body, m, 1)
		escClose := submatch(body, m, 3)
		if escOpen == "[" && escClose == "]" {
			continue
		}
		attrText := strings.TrimSuffix(submatch(body, m, 2), "/")
		attrs := ParseAttrs(attrText)

		d := GalleryDirective{Offset: m[0], Attrs: attrs}
		if raw, ok := attrs["ids"]; ok {
			d.IDs = ParseIDs(raw)
		} else {
			if !fetched && fallback != nil {
				attached = fallback(postID)
			}
			fetched = true
			d.IDs = append([]AssetID(nil), attached...)
			d.Fallback = true
		}
		out = append(out, d)
	}
	return out
}

func submatch(s string, m []int, group int) string {
	start, end := m[2*group], m[2*group+1]
	if start < 0 {
		return ""
	}
	return s[start:end]
}

// ParseAttrs parses shortcode attribute text into a map with lowercased
// keys. Positional values are dropped. Malformed text yields an empty map.
func ParseAttrs(text string) map[string]string {
	attrs := make(map[string]string)
	text = oddSpaceRe.ReplaceAllString(text, " ")
	for _, m := range shortcodeAttrRe.FindAllStringSubmatch(text, -1) {
		switch {
		case m[1] != "":
			attrs[strings.ToLower(m[1])] = m[2]
		case m[3] != "":
			attrs[strings.ToLower(m[3])] = m[4]
		case m[5] != "":
			attrs[strings.ToLower(m[5])] = m[6]
		}
	}
	return attrs
}

// ParseIDs splits a comma-separated id list. Each entry is read as a
// leading signed integer; entries with no numeric prefix become 0, so
// a blank list yields a single 0.
func ParseIDs(raw string) []AssetID {
	parts := strings.Split(raw, ",")
	ids := make([]AssetID, len(parts))
	for i, p := range parts {
		ids[i] = AssetID(leadingInt(p))
	}
	return ids
}

// leadingInt parses the integer prefix of s after trimming whitespace.
// Out-of-range values clamp to the int64 bounds.
func leadingInt(s string) int64 {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		if s[0] == '-' {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	return n
}
