package mls

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	maxImages = 40
	// records without an Order hint sort after every ordered one
	unorderedSentinel = 1 << 30
)

var (
	// resize markers carrying the width: ".../rs:fit:1920:1080/..." or "...-w1024_h768..."
	photoSizePattern = regexp.MustCompile(`(?:rs:(?:fit|fill|auto):|-w)(\d+)(?:[:_]h?\d+)?`)
	thumbSuffix      = regexp.MustCompile(`(?i)[-_](?:t|thumb|thumbnail)$`)
)

type photoCandidate struct {
	url   string
	order int
	size  int
	first int // order of the earliest record with the same identity
}

// DedupeImages collapses CDN resize variants of the same photo to the largest
// one, keeps presentation order and caps the list at 40 URLs.
func DedupeImages(media []MediaRecord) []string {
	photos := make([]photoCandidate, 0, len(media))
	keys := make([]string, 0, len(media))
	for _, m := range media {
		if m.MediaURL == "" || !isPhoto(m) {
			continue
		}
		order := unorderedSentinel
		if m.Order != nil {
			order = *m.Order
		}
		photos = append(photos, photoCandidate{url: m.MediaURL, order: order, size: photoSize(m.MediaURL)})
		keys = append(keys, photoIdentity(m))
	}

	idx := make([]int, len(photos))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return photos[idx[a]].order < photos[idx[b]].order })

	best := make(map[string]*photoCandidate, len(photos))
	var identities []string
	for _, i := range idx {
		p := photos[i]
		id := keys[i]
		cur, ok := best[id]
		if !ok {
			p.first = p.order
			best[id] = &p
			identities = append(identities, id)
			continue
		}
		if p.size > cur.size {
			p.first = cur.first
			best[id] = &p
		}
	}

	kept := make([]*photoCandidate, 0, len(identities))
	for _, id := range identities {
		kept = append(kept, best[id])
	}
	sort.SliceStable(kept, func(a, b int) bool { return kept[a].first < kept[b].first })

	if len(kept) > maxImages {
		kept = kept[:maxImages]
	}
	out := make([]string, 0, len(kept))
	for _, p := range kept {
		out = append(out, p.url)
	}
	return out
}

// isPhoto accepts an explicit Photo category or an image/* MIME type. Records
// carrying neither are accepted: missing metadata is not a reason to drop.
func isPhoto(m MediaRecord) bool {
	category := strings.TrimSpace(m.MediaCategory)
	mime := strings.TrimSpace(m.MimeType)
	if category == "" && mime == "" {
		return true
	}
	return strings.EqualFold(category, "Photo") || strings.HasPrefix(strings.ToLower(mime), "image/")
}

// photoIdentity prefers the media key, minus any thumbnail suffix. Otherwise
// it falls back to the first URL path segment, the CDN's content-hash
// directory shared by every resize variant. Unrelated photos that happen to
// share that segment collapse together; that is accepted. A URL with no path
// is its own identity.
func photoIdentity(m MediaRecord) string {
	if key := strings.TrimSpace(m.MediaKey); key != "" {
		return "key:" + thumbSuffix.ReplaceAllString(key, "")
	}
	u, err := url.Parse(m.MediaURL)
	if err != nil {
		return "url:" + m.MediaURL
	}
	seg := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)[0]
	if seg == "" {
		return "url:" + m.MediaURL
	}
	return "path:" + seg
}

// uniqueImages is for image lists that are already final URLs (the CRM
// schema): exact duplicates and blanks go, order stays, no variant grouping.
func uniqueImages(urls []string) []string {
	out := make([]string, 0, min(len(urls), maxImages))
	seen := make(map[string]struct{}, len(urls))
	for _, href := range urls {
		href = strings.TrimSpace(href)
		if href == "" {
			continue
		}
		if _, ok := seen[href]; ok {
			continue
		}
		seen[href] = struct{}{}
		out = append(out, href)
		if len(out) == maxImages {
			break
		}
	}
	return out
}

func photoSize(href string) int {
	m := photoSizePattern.FindStringSubmatch(href)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
