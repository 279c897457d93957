// Package canonical normalizes bookmark URLs for duplicate detection.
package canonical

import (
	"net/url"
	"strings"

	"readwatch/internal/model"
)

const youtubeWatchURL = "https://www.youtube.com/watch"

// Hosts that carry the video id in the "v" query parameter.
var youtubeWatchHosts = map[string]struct{}{
	"youtube.com":     {},
	"www.youtube.com": {},
	"m.youtube.com":   {},
}

// Short-link host carrying the video id as the first path segment.
const youtubeShortHost = "youtu.be"

// Canonicalize returns the canonical form of raw. It never fails: unparseable
// input and URLs outside the known video hosts are returned unchanged.
func Canonicalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	id := youtubeVideoID(u)
	if id == "" {
		return raw
	}

	q := url.Values{}
	q.Set("v", id)
	return youtubeWatchURL + "?" + q.Encode()
}

func youtubeVideoID(u *url.URL) string {
	host := strings.ToLower(u.Hostname())

	if _, ok := youtubeWatchHosts[host]; ok {
		return videoParam(u.RawQuery)
	}

	if host == youtubeShortHost {
		seg := strings.Trim(u.Path, "/")
		if i := strings.IndexByte(seg, '/'); i >= 0 {
			seg = seg[:i]
		}
		if seg != "" {
			return seg
		}
		return videoParam(u.RawQuery)
	}

	return ""
}

// videoParam returns the first non-empty "v" value in rawQuery. Unlike
// url.ParseQuery it keeps pairs that sit next to a ';' separator.
func videoParam(rawQuery string) string {
	for _, pair := range strings.FieldsFunc(rawQuery, func(r rune) bool { return r == '&' || r == ';' }) {
		key, value, _ := strings.Cut(pair, "=")
		if key != "v" {
			continue
		}
		id, err := url.QueryUnescape(value)
		if err != nil || id == "" {
			continue
		}
		return id
	}
	return ""
}

// videoPlatforms are URL fragments that mark a page as a video.
var videoPlatforms = []string{
	"youtube.com/watch",
	"youtu.be/",
	"vimeo.com/",
	"dailymotion.com/video",
	"twitch.tv/videos",
	"facebook.com/watch",
	"bilibili.com/video",
	"netflix.com/watch",
	"primevideo.com/detail",
	"hulu.com/watch",
	"crunchyroll.com/watch",
}

// InferType guesses the item type of raw from its URL. Anything that is not
// on a known video platform is an article.
func InferType(raw string) string {
	lower := strings.ToLower(raw)
	for _, p := range videoPlatforms {
		if strings.Contains(lower, p) {
			return model.ItemTypeVideo
		}
	}
	return model.ItemTypeArticle
}
