// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package capability

import (
	"strings"

	"github.com/ManuGH/mediagate/internal/media"
)

// Client answers type queries from a declared client capability set.
// An empty list means the client declared nothing for that dimension, which
// yields Unknown rather than a rejection.
type Client struct {
	Categories  []media.Category
	Containers  []string
	VideoCodecs []string
	AudioCodecs []string
}

// NewClient normalizes and de-duplicates the declared capability lists.
func NewClient(categories []media.Category, containers, videoCodecs, audioCodecs []string) Client {
	return Client{
		Categories:  categories,
		Containers:  normalizedTokens(containers, canonicalContainer),
		VideoCodecs: normalizedTokens(videoCodecs, canonicalCodec),
		AudioCodecs: normalizedTokens(audioCodecs, canonicalCodec),
	}
}

// SupportsCategory reports true for every declared category, or for any
// category when none were declared.
func (c Client) SupportsCategory(category media.Category) bool {
	if len(c.Categories) == 0 {
		return true
	}
	for _, cat := range c.Categories {
		if cat == category {
			return true
		}
	}
	return false
}

func (c Client) SupportsType(mimeType string) Verdict {
	pt, ok := parseType(mimeType)
	if !ok {
		return Unknown
	}

	out := c.containerVerdict(containerFromType(pt))
	if out == NotPlayable {
		return NotPlayable
	}
	for _, raw := range pt.codecs {
		switch c.codecVerdict(canonicalCodec(raw)) {
		case NotPlayable:
			return NotPlayable
		case Unknown:
			out = Unknown
		}
	}
	return out
}

func (c Client) containerVerdict(container string) Verdict {
	if len(c.Containers) == 0 || container == "" {
		return Unknown
	}
	if contains(c.Containers, container) {
		return Playable
	}
	return NotPlayable
}

func (c Client) codecVerdict(codec string) Verdict {
	var allowed []string
	switch {
	case videoCodecs[codec]:
		allowed = c.VideoCodecs
	case audioCodecs[codec]:
		allowed = c.AudioCodecs
	default:
		if len(c.VideoCodecs) == 0 && len(c.AudioCodecs) == 0 {
			return Unknown
		}
		if contains(c.VideoCodecs, codec) || contains(c.AudioCodecs, codec) {
			return Playable
		}
		return NotPlayable
	}
	if len(allowed) == 0 {
		return Unknown
	}
	if contains(allowed, codec) {
		return Playable
	}
	return NotPlayable
}

var videoCodecs = map[string]bool{
	"h264": true, "hevc": true, "av1": true, "vp8": true, "vp9": true, "theora": true, "mpeg4": true,
}

var audioCodecs = map[string]bool{
	"aac": true, "mp3": true, "opus": true, "vorbis": true, "flac": true, "ac3": true, "eac3": true, "pcm": true,
}

func containerFromType(pt parsedType) string {
	switch pt.subtype {
	case "mp4", "x-m4a", "x-m4v":
		return "mp4"
	case "quicktime":
		return "mov"
	case "webm":
		return "webm"
	case "ogg":
		return "ogg"
	case "x-matroska":
		return "mkv"
	case "x-flv":
		return "flv"
	case "3gpp", "3gpp2":
		return "3gp"
	case "mpeg":
		if pt.topLevel == string(media.CategoryAudio) {
			return "mp3"
		}
		return "mpegts"
	case "mp2t":
		return "mpegts"
	case "vnd.apple.mpegurl", "x-mpegurl":
		return "hls"
	case "dash+xml":
		return "dash"
	case "wav", "x-wav", "wave":
		return "wav"
	case "aac":
		return "aac"
	case "flac":
		return "flac"
	default:
		return pt.subtype
	}
}

func canonicalContainer(raw string) string {
	v := normalizeToken(raw)
	switch v {
	case "m4a", "m4v", "fmp4":
		return "mp4"
	case "quicktime":
		return "mov"
	case "matroska":
		return "mkv"
	case "ts", "mp2t":
		return "mpegts"
	case "m3u8":
		return "hls"
	case "mpd":
		return "dash"
	default:
		return v
	}
}

// canonicalCodec maps codec names and RFC 6381 codec strings onto the short
// names used in capability declarations.
func canonicalCodec(raw string) string {
	v := normalizeToken(raw)
	if i := strings.IndexByte(v, '.'); i > 0 && v != "h.265" && v != "h.264" {
		prefix := v[:i]
		switch prefix {
		case "avc1", "avc3", "hev1", "hvc1", "av01", "vp09", "vp08", "mp4v", "mp4a", "ac-3", "ec-3":
			v = prefix
			if prefix == "mp4a" {
				return canonicalMP4A(raw)
			}
		}
	}
	switch v {
	case "h264", "avc", "avc1", "avc3", "libx264", "h.264":
		return "h264"
	case "hevc", "h265", "h.265", "hev1", "hvc1", "libx265":
		return "hevc"
	case "av1", "av01", "libsvtav1", "libaom-av1":
		return "av1"
	case "vp9", "vp09":
		return "vp9"
	case "vp8", "vp08":
		return "vp8"
	case "mp4v":
		return "mpeg4"
	case "mp4a":
		return "aac"
	case "mp3":
		return "mp3"
	case "ac-3", "ac3":
		return "ac3"
	case "ec-3", "eac3":
		return "eac3"
	case "1", "pcm":
		return "pcm"
	default:
		return v
	}
}

// canonicalMP4A resolves mp4a object types; MPEG-1/2 layer 3 is mp3, the
// rest are AAC profiles.
func canonicalMP4A(raw string) string {
	switch normalizeToken(raw) {
	case "mp4a.6b", "mp4a.69", "mp4a.40.34":
		return "mp3"
	default:
		return "aac"
	}
}

func normalizedTokens(values []string, canon func(string) string) []string {
	out := make([]string, 0, len(values))
	seen := map[string]bool{}
	for _, v := range values {
		t := canon(v)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func contains(slice []string, value string) bool {
	v := normalizeToken(value)
	for _, item := range slice {
		if normalizeToken(item) == v {
			return true
		}
	}
	return false
}
