// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package media

import (
	"net/url"
	"path"
	"strings"
)

var defaultExtensions = map[string]string{
	"3g2":  "video/3gpp2",
	"3gp":  "video/3gpp",
	"3gpp": "video/3gpp",
	"aac":  "audio/aac",
	"f4a":  "audio/mp4",
	"f4b":  "audio/mp4",
	"f4v":  "video/mp4",
	"flv":  "video/x-flv",
	"m3u8": "application/vnd.apple.mpegurl",
	"m4a":  "audio/mp4",
	"m4b":  "audio/mp4",
	"m4r":  "audio/mp4",
	"m4v":  "video/mp4",
	"mkv":  "video/x-matroska",
	"mov":  "video/quicktime",
	"mp3":  "audio/mpeg",
	"mp4":  "video/mp4",
	"mpd":  "application/dash+xml",
	"oga":  "audio/ogg",
	"ogg":  "audio/ogg",
	"ogv":  "video/ogg",
	"opus": "audio/ogg",
	"wav":  "audio/wav",
	"weba": "audio/webm",
	"webm": "video/webm",
}

// ExtensionTable maps lower-case file extensions (without dot) to MIME types.
// The zero value is usable and answers from the built-in table.
type ExtensionTable struct {
	overrides map[string]string
}

// NewExtensionTable returns a table with overrides layered over the built-in
// entries. Override keys may carry a leading dot; empty values are ignored.
func NewExtensionTable(overrides map[string]string) ExtensionTable {
	if len(overrides) == 0 {
		return ExtensionTable{}
	}
	m := make(map[string]string, len(overrides))
	for ext, mt := range overrides {
		ext = normalizeExt(ext)
		mt = strings.TrimSpace(mt)
		if ext == "" || mt == "" {
			continue
		}
		m[ext] = strings.ToLower(mt)
	}
	return ExtensionTable{overrides: m}
}

// Lookup returns the MIME type registered for ext.
func (t ExtensionTable) Lookup(ext string) (string, bool) {
	ext = normalizeExt(ext)
	if ext == "" {
		return "", false
	}
	if mt, ok := t.overrides[ext]; ok {
		return mt, true
	}
	mt, ok := defaultExtensions[ext]
	return mt, ok
}

// InferType derives the MIME type from the extension of uri's path.
// Query strings and fragments are ignored. An unknown or missing extension
// yields "".
func (t ExtensionTable) InferType(uri string) string {
	ext := Extension(uri)
	if ext == "" {
		return ""
	}
	mt, _ := t.Lookup(ext)
	return mt
}

// Resolve returns the declared type of s or the inferred one.
func (t ExtensionTable) Resolve(s Source) string {
	if s.MimeType != "" {
		return s.MimeType
	}
	return t.InferType(s.URI)
}

// Extension returns the lower-case extension of the path component of uri.
func Extension(uri string) string {
	p := uri
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return normalizeExt(path.Ext(p))
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
