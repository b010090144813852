// Package media provides the playable item, stream source and track domain entities.
package media

import (
	"net/url"
	"path"
	"strings"
)

// Origin identifies where an item is stored.
type Origin string

const (
	OriginLocal Origin = "LOCAL" // On-device file
	OriginCloud Origin = "CLOUD" // Cloud drive file
)

// Item represents one playable entry of a playlist.
type Item struct {
	ID       string // Content identifier (file path for local, file ID for cloud)
	Title    string // Display title
	Origin   Origin // Storage origin
	MimeType string // MIME type reported by the listing, may be empty
	Size     int64  // Size in bytes, 0 if unknown
}

// IsCloud reports whether the item has to be streamed from the cloud drive.
func (i Item) IsCloud() bool {
	return i.Origin == OriginCloud
}

// StreamFormat is the container hint passed to the engine.
type StreamFormat int

const (
	FormatProgressive StreamFormat = iota // Plain file, byte-range streaming
	FormatHLS                             // HTTP Live Streaming playlist
	FormatDASH                            // MPEG-DASH manifest
)

// String returns the string representation of the format.
func (f StreamFormat) String() string {
	switch f {
	case FormatProgressive:
		return "progressive"
	case FormatHLS:
		return "hls"
	case FormatDASH:
		return "dash"
	default:
		return "unknown"
	}
}

// Source describes a resolved, playable stream.
type Source struct {
	URL      string            // Stream URL (http(s) or file)
	Format   StreamFormat      // Container hint
	MimeType string            // MIME type hint, may be empty
	Headers  map[string]string // Request headers (auth, range)
}

// DetectFormat derives the container hint from a stream URL.
func DetectFormat(rawURL string) StreamFormat {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".m3u8":
		return FormatHLS
	case ".mpd":
		return FormatDASH
	}
	// Some hosts keep the manifest name in the query string.
	lower := strings.ToLower(rawURL)
	switch {
	case strings.Contains(lower, ".m3u8"):
		return FormatHLS
	case strings.Contains(lower, ".mpd"):
		return FormatDASH
	default:
		return FormatProgressive
	}
}

// NewSource builds a Source for the URL with the format detected from it.
func NewSource(rawURL, mimeType string, headers map[string]string) Source {
	return Source{
		URL:      rawURL,
		Format:   DetectFormat(rawURL),
		MimeType: mimeType,
		Headers:  headers,
	}
}
