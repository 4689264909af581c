package manifest

import "strings"

const (
	// AssetPrefix is stripped from stored paths before matching.
	AssetPrefix = "assets/"

	// SentinelLabel marks entries that still need a curator-written label.
	SentinelLabel = "NEED LABEL"
)

// Well-known entry field names read by the rendering layer.
const (
	FieldKey   = "key"
	FieldPath  = "path"
	FieldLabel = "label"
)

// NormalizePath strips a single leading "assets/" segment.
func NormalizePath(p string) string {
	return strings.TrimPrefix(p, AssetPrefix)
}

// KeyFromPath returns the last path segment without its extension.
// "dir/photo.final.png" -> "photo.final", "file." -> "file.", ".hidden" -> "".
func KeyFromPath(p string) string {
	base := p[strings.LastIndex(p, "/")+1:]
	if i := strings.LastIndex(base, "."); i >= 0 && i < len(base)-1 {
		return base[:i]
	}
	return base
}
