package prompt

import "strings"

// UnknownSource is the label used when a locator is empty
const UnknownSource = "Unknown source"

// FormatSourceURI turns a document locator (object-store URI, URL, or file
// path) into a short human-readable label. It is total: malformed input
// degrades to a best-effort label, never an error.
func FormatSourceURI(uri string) string {
	if uri == "" {
		return UnknownSource
	}

	switch {
	case strings.HasPrefix(uri, "http"):
		// Last non-empty path segment, or fall back to the host
		parts := strings.Split(uri, "/")
		if len(parts) > 2 {
			if last := parts[len(parts)-1]; last != "" {
				return last
			}
			return parts[2]
		}
		return uri

	case strings.Contains(uri, "://"):
		// Object-store locator: scheme://bucket/path/to/file.ext
		parts := strings.Split(uri, "/")
		if len(parts) > 3 {
			return cleanFilename(parts[len(parts)-1])
		}
		if last := parts[len(parts)-1]; last != "" {
			return last
		}
		return UnknownSource

	case strings.Contains(uri, "/"):
		parts := strings.Split(uri, "/")
		return cleanFilename(parts[len(parts)-1])

	case strings.Contains(uri, `\`):
		parts := strings.Split(uri, `\`)
		return cleanFilename(parts[len(parts)-1])
	}

	return uri
}

// cleanFilename strips one trailing extension and replaces underscores and
// hyphens with spaces.
func cleanFilename(name string) string {
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}
