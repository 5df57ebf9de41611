package catalog

import (
	"net/url"
	"strings"
)

// FilenamePlaceholder marks where the filename goes in an asset template.
const FilenamePlaceholder = "{filename}"

// AssetResolver maps a track filename to its playable address.
type AssetResolver struct {
	template string
}

// NewAssetResolver creates a resolver from an address template. When the
// template has no placeholder the filename is appended. Filenames are path
// escaped for remote templates only.
func NewAssetResolver(template string) *AssetResolver {
	return &AssetResolver{template: template}
}

// Resolve returns the playable address of filename.
func (r *AssetResolver) Resolve(filename string) string {
	if r == nil || r.template == "" {
		return filename
	}
	escaped := filename
	if strings.Contains(r.template, "://") && !strings.HasPrefix(r.template, "file://") {
		escaped = escapePath(filename)
	}
	if strings.Contains(r.template, FilenamePlaceholder) {
		return strings.ReplaceAll(r.template, FilenamePlaceholder, escaped)
	}
	if strings.HasSuffix(r.template, "/") {
		return r.template + escaped
	}
	return r.template + "/" + escaped
}

func escapePath(filename string) string {
	parts := strings.Split(filename, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
