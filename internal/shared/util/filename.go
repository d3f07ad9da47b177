package util

import (
	"errors"
	"path"
	"strings"
)

const maxFileNameLen = 64

var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName reduces an uploaded file name to [A-Za-z0-9._-] and forces
// the extension to ext, which comes from the sniffed content type.
func SanitizeFileName(name, ext string) (string, error) {
	name = strings.TrimSpace(name)
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	stem := strings.TrimSuffix(name, path.Ext(name))

	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	stem = strings.Trim(b.String(), ".")
	if stem == "" {
		return "", ErrInvalidFileName
	}
	if limit := maxFileNameLen - len(ext); len(stem) > limit {
		stem = stem[:limit]
	}
	return stem + ext, nil
}
