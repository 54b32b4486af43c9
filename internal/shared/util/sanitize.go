package util

import (
	"errors"
	"strings"
)

// maxFileNameLen bounds the name component of an object key. Uploaded
// filenames are user-controlled and S3 keys cap out at 1024 bytes.
const maxFileNameLen = 120

// SanitizeFileName makes an uploaded filename safe to embed in an object
// key: path separators and control characters are replaced, traversal
// patterns are rejected, and overlong names are clamped.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if s == "" {
		return "", errors.New("invalid file name")
	}
	if runes := []rune(s); len(runes) > maxFileNameLen {
		s = string(runes[:maxFileNameLen])
	}
	return s, nil
}
