package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[^\w\s.-]`)

// SanitizeFilename strips directories and replaces anything outside
// word characters, spaces, dots and dashes with an underscore.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "video"
	}
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

// NormalizeExtension returns the lower-cased extension of name, dot included.
func NormalizeExtension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
