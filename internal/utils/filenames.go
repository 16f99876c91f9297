package utils

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SecureFilename reduces an uploaded filename to a safe base name made of
// ASCII letters, digits, '_', '.' and '-'. Returns "" when nothing usable
// is left.
func SecureFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	return name
}

// StampFormat is the timestamp layout embedded in stored file names.
const StampFormat = "20060102_150405"

// Stamp formats t in StampFormat, UTC.
func Stamp(t time.Time) string {
	return t.UTC().Format(StampFormat)
}

// Ext returns the lower-cased extension of name without the dot.
func Ext(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}
