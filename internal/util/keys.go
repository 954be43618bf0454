package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// FileName joins a content key and an extension ("abc" + "png" or ".png").
func FileName(key, ext string) string {
	if ext == "" {
		return key
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return key + ext
}

// NormalizeExt returns ext with a leading dot, or def when ext is empty.
func NormalizeExt(ext, def string) string {
	if ext == "" {
		ext = def
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Redact returns a short stable token for a key that should not be logged
// verbatim (label text may be long prompts).
func Redact(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:6])
}
