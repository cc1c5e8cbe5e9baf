package storage

import "strings"

// Config holds document storage configuration
type Config struct {
	UploadDir         string   // Directory documents are written to
	AllowedExtensions []string // Lower-case, without the leading dot
	MaxFileBytes      int64    // Per-file ceiling; 0 disables the check
}

// Allowed reports whether ext (with or without the dot, any case) is accepted
func (c Config) Allowed(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range c.AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}
