package util

import (
	"net/mail"
	"path/filepath"
	"strings"
)

// MaxImageUploadSize bounds uploads forwarded to object storage.
const MaxImageUploadSize = 10 << 20

var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// IsValidImageFile checks if a filename has an accepted image extension
func IsValidImageFile(filename string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// ImageContentType returns the MIME type for an image filename
func ImageContentType(filename string) string {
	if ct, ok := imageExtensions[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail checks an address parses as a bare mailbox
func IsValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
