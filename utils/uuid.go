package utils

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StorageKey returns a fresh object key for an upload. Only a short
// alphanumeric extension of the original name is kept.
func StorageKey(originalName string, now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("uploads/%04d/%02d/%02d/%s%s", now.Year(), int(now.Month()), now.Day(), uuid.NewString(), safeExt(originalName))
}

func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(strings.ReplaceAll(name, "\\", "/"))))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
