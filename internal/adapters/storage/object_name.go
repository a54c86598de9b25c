// Package storage stores signup uploads in an object store or on local disk.
package storage

import (
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var prefixPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// objectName returns prefix/<uuid><ext>. The client's file name only contributes its extension.
func objectName(prefix, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	name := uuid.NewString() + ext
	if prefix == "" || !prefixPattern.MatchString(prefix) {
		return name
	}
	return prefix + "/" + name
}
